package email

import (
	"embed"
	"html/template"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

func loadTemplates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"date":  func(t time.Time) string { return t.Format("Monday, 2 January 2006") },
		"clock": func(t time.Time) string { return t.Format("15:04") },
	}).ParseFS(templateFS, "templates/*.html")
}
