// Package report renders tabular reports as Excel workbooks and PDF documents.
package report

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

var ErrFormat = errors.New("format must be one of json, xlsx, pdf")

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatXLSX, FormatPDF:
		return f, nil
	}
	return "", ErrFormat
}

func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/json"
}

// FileName builds e.g. "commission-2026-10-01-2026-10-31.xlsx".
func (f Format) FileName(base string, from, to time.Time) string {
	return fmt.Sprintf("%s-%s-%s.%s", base, from.Format("2006-01-02"), to.Format("2006-01-02"), f)
}

type Column struct {
	Title string
	// Width is relative; PDF columns share the printable width in proportion.
	Width   float64
	Numeric bool
}

// Table is one report: a title, a period line, a header row, data rows and an
// optional totals row. Cells hold strings, ints or float64s.
type Table struct {
	Title   string
	Period  string
	Columns []Column
	Rows    [][]interface{}
	Totals  []interface{}
}

func PeriodLabel(from, to time.Time) string {
	return fmt.Sprintf("Period: %s - %s", from.Format("02 Jan 2006"), to.Format("02 Jan 2006"))
}

func formatCell(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', 2, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	}
	return fmt.Sprint(v)
}
