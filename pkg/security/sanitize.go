package security

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	angleBrackets  = regexp.MustCompile(`[<>]`)
	javascriptURI  = regexp.MustCompile(`(?i)javascript:`)
	inlineHandlers = regexp.MustCompile(`(?i)\bon\w+\s*=`)
	quoteChars     = regexp.MustCompile(`['";]`)
)

// SanitizeInput strips markup and quoting characters from strings. Any other
// value is returned unchanged.
func SanitizeInput(v interface{}) interface{} {
	s, ok := v.(string)
	if !ok {
		return v
	}
	return SanitizeString(s)
}

func SanitizeString(s string) string {
	s = angleBrackets.ReplaceAllString(s, "")
	s = javascriptURI.ReplaceAllString(s, "")
	s = inlineHandlers.ReplaceAllString(s, "")
	s = quoteChars.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// SanitizeValue walks decoded JSON and sanitizes every string, skipping the
// values of keys listed in skip.
func SanitizeValue(v interface{}, skip map[string]bool) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, val := range t {
			if skip[k] {
				continue
			}
			t[k] = SanitizeValue(val, skip)
		}
		return t
	case []interface{}:
		for i, val := range t {
			t[i] = SanitizeValue(val, skip)
		}
		return t
	default:
		return SanitizeInput(v)
	}
}

// Strings collects every string value found in decoded JSON, keyed by its path.
func Strings(v interface{}, path string, out map[string]string) {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, val := range t {
			p := k
			if path != "" {
				p = path + "." + k
			}
			Strings(val, p, out)
		}
	case []interface{}:
		for i, val := range t {
			Strings(val, fmt.Sprintf("%s[%d]", path, i), out)
		}
	case string:
		out[path] = t
	}
}
