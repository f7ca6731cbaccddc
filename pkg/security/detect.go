// Package security holds the request heuristics and the security event sink.
package security

import (
	"regexp"
	"strings"
)

type Threat string

const (
	ThreatXSS           Threat = "XSS_ATTEMPT"
	ThreatSQLInjection  Threat = "SQL_INJECTION_ATTEMPT"
	ThreatPathTraversal Threat = "PATH_TRAVERSAL_ATTEMPT"
)

var (
	xssPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)<\s*script\b`),
		regexp.MustCompile(`(?i)<\s*/\s*script\s*>`),
		regexp.MustCompile(`(?i)javascript\s*:`),
		regexp.MustCompile(`(?i)\bon[a-z]+\s*=`),
		regexp.MustCompile(`(?i)<\s*(iframe|object|embed|svg|img)\b[^>]*>`),
		regexp.MustCompile(`(?i)document\.(cookie|location)`),
	}

	sqlPatterns = []*regexp.Regexp{
		regexp.MustCompile(`'\s*;`),
		regexp.MustCompile(`--\s*$`),
		regexp.MustCompile(`;\s*--`),
		regexp.MustCompile(`/\*.*\*/`),
		regexp.MustCompile(`(?i)\bunion\b\s+(all\s+)?\bselect\b`),
		regexp.MustCompile(`(?i)\b(drop|truncate|alter)\s+table\b`),
		regexp.MustCompile(`(?i)\bdelete\s+from\b`),
		regexp.MustCompile(`(?i)\binsert\s+into\b`),
		regexp.MustCompile(`(?i)'\s*or\s+'?\d+'?\s*=\s*'?\d+`),
		regexp.MustCompile(`(?i)\bor\s+1\s*=\s*1\b`),
		regexp.MustCompile(`(?i)\bexec(\s|\()+(xp_|sp_)`),
	}

	traversalPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\.\./`),
		regexp.MustCompile(`\.\.\\`),
		regexp.MustCompile(`(?i)%2e%2e(%2f|%5c|/|\\)`),
		regexp.MustCompile(`(?i)/etc/(passwd|shadow|hosts)`),
		regexp.MustCompile(`(?i)[a-z]:\\windows\\`),
	}
)

// DetectSuspiciousInput classifies s against the XSS, SQL injection and path
// traversal signatures, in that order. Benign input returns ("", false).
func DetectSuspiciousInput(s string) (Threat, bool) {
	if strings.TrimSpace(s) == "" {
		return "", false
	}
	for _, p := range xssPatterns {
		if p.MatchString(s) {
			return ThreatXSS, true
		}
	}
	for _, p := range sqlPatterns {
		if p.MatchString(s) {
			return ThreatSQLInjection, true
		}
	}
	for _, p := range traversalPatterns {
		if p.MatchString(s) {
			return ThreatPathTraversal, true
		}
	}
	return "", false
}
