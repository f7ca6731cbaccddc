package importer

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var (
	numberToken  = regexp.MustCompile(`-?\d[\d.,\s\x{00A0}']*`)
	numericDate  = regexp.MustCompile(`^(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{4})$`)
	excelSerial  = regexp.MustCompile(`^\d{4,5}(\.\d+)?$`)
	nonDigits    = regexp.MustCompile(`[^0-9]`)
	spaceRunsRex = regexp.MustCompile(`\s+`)
)

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2 Jan 2006",
	"02 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
}

func cleanText(s string) string {
	return strings.TrimSpace(spaceRunsRex.ReplaceAllString(s, " "))
}

func phoneDigits(s string) string {
	return nonDigits.ReplaceAllString(s, "")
}

// parseNumber reads prices and surfaces written the way people type them:
// "$1,250,000", "1.250.000,50 TL", "120 m²".
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty number")
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f, nil
	}

	tok := numberToken.FindString(s)
	if tok == "" {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	tok = strings.NewReplacer(" ", "", "\u00a0", "", "'", "", "\t", "").Replace(strings.TrimSpace(tok))

	dot := strings.LastIndex(tok, ".")
	comma := strings.LastIndex(tok, ",")
	switch {
	case dot >= 0 && comma >= 0:
		if comma > dot {
			tok = strings.ReplaceAll(tok, ".", "")
			tok = strings.Replace(tok, ",", ".", 1)
		} else {
			tok = strings.ReplaceAll(tok, ",", "")
		}
	case comma >= 0:
		if strings.Count(tok, ",") > 1 || len(tok)-comma-1 == 3 {
			tok = strings.ReplaceAll(tok, ",", "")
		} else {
			tok = strings.Replace(tok, ",", ".", 1)
		}
	case dot >= 0:
		if strings.Count(tok, ".") > 1 {
			tok = strings.ReplaceAll(tok, ".", "")
		}
	}
	tok = strings.TrimRight(tok, ".")

	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return f, nil
}

// parseDate returns the parsed date and an optional warning. ok is false when
// nothing could be read; callers fall back to the import date.
func parseDate(s string) (t time.Time, warning string, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, "", false
	}

	if m := numericDate.FindStringSubmatch(s); m != nil {
		a, _ := strconv.Atoi(m[1])
		b, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])

		if d, valid := civil(year, b, a); valid {
			if a <= 12 && b <= 12 && a != b {
				warning = fmt.Sprintf("Ambiguous date %q interpreted as DD/MM/YYYY", s)
			}
			return d, warning, true
		}
		if d, valid := civil(year, a, b); valid {
			return d, fmt.Sprintf("Date %q interpreted as MM/DD/YYYY", s), true
		}
		return time.Time{}, "", false
	}

	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, "", true
		}
	}

	if excelSerial.MatchString(s) {
		serial, _ := strconv.ParseFloat(s, 64)
		if d, err := excelize.ExcelDateToTime(serial, false); err == nil && d.Year() >= 1950 && d.Year() <= 2100 {
			return d, "", true
		}
	}

	return time.Time{}, "", false
}

func civil(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
