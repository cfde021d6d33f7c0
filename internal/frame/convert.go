package frame

// convert.go turns messy cell text into typed values.
//
// These functions handle the reality of spreadsheet exports:
//   - Multiple date formats (US, EU, ISO, etc.)
//   - Currency symbols and thousand separators in numbers
//   - Various boolean representations (yes/no, true/false, 1/0)
//   - Excel formula prefixes (="value")
//
// Every Parse* function returns ok=false for missing or unparseable input.
// Callers decide whether that becomes a missing cell or an error.

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// numericRegex validates that a string is a plain decimal after cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would land more than this many years in the future
// are moved to the previous century.
var TwoDigitYearPivot = 20

// ISODate is the layout clean_date_column writes.
const ISODate = "2006-01-02"

var (
	isoLayouts = []string{
		"2006-01-02", "2006/01/02", "2006.01.02",
		"2006-01-02T15:04:05Z07:00", "2006-01-02 15:04:05",
		"Jan 2, 2006", "January 2, 2006", "2 Jan 2006", "2 January 2006",
		"20060102",
	}
	monthFirstLayouts = []string{
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
	}
	dayFirstLayouts = []string{
		"2/1/2006", "02/01/2006", "2-1-2006", "02-01-2006", "2.1.2006", "02.01.2006",
	}
	monthFirstShortLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
	dayFirstShortLayouts = []string{
		"2/1/06", "02/01/06", "2-1-06", "2.1.06", "02.01.06",
	}
)

// DefaultCurrencySymbols are stripped by ParseNumeric.
var DefaultCurrencySymbols = []string{"$", "€", "£", "₦"}

// ParseNumeric parses a decimal with optional currency symbols, thousands
// separators and accounting negatives like "(1,234.56)".
// The decimal is parsed exactly with pgtype.Numeric before conversion to float64.
func ParseNumeric(s string) (float64, bool) {
	return ParseNumericWith(s, DefaultCurrencySymbols, ",", ".")
}

// ParseNumericWith is ParseNumeric with explicit symbols and separators.
func ParseNumericWith(s string, symbols []string, thousands, decimal string) (float64, bool) {
	s = strings.TrimSpace(CleanCell(s))
	if s == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	for _, sym := range symbols {
		s = strings.ReplaceAll(s, sym, "")
	}
	if thousands != "" {
		s = strings.ReplaceAll(s, thousands, "")
	}
	if decimal != "" && decimal != "." {
		s = strings.ReplaceAll(s, decimal, ".")
	}
	s = strings.TrimSpace(s)

	if negative {
		if strings.HasPrefix(s, "-") {
			return 0, false
		}
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return 0, false
	}

	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		return 0, false
	}
	f, err := n.Float64Value()
	if err != nil || !f.Valid {
		return 0, false
	}
	return f.Float64, true
}

// FormatNumber renders a float without exponent or trailing zeros.
// NaN renders as the missing value.
func FormatNumber(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParseDate parses a date in any of the supported layouts, reading
// ambiguous numeric dates as month/day.
func ParseDate(s string) (time.Time, bool) {
	return parseDate(s, false)
}

// ParseDateDayFirst is ParseDate reading ambiguous numeric dates as day/month.
func ParseDateDayFirst(s string) (time.Time, bool) {
	return parseDate(s, true)
}

// 4-digit year layouts are tried first because they are unambiguous.
func parseDate(s string, dayFirst bool) (time.Time, bool) {
	s = strings.TrimSpace(CleanCell(s))
	if s == "" {
		return time.Time{}, false
	}

	long, short := monthFirstLayouts, monthFirstShortLayouts
	if dayFirst {
		long, short = dayFirstLayouts, dayFirstShortLayouts
	}

	for _, layouts := range [][]string{isoLayouts, long} {
		for _, layout := range layouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range short {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t, true
		}
	}

	return time.Time{}, false
}

// ParseBool accepts true/false, yes/no, t/f, y/n and 1/0 in any case.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(CleanCell(s))) {
	case "true", "t", "yes", "y", "1":
		return true, true
	case "false", "f", "no", "n", "0":
		return false, true
	default:
		return false, false
	}
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.Trim(s, `"'`)
}
