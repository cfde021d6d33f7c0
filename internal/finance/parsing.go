// Package finance holds cleaning and checking functions for accounting data:
// currency and percentage parsing, entity name cleanup, and sign and balance
// rules.
package finance

import (
	"math"
	"strings"

	"github.com/JonMunkholm/fdakit/internal/audit"
	"github.com/JonMunkholm/fdakit/internal/frame"
)

// CurrencyOptions controls ParseCurrency.
type CurrencyOptions struct {
	Symbols   []string // Removed before parsing
	Thousands string
	Decimal   string
}

// DefaultCurrencyOptions strips £ $ € ₦ and reads "1,234.56".
func DefaultCurrencyOptions() CurrencyOptions {
	return CurrencyOptions{
		Symbols:   frame.DefaultCurrencySymbols,
		Thousands: ",",
		Decimal:   ".",
	}
}

// ParseCurrency parses "$1,234.56" and "€5,678.90" into numbers.
// Cells that do not parse become NaN.
func ParseCurrency(rec audit.Recorder, values []string, opts CurrencyOptions) []float64 {
	out := make([]float64, len(values))
	failed := 0
	for i, v := range values {
		n, ok := frame.ParseNumericWith(v, opts.Symbols, opts.Thousands, opts.Decimal)
		if !ok {
			n = math.NaN()
			if !frame.IsMissing(v) {
				failed++
			}
		}
		out[i] = n
	}

	rec.Record("parse_currency", seriesState(values),
		audit.State{"values": len(out), "parsed": len(out) - countNaN(out), "unparseable": failed})
	return out
}

// ParsePercentage parses "25.5%" and "0.255". With percentMeans100 set, a
// value carrying a percent sign is divided by 100, so both examples give 0.255.
func ParsePercentage(rec audit.Recorder, values []string, percentMeans100 bool) []float64 {
	out := make([]float64, len(values))
	scaled := 0
	for i, v := range values {
		s := strings.TrimSpace(v)
		hasPercent := strings.Contains(s, "%")
		s = strings.ReplaceAll(s, "%", "")

		n, ok := frame.ParseNumericWith(s, nil, "", ".")
		if !ok {
			out[i] = math.NaN()
			continue
		}
		if hasPercent && percentMeans100 {
			n /= 100
			scaled++
		}
		out[i] = n
	}

	rec.Record("parse_percentage", seriesState(values),
		audit.State{"values": len(out), "scaled": scaled, "missing": countNaN(out)})
	return out
}

// CleanAccountingNegative converts "(123.45)" to -123.45. Other values parse
// as plain numbers; anything else becomes NaN.
func CleanAccountingNegative(rec audit.Recorder, values []string) []float64 {
	out := make([]float64, len(values))
	negatives := 0
	for i, v := range values {
		s := strings.TrimSpace(v)
		if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
			negatives++
		}
		n, ok := frame.ParseNumericWith(s, nil, ",", ".")
		if !ok {
			n = math.NaN()
		}
		out[i] = n
	}

	rec.Record("clean_accounting_negative", seriesState(values),
		audit.State{"values": len(out), "negatives": negatives, "missing": countNaN(out)})
	return out
}

func seriesState(values []string) audit.State {
	missing := 0
	for _, v := range values {
		if frame.IsMissing(v) {
			missing++
		}
	}
	return audit.State{"values": len(values), "missing": missing}
}

func countNaN(values []float64) int {
	n := 0
	for _, v := range values {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}
