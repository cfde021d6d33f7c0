package core

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/fdakit/internal/audit"
	"github.com/JonMunkholm/fdakit/internal/frame"
)

// NumericOptions controls CleanNumericColumn.
type NumericOptions struct {
	Thousands           string // Removed before parsing
	Decimal             string // Replaced with '.'
	ParenthesesNegative bool   // "(789.01)" -> -789.01
	CurrencySymbols     []string
}

// DefaultNumericOptions reads "1,234.56" and "(789.01)".
func DefaultNumericOptions() NumericOptions {
	return NumericOptions{
		Thousands:           ",",
		Decimal:             ".",
		ParenthesesNegative: true,
	}
}

// CleanNumericColumn parses numeric strings. Cells that do not parse become NaN.
func CleanNumericColumn(rec audit.Recorder, values []string, opts NumericOptions) []float64 {
	out := make([]float64, len(values))
	failed := 0
	for i, v := range values {
		s := v
		if !opts.ParenthesesNegative && strings.HasPrefix(strings.TrimSpace(s), "(") {
			out[i] = math.NaN()
			if !isBlank(v) {
				failed++
			}
			continue
		}
		n, ok := frame.ParseNumericWith(s, opts.CurrencySymbols, opts.Thousands, opts.Decimal)
		if !ok {
			n = math.NaN()
			if !isBlank(v) {
				failed++
			}
		}
		out[i] = n
	}

	rec.Record("clean_numeric_column", seriesState(values),
		audit.State{"values": len(out), "unparseable": failed, "missing": countNaN(out)})
	return out
}

// DefaultTrueValues and DefaultFalseValues are compared case-insensitively.
var (
	DefaultTrueValues  = []string{"y", "yes", "true", "t", "1"}
	DefaultFalseValues = []string{"n", "no", "false", "f", "0"}
)

// CleanBooleanColumn maps boolean-like text to true/false. Values in neither
// list become an invalid (missing) pgtype.Bool. Nil lists use the defaults.
func CleanBooleanColumn(rec audit.Recorder, values []string, trueValues, falseValues []string) []pgtype.Bool {
	if trueValues == nil {
		trueValues = DefaultTrueValues
	}
	if falseValues == nil {
		falseValues = DefaultFalseValues
	}
	truthy := lowerSet(trueValues)
	falsy := lowerSet(falseValues)

	out := make([]pgtype.Bool, len(values))
	unmatched := 0
	for i, v := range values {
		key := strings.ToLower(strings.TrimSpace(frame.CleanCell(v)))
		switch {
		case truthy[key]:
			out[i] = pgtype.Bool{Bool: true, Valid: true}
		case falsy[key]:
			out[i] = pgtype.Bool{Bool: false, Valid: true}
		default:
			if key != "" {
				unmatched++
			}
		}
	}

	rec.Record("clean_boolean_column", seriesState(values),
		audit.State{"values": len(out), "unmatched": unmatched})
	return out
}

// CleanDateColumn parses dates, reading ambiguous numeric dates as day/month
// when dayFirst is set. Unparseable cells become an invalid pgtype.Date.
func CleanDateColumn(rec audit.Recorder, values []string, dayFirst bool) []pgtype.Date {
	parse := frame.ParseDate
	if dayFirst {
		parse = frame.ParseDateDayFirst
	}

	out := make([]pgtype.Date, len(values))
	failed := 0
	for i, v := range values {
		t, ok := parse(v)
		if !ok {
			if !isBlank(v) {
				failed++
			}
			continue
		}
		out[i] = pgtype.Date{Time: t, Valid: true}
	}

	rec.Record("clean_date_column", seriesState(values),
		audit.State{"values": len(out), "unparseable": failed, "day_first": dayFirst})
	return out
}

// DataType is a target type for ConvertDataTypes.
type DataType string

const (
	TypeNumeric DataType = "numeric"
	TypeBoolean DataType = "boolean"
	TypeDate    DataType = "date"
	TypeString  DataType = "string"
)

// ConvertErrors selects how ConvertDataTypes handles bad input.
type ConvertErrors string

const (
	ErrorsRaise  ConvertErrors = "raise"  // Unknown columns and unparseable cells fail
	ErrorsCoerce ConvertErrors = "coerce" // Unknown columns are skipped, bad cells become missing
)

var (
	// ErrUnknownType is returned for a DataType ConvertDataTypes does not know.
	ErrUnknownType = errors.New("unknown data type")

	// ErrConversion is returned under ErrorsRaise when a cell does not parse.
	ErrConversion = errors.New("value does not convert")

	// ErrInvalidErrorsMode is returned for a ConvertErrors other than raise or coerce.
	ErrInvalidErrorsMode = errors.New("errors must be raise or coerce")
)

// ConvertDataTypes rewrites each column in types to the canonical text of
// its type: plain decimals, true/false, or YYYY-MM-DD. Columns are converted
// in name order so the first failure reported is stable.
func ConvertDataTypes(rec audit.Recorder, f *frame.Frame, types map[string]DataType, mode ConvertErrors) (*frame.Frame, error) {
	if mode == "" {
		mode = ErrorsRaise
	}
	if mode != ErrorsRaise && mode != ErrorsCoerce {
		return nil, fmt.Errorf("convert_data_types: %q: %w", mode, ErrInvalidErrorsMode)
	}

	cols := make([]string, 0, len(types))
	for c := range types {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	out := f.Clone()
	converted := make(map[string]string, len(cols))
	var skipped []string
	coerced := 0
	for _, col := range cols {
		c, err := out.Index(col)
		if err != nil {
			if mode == ErrorsRaise {
				return nil, fmt.Errorf("convert_data_types: %w", err)
			}
			skipped = append(skipped, col)
			continue
		}

		convert, err := converterFor(types[col])
		if err != nil {
			return nil, fmt.Errorf("convert_data_types: %q %q: %w", col, types[col], err)
		}
		for r, row := range out.Rows {
			if isBlank(row[c]) {
				row[c] = ""
				continue
			}
			v, ok := convert(row[c])
			if !ok {
				if mode == ErrorsRaise {
					return nil, fmt.Errorf("convert_data_types: %q row %d value %q: %w", col, r+1, row[c], ErrConversion)
				}
				coerced++
			}
			row[c] = v
		}
		converted[col] = string(types[col])
	}

	after := audit.Shape(out)
	after["converted"] = converted
	after["coerced_to_missing"] = coerced
	if len(skipped) > 0 {
		after["skipped"] = skipped
	}
	before := audit.Shape(f)
	before["errors"] = string(mode)
	rec.Record("convert_data_types", before, after)
	return out, nil
}

func converterFor(t DataType) (func(string) (string, bool), error) {
	switch t {
	case TypeNumeric:
		return func(s string) (string, bool) {
			n, ok := frame.ParseNumeric(s)
			if !ok {
				return "", false
			}
			return frame.FormatNumber(n), true
		}, nil
	case TypeBoolean:
		return func(s string) (string, bool) {
			b, ok := frame.ParseBool(s)
			if !ok {
				return "", false
			}
			return fmt.Sprint(b), true
		}, nil
	case TypeDate:
		return func(s string) (string, bool) {
			d, ok := frame.ParseDate(s)
			if !ok {
				return "", false
			}
			return d.Format(frame.ISODate), true
		}, nil
	case TypeString:
		return func(s string) (string, bool) { return strings.TrimSpace(frame.CleanCell(s)), true }, nil
	}
	return nil, ErrUnknownType
}

// FormatNumbers renders numeric results back to cells.
func FormatNumbers(values []float64) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = frame.FormatNumber(v)
	}
	return out
}

// FormatBools renders boolean results as "true"/"false", missing as "".
func FormatBools(values []pgtype.Bool) []string {
	out := make([]string, len(values))
	for i, v := range values {
		if !v.Valid {
			continue
		}
		if v.Bool {
			out[i] = "true"
		} else {
			out[i] = "false"
		}
	}
	return out
}

// FormatDates renders date results as YYYY-MM-DD, missing as "".
func FormatDates(values []pgtype.Date) []string {
	out := make([]string, len(values))
	for i, v := range values {
		if v.Valid {
			out[i] = v.Time.Format(frame.ISODate)
		}
	}
	return out
}

func lowerSet(values []string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[strings.ToLower(strings.TrimSpace(v))] = true
	}
	return m
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
