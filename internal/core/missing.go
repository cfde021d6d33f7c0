package core

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/JonMunkholm/fdakit/internal/audit"
	"github.com/JonMunkholm/fdakit/internal/frame"
)

// ErrUnknownStrategy is returned by FillMissing for an unsupported strategy.
var ErrUnknownStrategy = errors.New("unknown fill strategy")

// DefaultPlaceholders are the cell values treated as missing, compared
// case-insensitively after trimming.
var DefaultPlaceholders = []string{"", "na", "n/a", "null", "none", "nan", "-"}

// CoerceEmptyToNull blanks every cell that matches a placeholder.
// A nil placeholders slice uses DefaultPlaceholders.
func CoerceEmptyToNull(rec audit.Recorder, f *frame.Frame, placeholders []string) *frame.Frame {
	if placeholders == nil {
		placeholders = DefaultPlaceholders
	}
	set := make(map[string]bool, len(placeholders))
	for _, p := range placeholders {
		set[strings.ToLower(strings.TrimSpace(p))] = true
	}

	out := f.Clone()
	beforeMissing := countMissing(f)
	coerced := 0
	for _, row := range out.Rows {
		for c, cell := range row {
			if cell == "" {
				continue
			}
			if set[strings.ToLower(strings.TrimSpace(cell))] {
				row[c] = ""
				coerced++
			}
		}
	}

	before := audit.Shape(f)
	before["missing"] = beforeMissing
	after := audit.Shape(out)
	after["missing"] = countMissing(out)
	after["coerced"] = coerced
	rec.Record("coerce_empty_to_null", before, after)
	return out
}

// FillStrategy selects how FillMissing chooses replacement values.
type FillStrategy string

const (
	FillConstant FillStrategy = "constant" // Use FillOptions.Value
	FillForward  FillStrategy = "ffill"    // Carry the last value down
	FillBackward FillStrategy = "bfill"    // Carry the next value up
	FillMode     FillStrategy = "mode"     // Most frequent value; ties go to the first seen
	FillMean     FillStrategy = "mean"     // Numeric columns only
	FillMedian   FillStrategy = "median"   // Numeric columns only
)

// FillOptions controls FillMissing.
type FillOptions struct {
	Strategy FillStrategy
	Value    string   // Replacement for FillConstant
	Columns  []string // Empty means every column
}

// FillMissing replaces missing cells. Mean and median skip columns that hold
// any non-numeric value. Forward and backward fill leave leading or trailing
// gaps that have no neighbour.
func FillMissing(rec audit.Recorder, f *frame.Frame, opts FillOptions) (*frame.Frame, error) {
	strategy := opts.Strategy
	if strategy == "" {
		strategy = FillConstant
	}

	var idx []int
	if len(opts.Columns) == 0 {
		idx = make([]int, len(f.Columns))
		for i := range idx {
			idx[i] = i
		}
	} else {
		var err error
		if idx, err = f.Indexes(opts.Columns); err != nil {
			return nil, fmt.Errorf("fill_missing: %w", err)
		}
	}

	out := f.Clone()
	filled := 0
	for _, c := range idx {
		n, err := fillColumn(out, c, strategy, opts.Value)
		if err != nil {
			return nil, err
		}
		filled += n
	}

	before := audit.Shape(f)
	before["missing"] = countMissing(f)
	after := audit.Shape(out)
	after["missing"] = countMissing(out)
	after["filled"] = filled
	after["strategy"] = string(strategy)
	rec.Record("fill_missing", before, after)
	return out, nil
}

func fillColumn(f *frame.Frame, c int, strategy FillStrategy, value string) (int, error) {
	filled := 0
	set := func(r int, v string) {
		if v != "" {
			f.Rows[r][c] = v
			filled++
		}
	}

	switch strategy {
	case FillConstant:
		for r, row := range f.Rows {
			if frame.IsMissing(row[c]) {
				set(r, value)
			}
		}
	case FillForward:
		last := ""
		for r, row := range f.Rows {
			if frame.IsMissing(row[c]) {
				set(r, last)
			} else {
				last = row[c]
			}
		}
	case FillBackward:
		next := ""
		for r := len(f.Rows) - 1; r >= 0; r-- {
			if frame.IsMissing(f.Rows[r][c]) {
				set(r, next)
			} else {
				next = f.Rows[r][c]
			}
		}
	case FillMode:
		mode := modeOf(f, c)
		for r, row := range f.Rows {
			if frame.IsMissing(row[c]) {
				set(r, mode)
			}
		}
	case FillMean, FillMedian:
		nums, ok := numericColumn(f, c)
		if !ok {
			return 0, nil
		}
		var v float64
		if strategy == FillMean {
			v = mean(nums)
		} else {
			v = median(nums)
		}
		if math.IsNaN(v) {
			return 0, nil
		}
		for r, row := range f.Rows {
			if frame.IsMissing(row[c]) {
				set(r, frame.FormatNumber(v))
			}
		}
	default:
		return 0, fmt.Errorf("%q: %w", strategy, ErrUnknownStrategy)
	}
	return filled, nil
}

func modeOf(f *frame.Frame, c int) string {
	counts := make(map[string]int)
	var order []string
	for _, row := range f.Rows {
		v := row[c]
		if frame.IsMissing(v) {
			continue
		}
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}

	best, bestCount := "", 0
	for _, v := range order {
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best
}

// numericColumn parses every non-missing cell of column c. ok is false when
// any cell fails to parse.
func numericColumn(f *frame.Frame, c int) ([]float64, bool) {
	out := make([]float64, 0, len(f.Rows))
	for _, row := range f.Rows {
		if frame.IsMissing(row[c]) {
			continue
		}
		v, ok := frame.ParseNumeric(row[c])
		if !ok {
			return nil, false
		}
		out = append(out, v)
	}
	return out, true
}

func countMissing(f *frame.Frame) int {
	n := 0
	for _, row := range f.Rows {
		for _, cell := range row {
			if frame.IsMissing(cell) {
				n++
			}
		}
	}
	return n
}
