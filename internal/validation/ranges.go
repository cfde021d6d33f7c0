package validation

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/JonMunkholm/fdakit/internal/audit"
	"github.com/JonMunkholm/fdakit/internal/frame"
)

// ErrInvalidRange is returned for bounds that do not parse or where Min > Max.
var ErrInvalidRange = errors.New("invalid range")

// Range is an inclusive [Min, Max] bound. Both ends are numbers, or both are
// dates in any layout frame.ParseDate accepts.
type Range struct {
	Min string
	Max string
}

type bound struct {
	lo, hi float64
	dates  bool
}

func (r Range) resolve() (bound, error) {
	if lo, ok := frame.ParseNumeric(r.Min); ok {
		hi, ok := frame.ParseNumeric(r.Max)
		if !ok {
			return bound{}, fmt.Errorf("max %q is not a number: %w", r.Max, ErrInvalidRange)
		}
		if lo > hi {
			return bound{}, fmt.Errorf("min %s > max %s: %w", r.Min, r.Max, ErrInvalidRange)
		}
		return bound{lo: lo, hi: hi}, nil
	}

	lo, ok1 := frame.ParseDate(r.Min)
	hi, ok2 := frame.ParseDate(r.Max)
	if !ok1 || !ok2 {
		return bound{}, fmt.Errorf("[%q, %q] is neither numeric nor dates: %w", r.Min, r.Max, ErrInvalidRange)
	}
	if lo.After(hi) {
		return bound{}, fmt.Errorf("min %s > max %s: %w", r.Min, r.Max, ErrInvalidRange)
	}
	return bound{lo: dayNumber(lo), hi: dayNumber(hi), dates: true}, nil
}

func (b bound) violated(cell string) bool {
	if frame.IsMissing(cell) {
		return false
	}
	var v float64
	if b.dates {
		t, ok := frame.ParseDate(cell)
		if !ok {
			return true
		}
		v = dayNumber(t)
	} else {
		n, ok := frame.ParseNumeric(cell)
		if !ok {
			return true
		}
		v = n
	}
	return v < b.lo || v > b.hi
}

func dayNumber(t time.Time) float64 {
	return float64(t.Unix()) / 86400
}

// ValidateDataRanges marks cells outside their column's range. Missing cells
// pass; cells that do not parse as the range's type fail.
func ValidateDataRanges(rec audit.Recorder, f *frame.Frame, rules map[string]Range) (Violations, error) {
	cols := make([]string, 0, len(rules))
	for c := range rules {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	bounds := make(map[string]bound, len(rules))
	idx := make(map[string]int, len(rules))
	for _, c := range cols {
		i, err := f.Index(c)
		if err != nil {
			return Violations{}, fmt.Errorf("validate_data_ranges: %w", err)
		}
		b, err := rules[c].resolve()
		if err != nil {
			return Violations{}, fmt.Errorf("validate_data_ranges: %q: %w", c, err)
		}
		bounds[c] = b
		idx[c] = i
	}

	v := newViolations(cols, f.Len())
	for _, c := range cols {
		b, i, flags := bounds[c], idx[c], v.Flags[c]
		for r, row := range f.Rows {
			flags[r] = b.violated(row[i])
		}
	}

	rec.Record("validate_data_ranges",
		audit.State{"rows": f.Len(), "columns": cols},
		audit.State{"violations": v.counts(), "total": v.Total()},
	)
	return v, nil
}
