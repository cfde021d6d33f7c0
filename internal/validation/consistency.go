package validation

import (
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/fdakit/internal/audit"
	"github.com/JonMunkholm/fdakit/internal/frame"
)

// ErrUnknownFrequency is returned by CheckTimeContinuity for a Frequency not
// listed below.
var ErrUnknownFrequency = errors.New("unknown frequency")

// Frequency is the spacing CheckTimeContinuity expects between dates.
type Frequency string

const (
	Daily   Frequency = "D"
	Weekly  Frequency = "W" // Every 7 days from the earliest date
	Monthly Frequency = "M" // Every calendar month; the day is ignored
)

// CheckTimeContinuity returns the dates missing from dateCol between its
// earliest and latest value at the given frequency. Monthly gaps are reported
// as the first of the month. Fewer than two dates yield no gaps.
func CheckTimeContinuity(rec audit.Recorder, f *frame.Frame, dateCol string, freq Frequency) ([]time.Time, error) {
	if freq == "" {
		freq = Daily
	}
	if freq != Daily && freq != Weekly && freq != Monthly {
		return nil, fmt.Errorf("check_time_continuity: %q: %w", freq, ErrUnknownFrequency)
	}
	dates, err := f.Dates(dateCol)
	if err != nil {
		return nil, fmt.Errorf("check_time_continuity: %w", err)
	}

	bucket := func(t time.Time) time.Time {
		y, m, d := t.Date()
		if freq == Monthly {
			d = 1
		}
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	present := make(map[time.Time]bool)
	var first, last time.Time
	for _, d := range dates {
		if d.IsZero() {
			continue
		}
		b := bucket(d)
		if len(present) == 0 || b.Before(first) {
			first = b
		}
		if len(present) == 0 || b.After(last) {
			last = b
		}
		present[b] = true
	}

	var missing []time.Time
	if len(present) >= 2 {
		for d := first; !d.After(last); d = step(d, freq) {
			if !present[d] {
				missing = append(missing, d)
			}
		}
	}

	rec.Record("check_time_continuity",
		audit.State{"rows": f.Len(), "column": dateCol, "frequency": string(freq)},
		audit.State{"distinct_dates": len(present), "gaps": len(missing)},
	)
	return missing, nil
}

func step(t time.Time, freq Frequency) time.Time {
	switch freq {
	case Weekly:
		return t.AddDate(0, 0, 7)
	case Monthly:
		return t.AddDate(0, 1, 0)
	}
	return t.AddDate(0, 0, 1)
}

// Consistency issue kinds.
const (
	IssueHighNull    = "high_null"
	IssueConstant    = "constant_values"
	IssueMostlyZeros = "mostly_zeros"
)

const (
	highNullPercent   = 50.0
	mostlyZeroPercent = 90.0
)

// Issue is one finding of CheckDataConsistency.
type Issue struct {
	Column     string  `json:"column"`
	Issue      string  `json:"issue"`
	Percentage float64 `json:"percentage,omitempty"`
	Value      string  `json:"value,omitempty"`
}

// CheckDataConsistency looks for columns that are more than half missing,
// hold a single distinct value, or are numeric and more than 90% zeros.
func CheckDataConsistency(rec audit.Recorder, f *frame.Frame) []Issue {
	var issues []Issue
	for c, name := range f.Columns {
		if f.Len() == 0 {
			break
		}
		missing, zeros := 0, 0
		numeric := true
		distinct := make(map[string]bool)
		var firstValue string
		for _, row := range f.Rows {
			v := row[c]
			if frame.IsMissing(v) {
				missing++
				continue
			}
			if len(distinct) == 0 {
				firstValue = v
			}
			distinct[v] = true
			if n, ok := frame.ParseNumeric(v); !ok {
				numeric = false
			} else if n == 0 {
				zeros++
			}
		}

		rows := float64(f.Len())
		if pct := float64(missing) / rows * 100; pct > highNullPercent {
			issues = append(issues, Issue{Column: name, Issue: IssueHighNull, Percentage: pct})
		}
		if len(distinct) == 1 {
			issues = append(issues, Issue{Column: name, Issue: IssueConstant, Value: firstValue})
		}
		if numeric && len(distinct) > 0 && float64(zeros) > rows*mostlyZeroPercent/100 {
			issues = append(issues, Issue{Column: name, Issue: IssueMostlyZeros, Percentage: mostlyZeroPercent})
		}
	}

	byKind := make(map[string]any)
	for _, is := range issues {
		n, _ := byKind[is.Issue].(int)
		byKind[is.Issue] = n + 1
	}
	rec.Record("check_data_consistency", audit.Shape(f), audit.State{"issues": len(issues), "by_kind": byKind})
	return issues
}
