// Package features derives model-ready columns from a cleaned table.
//
// Date features split a date column into calendar parts, period keys and
// fiscal calendar fields. Categorical features shrink or one-hot encode label
// columns. Like the cleaning functions, each takes an [audit.Recorder] first,
// leaves its input untouched and records one event.
package features

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/JonMunkholm/fdakit/internal/audit"
	"github.com/JonMunkholm/fdakit/internal/frame"
)

var (
	// ErrUnknownPeriod is returned for a Period other than M, Q or Y.
	ErrUnknownPeriod = errors.New("unknown period")

	// ErrInvalidStartMonth is returned unless the fiscal start month is 1-12.
	ErrInvalidStartMonth = errors.New("fiscal year start month must be between 1 and 12")
)

// Period is the granularity of a period key.
type Period string

const (
	Monthly   Period = "M" // 202403
	Quarterly Period = "Q" // 2024Q1
	Yearly    Period = "Y" // 2024
)

// Key formats the period d falls in.
func (p Period) Key(d time.Time) (string, error) {
	switch p {
	case Monthly:
		return d.Format("200601"), nil
	case Quarterly:
		return fmt.Sprintf("%04dQ%d", d.Year(), quarter(d)), nil
	case Yearly:
		return d.Format("2006"), nil
	}
	return "", fmt.Errorf("%q: %w", p, ErrUnknownPeriod)
}

// DefaultFiscalStartMonth is April.
const DefaultFiscalStartMonth = 4

// DefaultLags are the shifts LagFeatures applies when none are given.
var DefaultLags = []int{1, 3, 12}

// dateSuffixes are the columns ExtractDateFeatures adds, in order.
var dateSuffixes = []string{"year", "quarter", "month", "day", "dayofweek", "dayofyear", "weekofyear"}

// ExtractDateFeatures adds <prefix>year, quarter, month, day, dayofweek
// (Monday=0), dayofyear and weekofyear (ISO week). An empty prefix means
// "<dateCol>_". Rows with a missing date get missing features.
func ExtractDateFeatures(rec audit.Recorder, f *frame.Frame, dateCol, prefix string) (*frame.Frame, error) {
	dates, err := f.Dates(dateCol)
	if err != nil {
		return nil, fmt.Errorf("extract_date_features: %w", err)
	}
	if prefix == "" {
		prefix = dateCol + "_"
	}

	cols := make([][]string, len(dateSuffixes))
	for i := range cols {
		cols[i] = make([]string, len(dates))
	}
	for r, d := range dates {
		if d.IsZero() {
			continue
		}
		_, week := d.ISOWeek()
		parts := []int{
			d.Year(),
			quarter(d),
			int(d.Month()),
			d.Day(),
			(int(d.Weekday()) + 6) % 7,
			d.YearDay(),
			week,
		}
		for i, p := range parts {
			cols[i][r] = strconv.Itoa(p)
		}
	}

	out := f.Clone()
	added := make([]string, len(dateSuffixes))
	for i, suffix := range dateSuffixes {
		added[i] = prefix + suffix
		if err := out.AddColumn(added[i], cols[i]); err != nil {
			return nil, fmt.Errorf("extract_date_features: %w", err)
		}
	}

	after := audit.Shape(out)
	after["added"] = added
	rec.Record("extract_date_features", withColumn(audit.Shape(f), dateCol), after)
	return out, nil
}

// CreatePeriodKeys adds keyName holding the period each date falls in.
// An empty keyName means "period_key".
func CreatePeriodKeys(rec audit.Recorder, f *frame.Frame, dateCol string, period Period, keyName string) (*frame.Frame, error) {
	if period == "" {
		period = Monthly
	}
	if _, err := period.Key(time.Time{}); err != nil {
		return nil, fmt.Errorf("create_period_keys: %w", err)
	}
	if keyName == "" {
		keyName = "period_key"
	}

	dates, err := f.Dates(dateCol)
	if err != nil {
		return nil, fmt.Errorf("create_period_keys: %w", err)
	}

	keys := make([]string, len(dates))
	periods := make(map[string]bool)
	for r, d := range dates {
		if d.IsZero() {
			continue
		}
		keys[r], _ = period.Key(d)
		periods[keys[r]] = true
	}

	out := f.Clone()
	if err := out.AddColumn(keyName, keys); err != nil {
		return nil, fmt.Errorf("create_period_keys: %w", err)
	}

	before := withColumn(audit.Shape(f), dateCol)
	before["period"] = string(period)
	after := audit.Shape(out)
	after["key"] = keyName
	after["periods"] = len(periods)
	rec.Record("create_period_keys", before, after)
	return out, nil
}

// CreateFiscalCalendarFeatures adds fiscal_year and fiscal_period for a
// fiscal year starting in startMonth. From startMonth onward the fiscal year
// is the calendar year plus one, so with an April start 2024-04-01 is
// FY2025 P1 and 2024-03-31 is FY2024 P12.
func CreateFiscalCalendarFeatures(rec audit.Recorder, f *frame.Frame, dateCol string, startMonth int) (*frame.Frame, error) {
	if startMonth < 1 || startMonth > 12 {
		return nil, fmt.Errorf("create_fiscal_calendar_features: %d: %w", startMonth, ErrInvalidStartMonth)
	}
	dates, err := f.Dates(dateCol)
	if err != nil {
		return nil, fmt.Errorf("create_fiscal_calendar_features: %w", err)
	}

	years := make([]string, len(dates))
	periods := make([]string, len(dates))
	for r, d := range dates {
		if d.IsZero() {
			continue
		}
		m := int(d.Month())
		fy := d.Year()
		if m >= startMonth {
			fy++
		}
		years[r] = strconv.Itoa(fy)
		periods[r] = strconv.Itoa((m-startMonth+12)%12 + 1)
	}

	out := f.Clone()
	if err := out.AddColumn("fiscal_year", years); err != nil {
		return nil, fmt.Errorf("create_fiscal_calendar_features: %w", err)
	}
	if err := out.AddColumn("fiscal_period", periods); err != nil {
		return nil, fmt.Errorf("create_fiscal_calendar_features: %w", err)
	}

	before := withColumn(audit.Shape(f), dateCol)
	before["fiscal_year_start_month"] = startMonth
	rec.Record("create_fiscal_calendar_features", before, audit.Shape(out))
	return out, nil
}

// LagFeatures sorts by groupCols then sortCol and adds <valueCol>_lag_<n>
// for each lag, holding the value n rows earlier within the same group.
// A negative lag looks ahead. Rows with no such neighbour, or with a missing
// group key, get a missing lag. Nil lags means DefaultLags.
func LagFeatures(rec audit.Recorder, f *frame.Frame, groupCols []string, sortCol, valueCol string, lags []int) (*frame.Frame, error) {
	if lags == nil {
		lags = DefaultLags
	}
	required := append(append([]string(nil), groupCols...), sortCol, valueCol)
	if _, err := f.Indexes(required); err != nil {
		return nil, fmt.Errorf("lag_features: %w", err)
	}

	out, err := f.SortBy(append(append([]string(nil), groupCols...), sortCol))
	if err != nil {
		return nil, fmt.Errorf("lag_features: %w", err)
	}
	gidx, _ := out.Indexes(groupCols)
	v, _ := out.Index(valueCol)

	// Sorting makes each group a contiguous run of rows.
	n := out.Len()
	groupStart := make([]int, n)
	for r := 0; r < n; r++ {
		if r > 0 && out.RowKey(r, gidx) == out.RowKey(r-1, gidx) {
			groupStart[r] = groupStart[r-1]
		} else {
			groupStart[r] = r
		}
	}
	groupEnd := make([]int, n)
	for r := n - 1; r >= 0; r-- {
		if r < n-1 && groupStart[r+1] == groupStart[r] {
			groupEnd[r] = groupEnd[r+1]
		} else {
			groupEnd[r] = r
		}
	}

	added := make([]string, 0, len(lags))
	for _, lag := range lags {
		col := fmt.Sprintf("%s_lag_%d", valueCol, lag)
		vals := make([]string, n)
		for r := 0; r < n; r++ {
			src := r - lag
			if src < groupStart[r] || src > groupEnd[r] || missingKey(out, r, gidx) {
				continue
			}
			vals[r] = out.Rows[src][v]
		}
		if err := out.AddColumn(col, vals); err != nil {
			return nil, fmt.Errorf("lag_features: %w", err)
		}
		added = append(added, col)
	}

	before := withColumn(audit.Shape(f), valueCol)
	before["group_by"] = append([]string(nil), groupCols...)
	before["sort_by"] = sortCol
	before["lags"] = append([]int(nil), lags...)
	after := audit.Shape(out)
	after["added"] = added
	rec.Record("lag_features", before, after)
	return out, nil
}

func missingKey(f *frame.Frame, row int, idx []int) bool {
	for _, i := range idx {
		if frame.IsMissing(f.Rows[row][i]) {
			return true
		}
	}
	return false
}

func quarter(d time.Time) int {
	return (int(d.Month())-1)/3 + 1
}

func withColumn(s audit.State, column string) audit.State {
	s["column"] = column
	return s
}
