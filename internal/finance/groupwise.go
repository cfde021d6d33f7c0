package finance

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/JonMunkholm/fdakit/internal/audit"
	"github.com/JonMunkholm/fdakit/internal/core"
	"github.com/JonMunkholm/fdakit/internal/features"
	"github.com/JonMunkholm/fdakit/internal/frame"
)

// ImputeByRule fills missing cells with a fixed value per column, e.g.
// {"region": "UNKNOWN", "discount": "0"}. Columns not in the table are
// skipped and reported in the audit event.
func ImputeByRule(rec audit.Recorder, f *frame.Frame, rules map[string]string) *frame.Frame {
	cols := make([]string, 0, len(rules))
	for c := range rules {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	out := f.Clone()
	filled := make(map[string]any, len(cols))
	var skipped []string
	for _, col := range cols {
		c, err := out.Index(col)
		if err != nil {
			skipped = append(skipped, col)
			continue
		}
		n := 0
		for _, row := range out.Rows {
			if frame.IsMissing(row[c]) {
				row[c] = rules[col]
				n++
			}
		}
		filled[col] = n
	}

	after := audit.State{"filled": filled}
	if len(skipped) > 0 {
		after["skipped"] = skipped
	}
	rec.Record("impute_by_rule", audit.Shape(f), after)
	return out
}

// DetectOutliersGroupwise adds an is_outlier column, judging each value
// against the other values of its group rather than the whole column.
// Rows with a missing value or group key are never outliers.
func DetectOutliersGroupwise(rec audit.Recorder, f *frame.Frame, valueCol string, groupCols []string, method core.OutlierMethod) (*frame.Frame, error) {
	if err := checkMethod(method); err != nil {
		return nil, fmt.Errorf("detect_outliers_groupwise: %w", err)
	}
	gidx, err := f.Indexes(groupCols)
	if err != nil {
		return nil, fmt.Errorf("detect_outliers_groupwise: %w", err)
	}
	values, err := numericColumn(f, valueCol)
	if err != nil {
		return nil, fmt.Errorf("detect_outliers_groupwise: %w", err)
	}

	keys := make([]string, f.Len())
	for r, row := range f.Rows {
		keys[r] = f.RowKey(r, gidx)
		for _, i := range gidx {
			if frame.IsMissing(row[i]) {
				keys[r] = ""
				values[r] = math.NaN()
				break
			}
		}
	}

	out, flagged, groups, err := flagByGroup(f, keys, values, method)
	if err != nil {
		return nil, fmt.Errorf("detect_outliers_groupwise: %w", err)
	}
	before := audit.Shape(f)
	before["column"] = valueCol
	before["group_by"] = append([]string(nil), groupCols...)
	before["method"] = string(method)
	rec.Record("detect_outliers_groupwise", before, audit.State{"groups": groups, "outliers": flagged})
	return out, nil
}

// SeasonalityAwareOutliers is DetectOutliersGroupwise with the period of
// dateCol as the group, so December is compared with December's other
// values rather than with the quiet months. Rows with a missing date are
// never outliers.
func SeasonalityAwareOutliers(rec audit.Recorder, f *frame.Frame, dateCol, valueCol string, period features.Period, method core.OutlierMethod) (*frame.Frame, error) {
	if period == "" {
		period = features.Monthly
	}
	if _, err := period.Key(time.Time{}); err != nil {
		return nil, fmt.Errorf("seasonality_aware_outliers: %w", err)
	}
	if err := checkMethod(method); err != nil {
		return nil, fmt.Errorf("seasonality_aware_outliers: %w", err)
	}
	dates, err := f.Dates(dateCol)
	if err != nil {
		return nil, fmt.Errorf("seasonality_aware_outliers: %w", err)
	}
	values, err := numericColumn(f, valueCol)
	if err != nil {
		return nil, fmt.Errorf("seasonality_aware_outliers: %w", err)
	}

	keys := make([]string, len(dates))
	for r, d := range dates {
		if d.IsZero() {
			values[r] = math.NaN()
			continue
		}
		keys[r], _ = period.Key(d)
	}

	out, flagged, groups, err := flagByGroup(f, keys, values, method)
	if err != nil {
		return nil, fmt.Errorf("seasonality_aware_outliers: %w", err)
	}
	before := audit.Shape(f)
	before["column"] = valueCol
	before["date_column"] = dateCol
	before["period"] = string(period)
	before["method"] = string(method)
	rec.Record("seasonality_aware_outliers", before, audit.State{"periods": groups, "outliers": flagged})
	return out, nil
}

func checkMethod(method core.OutlierMethod) error {
	switch method {
	case core.MethodIQR, core.MethodZScore, "":
		return nil
	}
	return fmt.Errorf("%q: %w", method, core.ErrUnknownMethod)
}

// flagByGroup applies the outlier rule within each group of keys and returns
// a copy of f with the flag column added. NaN values are never flagged.
func flagByGroup(f *frame.Frame, keys []string, values []float64, method core.OutlierMethod) (out *frame.Frame, flagged, groups int, err error) {
	members := make(map[string][]int)
	for r, v := range values {
		if !math.IsNaN(v) {
			members[keys[r]] = append(members[keys[r]], r)
		}
	}

	flags := make([]string, len(values))
	for r := range flags {
		flags[r] = "false"
	}
	for _, rows := range members {
		group := make([]float64, len(rows))
		for i, r := range rows {
			group[i] = values[r]
		}
		for i, r := range rows {
			if isOutlier(group[i], group, method) {
				flags[r] = "true"
				flagged++
			}
		}
	}

	out = f.Clone()
	if err := out.AddColumn(core.OutlierColumn, flags); err != nil {
		return nil, 0, 0, err
	}
	return out, flagged, len(members), nil
}

func isOutlier(v float64, group []float64, method core.OutlierMethod) bool {
	if method == core.MethodZScore {
		sd := core.Std(group)
		if math.IsNaN(sd) || sd == 0 {
			return false
		}
		return math.Abs(v-core.Mean(group))/sd > core.DefaultZThreshold
	}
	lower, upper := core.IQRBounds(group, core.DefaultIQRMultiplier)
	return v < lower || v > upper
}

// numericColumn parses a column, mapping missing cells to NaN.
func numericColumn(f *frame.Frame, col string) ([]float64, error) {
	vals, err := f.Column(col)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(vals))
	for r, s := range vals {
		if frame.IsMissing(s) {
			out[r] = math.NaN()
			continue
		}
		n, ok := frame.ParseNumeric(s)
		if !ok {
			return nil, fmt.Errorf("%q row %d value %q: %w", col, r+1, s, core.ErrNotNumeric)
		}
		out[r] = n
	}
	return out, nil
}
