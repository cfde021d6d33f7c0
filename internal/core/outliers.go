package core

import (
	"errors"
	"fmt"
	"math"

	"github.com/JonMunkholm/fdakit/internal/audit"
	"github.com/JonMunkholm/fdakit/internal/frame"
)

var (
	// ErrNotNumeric is returned when a column holds a value that is not a number.
	ErrNotNumeric = errors.New("column is not numeric")

	// ErrInvalidQuantile is returned unless 0 <= lower <= upper <= 1.
	ErrInvalidQuantile = errors.New("quantiles must satisfy 0 <= lower <= upper <= 1")

	// ErrUnknownMethod is returned by FlagOutliers for a method other than iqr or zscore.
	ErrUnknownMethod = errors.New("unknown outlier method")

	// ErrInvalidLimits is returned by WinsorizeOutliers unless both limits are in [0, 0.5].
	ErrInvalidLimits = errors.New("winsorize limits must be between 0 and 0.5")
)

// OutlierMethod selects the rule FlagOutliers applies.
type OutlierMethod string

const (
	MethodIQR    OutlierMethod = "iqr"
	MethodZScore OutlierMethod = "zscore"
)

const (
	// DefaultIQRMultiplier is the k in [Q1 - k*IQR, Q3 + k*IQR].
	DefaultIQRMultiplier = 1.5

	// DefaultZThreshold is the |z| above which a value is an outlier.
	DefaultZThreshold = 3.0

	// OutlierColumn is the flag column FlagOutliers adds.
	OutlierColumn = "is_outlier"
)

// DetectOutliersIQR marks values outside [Q1 - k*IQR, Q3 + k*IQR].
// NaN is never an outlier.
func DetectOutliersIQR(rec audit.Recorder, values []float64, k float64) []bool {
	mask, lower, upper := iqrMask(values, k)
	rec.Record("detect_outliers_iqr",
		audit.State{"values": len(values), "k": k},
		audit.State{"outliers": countTrue(mask), "lower": lower, "upper": upper},
	)
	return mask
}

// RemoveOutliersIQR drops rows whose column value is an IQR outlier.
// Rows with a missing value are kept.
func RemoveOutliersIQR(rec audit.Recorder, f *frame.Frame, column string, k float64) (*frame.Frame, error) {
	values, err := numericValues(f, column)
	if err != nil {
		return nil, fmt.Errorf("remove_outliers_iqr: %w", err)
	}

	mask, _, _ := iqrMask(values, k)
	out := f.Filter(invert(mask))

	after := audit.Shape(out)
	after["removed"] = f.Len() - out.Len()
	rec.Record("remove_outliers_iqr", withColumn(audit.Shape(f), column), after)
	return out, nil
}

// RemoveOutliersZScore drops rows where |value - mean| / std > z.
// Rows with a missing value are kept, and a column with zero spread loses nothing.
func RemoveOutliersZScore(rec audit.Recorder, f *frame.Frame, column string, z float64) (*frame.Frame, error) {
	values, err := numericValues(f, column)
	if err != nil {
		return nil, fmt.Errorf("remove_outliers_zscore: %w", err)
	}

	mask := zMask(values, z)
	out := f.Filter(invert(mask))

	after := audit.Shape(out)
	after["removed"] = f.Len() - out.Len()
	before := withColumn(audit.Shape(f), column)
	before["z"] = z
	rec.Record("remove_outliers_zscore", before, after)
	return out, nil
}

// FlagOutliers adds an is_outlier column of "true"/"false" instead of
// dropping rows. The iqr method uses k=1.5, zscore uses |z| > 3.
func FlagOutliers(rec audit.Recorder, f *frame.Frame, column string, method OutlierMethod) (*frame.Frame, error) {
	values, err := numericValues(f, column)
	if err != nil {
		return nil, fmt.Errorf("flag_outliers: %w", err)
	}

	var mask []bool
	switch method {
	case MethodIQR, "":
		mask, _, _ = iqrMask(values, DefaultIQRMultiplier)
	case MethodZScore:
		mask = zMask(values, DefaultZThreshold)
	default:
		return nil, fmt.Errorf("flag_outliers: %q: %w", method, ErrUnknownMethod)
	}

	flags := make([]string, len(mask))
	for i, m := range mask {
		if m {
			flags[i] = "true"
		} else {
			flags[i] = "false"
		}
	}

	out := f.Clone()
	if err := out.AddColumn(OutlierColumn, flags); err != nil {
		return nil, fmt.Errorf("flag_outliers: %w", err)
	}

	after := audit.Shape(out)
	after["outliers"] = countTrue(mask)
	rec.Record("flag_outliers", withColumn(audit.Shape(f), column), after)
	return out, nil
}

// CapOutliers clips the column to its lower and upper quantiles.
// Only clipped cells are rewritten; the rest keep their original text.
func CapOutliers(rec audit.Recorder, f *frame.Frame, column string, lower, upper float64) (*frame.Frame, error) {
	if !(lower >= 0 && lower <= upper && upper <= 1) {
		return nil, fmt.Errorf("cap_outliers: [%g, %g]: %w", lower, upper, ErrInvalidQuantile)
	}
	values, err := numericValues(f, column)
	if err != nil {
		return nil, fmt.Errorf("cap_outliers: %w", err)
	}

	out, capped := clipColumn(f, column, values, lower, upper)

	before := withColumn(audit.Shape(f), column)
	before["lower_quantile"] = lower
	before["upper_quantile"] = upper
	after := audit.Shape(out)
	after["capped"] = capped
	rec.Record("cap_outliers", before, after)
	return out, nil
}

// WinsorizeOutliers clips the bottom lowerLimit and top upperLimit fractions
// of the column to the values at those quantiles. Each limit must be in [0, 0.5].
func WinsorizeOutliers(rec audit.Recorder, f *frame.Frame, column string, lowerLimit, upperLimit float64) (*frame.Frame, error) {
	if !(lowerLimit >= 0 && lowerLimit <= 0.5 && upperLimit >= 0 && upperLimit <= 0.5) {
		return nil, fmt.Errorf("winsorize_outliers: (%g, %g): %w", lowerLimit, upperLimit, ErrInvalidLimits)
	}
	values, err := numericValues(f, column)
	if err != nil {
		return nil, fmt.Errorf("winsorize_outliers: %w", err)
	}

	out, capped := clipColumn(f, column, values, lowerLimit, 1-upperLimit)

	before := withColumn(audit.Shape(f), column)
	before["limits"] = []float64{lowerLimit, upperLimit}
	after := audit.Shape(out)
	after["winsorized"] = capped
	rec.Record("winsorize_outliers", before, after)
	return out, nil
}

// clipColumn returns a copy of f with column clipped to the values at the
// lower and upper quantiles, and the number of cells rewritten.
func clipColumn(f *frame.Frame, column string, values []float64, lower, upper float64) (*frame.Frame, int) {
	sorted := sortedFinite(values)
	lo := quantileSorted(sorted, lower)
	hi := quantileSorted(sorted, upper)

	out := f.Clone()
	c, _ := out.Index(column)
	capped := 0
	for r, v := range values {
		if math.IsNaN(v) {
			continue
		}
		clipped := math.Min(math.Max(v, lo), hi)
		if clipped != v {
			out.Rows[r][c] = frame.FormatNumber(clipped)
			capped++
		}
	}
	return out, capped
}

func iqrMask(values []float64, k float64) (mask []bool, lower, upper float64) {
	sorted := sortedFinite(values)
	mask = make([]bool, len(values))
	if len(sorted) == 0 {
		return mask, math.NaN(), math.NaN()
	}

	q1 := quantileSorted(sorted, 0.25)
	q3 := quantileSorted(sorted, 0.75)
	iqr := q3 - q1
	lower = q1 - k*iqr
	upper = q3 + k*iqr

	for i, v := range values {
		mask[i] = !math.IsNaN(v) && (v < lower || v > upper)
	}
	return mask, lower, upper
}

func zMask(values []float64, z float64) []bool {
	mask := make([]bool, len(values))
	m := mean(values)
	sd := sampleStd(values)
	if math.IsNaN(sd) || sd == 0 {
		return mask
	}
	for i, v := range values {
		mask[i] = !math.IsNaN(v) && math.Abs(v-m)/sd > z
	}
	return mask
}

// numericValues parses a column, mapping missing cells to NaN.
func numericValues(f *frame.Frame, column string) ([]float64, error) {
	c, err := f.Index(column)
	if err != nil {
		return nil, err
	}
	out := make([]float64, f.Len())
	for r, row := range f.Rows {
		if frame.IsMissing(row[c]) {
			out[r] = math.NaN()
			continue
		}
		v, ok := frame.ParseNumeric(row[c])
		if !ok {
			return nil, fmt.Errorf("%q row %d value %q: %w", column, r+1, row[c], ErrNotNumeric)
		}
		out[r] = v
	}
	return out, nil
}

func withColumn(s audit.State, column string) audit.State {
	s["column"] = column
	return s
}
