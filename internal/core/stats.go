package core

import (
	"math"
	"sort"
)

// Mean returns the arithmetic mean of the non-NaN values, or NaN if there are none.
func Mean(values []float64) float64 { return mean(values) }

// Std returns the sample standard deviation (n-1) of the non-NaN values.
// Fewer than two values yields NaN.
func Std(values []float64) float64 { return sampleStd(values) }

// Quantile returns the q-th quantile of the non-NaN values using linear
// interpolation between closest ranks. q must be in [0, 1].
func Quantile(values []float64, q float64) float64 {
	sorted := sortedFinite(values)
	return quantileSorted(sorted, q)
}

func mean(values []float64) float64 {
	sum, n := 0.0, 0
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

func sampleStd(values []float64) float64 {
	m := mean(values)
	ss, n := 0.0, 0
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		d := v - m
		ss += d * d
		n++
	}
	if n < 2 {
		return math.NaN()
	}
	return math.Sqrt(ss / float64(n-1))
}

func median(values []float64) float64 {
	return Quantile(values, 0.5)
}

func sortedFinite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	sort.Float64s(out)
	return out
}

func quantileSorted(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// IQRBounds returns Q1 - k*IQR and Q3 + k*IQR over the non-NaN values.
// Both are NaN when there are no values.
func IQRBounds(values []float64, k float64) (lower, upper float64) {
	_, lower, upper = iqrMask(values, k)
	return lower, upper
}
