package stats

import (
	"fmt"
	"math"
	"sort"
)

// Percentile returns the p-th percentile (0 <= p <= 100) of xs using linear
// interpolation between closest ranks, index = p/100 * (n-1). xs is not
// modified.
func Percentile(xs []float64, p float64) float64 {
	n := len(xs)
	if n == 0 {
		return math.NaN()
	}
	sorted := make([]float64, n)
	copy(sorted, xs)
	sort.Float64s(sorted)
	return percentileSorted(sorted, p)
}

func percentileSorted(sorted []float64, p float64) float64 {
	n := len(sorted)
	pos := p / 100 * float64(n-1)
	lo := int(math.Floor(pos))
	if lo < 0 {
		return sorted[0]
	}
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// IntervalPercentiles converts a central interval width in percent (e.g. 95)
// to its lower and upper percentiles (2.5, 97.5).
func IntervalPercentiles(interval float64) (float64, float64) {
	return (100 - interval) / 2, 50 + interval/2
}

// Interval returns the central percentile interval of xs.
func Interval(xs []float64, interval float64) (float64, float64) {
	lo, hi := IntervalPercentiles(interval)
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	if len(sorted) == 0 {
		return math.NaN(), math.NaN()
	}
	return percentileSorted(sorted, lo), percentileSorted(sorted, hi)
}

// Bands reduces an ensemble of curves (one row per member, equal lengths) to
// per-point lower and upper percentile curves.
func Bands(curves [][]float64, interval float64) ([]float64, []float64, error) {
	if len(curves) == 0 {
		return nil, nil, fmt.Errorf("stats: no curves to reduce")
	}
	width := len(curves[0])
	lower := make([]float64, width)
	upper := make([]float64, width)
	column := make([]float64, len(curves))

	for j := 0; j < width; j++ {
		for i, c := range curves {
			if len(c) != width {
				return nil, nil, fmt.Errorf("stats: curve %d has %d points, want %d", i, len(c), width)
			}
			column[i] = c[j]
		}
		lower[j], upper[j] = Interval(column, interval)
	}
	return lower, upper, nil
}

// ValidInterval reports whether interval is a usable width in percent.
func ValidInterval(interval float64) bool {
	return interval > 0 && interval < 100
}
