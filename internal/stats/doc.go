// Package stats holds the small statistical reductions shared by the
// estimators: numpy-compatible percentiles, percentile bands, two-group
// bootstrap effect sizes, significant-figure rounding and profile folding.
package stats
