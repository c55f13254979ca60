// Package bootstrap draws resampled datasets and collects a statistic per
// resample.
//
// Resampling is uniform with replacement. A [Dataset] is a set of
// equal-length columns resampled with one shared index draw (corresponding
// rows stay together); distinct datasets get independent draws. For
// per-genotype analyses, [ResampleGroups] redraws every group within itself
// so group sizes are preserved.
//
// The [Engine] owns the random source. Iteration seeds are drawn from it
// in order before any work starts, so output is reproducible for a given
// seed and does not depend on the number of workers.
package bootstrap
