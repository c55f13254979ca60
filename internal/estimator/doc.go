// Package estimator fits the dimerization models to one dataset and
// estimates confidence bands by bootstrap refitting.
//
// An [Estimator] is one-shot. [New] validates the data and the immutable
// [Config] and derives the parameter vector shape, initial guess and bounds.
// [Estimator.Run] then
//
//  1. fits the full dataset (the point estimate),
//  2. builds a prediction grid per group over that group's observed range,
//  3. evaluates the model and dimer fractions at the point estimate,
//  4. refits every bootstrap resample,
//  5. reduces the refit curves to percentile bands at each grid point.
//
// A fit that fails to converge, on the full data or on any resample, fails
// the whole run.
//
// # Fixing parameters
//
// Fixing keeps the parameter in the vector and holds it within
// optim.FixEpsilon of its initial guess:
//
//	cfg := estimator.DefaultConfig(models.KindPaired).Fix("ka1")
package estimator
