package estimator

import (
	"fmt"
	"slices"

	"github.com/san-kum/dimerfit/internal/stats"
)

// Result is the output of a finished Run. It is not modified afterwards.
type Result struct {
	Model      string
	ParamNames []string
	Params     []float64
	// Ensemble holds one refit parameter vector per bootstrap iteration.
	Ensemble [][]float64
	Curves   []GroupCurve
	Metrics  map[string]float64
	Interval float64
	LogSpace bool
	Evals    int
}

// GroupCurve holds the prediction grid of one group and every curve and
// band evaluated on it. X, ObsX, ObsY and Fit are log10 values for
// log-space analyses; dimer curves are percentages.
type GroupCurve struct {
	Group    int
	Label    string
	Affinity float64

	ObsX []float64
	ObsY []float64

	X        []float64
	Fit      []float64
	FitLower []float64
	FitUpper []float64

	CytDimer      []float64
	CytDimerLower []float64
	CytDimerUpper []float64

	MemDimer      []float64
	MemDimerLower []float64
	MemDimerUpper []float64
}

func (r *Result) index(name string) (int, error) {
	i := slices.Index(r.ParamNames, name)
	if i < 0 {
		return 0, fmt.Errorf("unknown parameter %q, have %v", name, r.ParamNames)
	}
	return i, nil
}

// Param returns the point estimate of the named parameter.
func (r *Result) Param(name string) (float64, error) {
	i, err := r.index(name)
	if err != nil {
		return 0, err
	}
	return r.Params[i], nil
}

// ParamSamples returns the bootstrap distribution of the named parameter.
func (r *Result) ParamSamples(name string) ([]float64, error) {
	i, err := r.index(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(r.Ensemble))
	for j, p := range r.Ensemble {
		out[j] = p[i]
	}
	return out, nil
}

// ParamInterval returns the percentile interval of the named parameter.
func (r *Result) ParamInterval(name string) (float64, float64, error) {
	xs, err := r.ParamSamples(name)
	if err != nil {
		return 0, 0, err
	}
	lo, hi := stats.Interval(xs, r.Interval)
	return lo, hi, nil
}

// Curve returns the curve of the group with the given label.
func (r *Result) Curve(label string) (*GroupCurve, bool) {
	for i := range r.Curves {
		if r.Curves[i].Label == label {
			return &r.Curves[i], true
		}
	}
	return nil, false
}
