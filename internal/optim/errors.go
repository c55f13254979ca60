package optim

import "errors"

var (
	// ErrNoConvergence indicates the evaluation budget ran out before any
	// convergence criterion was met.
	ErrNoConvergence = errors.New("optim: fit did not converge within evaluation budget")

	// ErrBadBounds indicates malformed bounds or an initial guess outside them.
	ErrBadBounds = errors.New("optim: invalid bounds")

	// ErrDimensionMismatch indicates observations and predictions differ in length.
	ErrDimensionMismatch = errors.New("optim: dimension mismatch between model and data")
)
