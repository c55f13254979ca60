package estimator

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig indicates a configuration rejected at construction.
	ErrInvalidConfig = errors.New("estimator: invalid configuration")

	// ErrInsufficientData indicates a dataset or group too small to fit.
	ErrInsufficientData = errors.New("estimator: insufficient data")

	// ErrAlreadyRun indicates Run was called on a finished estimator.
	ErrAlreadyRun = errors.New("estimator: already run")
)

// FitError reports the bootstrap iteration whose refit failed.
type FitError struct {
	Iteration int
	Wrapped   error
}

func (e *FitError) Error() string {
	return fmt.Sprintf("bootstrap iteration %d: %v", e.Iteration, e.Wrapped)
}

func (e *FitError) Unwrap() error {
	return e.Wrapped
}
