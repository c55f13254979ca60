package dataset

import "errors"

var (
	ErrMissingColumn = errors.New("dataset: missing column")
	ErrInvalidValue  = errors.New("dataset: invalid value")
	ErrUnknownRegion = errors.New("dataset: unknown region")
)
