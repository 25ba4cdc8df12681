package entity

import "errors"

var (
	// ErrInvalidInput marks an empty or malformed frame list. Fatal, raised
	// before Stage 1 runs.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig marks window size or overlap outside the allowed
	// bounds. Fatal, raised before windowing.
	ErrInvalidConfig = errors.New("invalid config")
)
