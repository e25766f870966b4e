package pipeline

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrPoolClosed is returned when tasks are submitted after Release.
	ErrPoolClosed = errors.New("worker pool is released")
)
