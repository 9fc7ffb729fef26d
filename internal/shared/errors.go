package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks input rejected before any write.
	ErrValidation = errors.New("validation failed")
	// ErrUnavailable signals the store could not be reached or timed out.
	ErrUnavailable = errors.New("store unavailable")
	// ErrConflict marks a request that repeats one already accepted.
	ErrConflict = errors.New("conflict")
)
