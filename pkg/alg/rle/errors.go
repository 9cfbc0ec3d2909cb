package rle

import (
	"errors"
	"fmt"
)

// ErrMonotonicityViolation is matched by every error returned when an
// interval sequence is not strictly increasing and non-adjacent.
var ErrMonotonicityViolation = errors.New("rle: runs must be strictly increasing and non-adjacent")

// MonotonicityError reports the first interval that breaks the ordering of a
// sequence passed to FromIntervals.
type MonotonicityError struct {
	// Index is the position of the offending interval in the input.
	Index int
}

// Error implements the error interface.
func (e *MonotonicityError) Error() string {
	return fmt.Sprintf("%v: violation at index %d", ErrMonotonicityViolation, e.Index)
}

// Unwrap returns ErrMonotonicityViolation so callers can use errors.Is.
func (e *MonotonicityError) Unwrap() error {
	return ErrMonotonicityViolation
}
