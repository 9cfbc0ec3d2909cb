// Package safeconv provides integer conversions into the 16-bit key space.
//
// The Must variants panic on overflow and are meant for values whose range is
// already guaranteed by construction. The checked variants return an error.
package safeconv

import (
	"errors"
	"fmt"
	"math"
)

// MaxKey is the largest value representable in the key space.
const MaxKey = math.MaxUint16

// ErrKeyOutOfRange is returned when a value does not fit in the key space.
var ErrKeyOutOfRange = errors.New("safeconv: key out of range")

// IntToUint16 converts v to uint16, returning ErrKeyOutOfRange when v is
// negative or above MaxKey.
func IntToUint16(v int) (uint16, error) {
	if v < 0 || v > MaxKey {
		return 0, fmt.Errorf("%w: %d not in [0, %d]", ErrKeyOutOfRange, v, MaxKey)
	}

	return uint16(v), nil
}

// MustIntToUint16 converts int to uint16, panics on bounds violation.
// Use only when bounds violations are logically impossible.
func MustIntToUint16(v int) uint16 {
	if v < 0 || v > MaxKey {
		panic("safeconv: int to uint16 out of bounds")
	}

	return uint16(v)
}
