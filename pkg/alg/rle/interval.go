// Package rle provides the run-length encoded container of a compressed
// 16-bit set: a sorted list of maximal runs of consecutive keys.
//
// A RunStore holds strictly increasing, non-adjacent, non-overlapping
// intervals. Set algebra (Or, Xor, And) is computed directly over the runs by
// a single ascending sweep of both operands and streamed to a Visitor, so a
// caller can materialize the result (RunWriter) or only observe it
// (CardinalityCounter).
package rle

import (
	"fmt"
	"math"
)

// MaxKey is the largest key representable in a store.
const MaxKey = math.MaxUint16

// fuseGap is the distance between the end of one run and the start of the
// next when exactly one key is missing between them.
const fuseGap = 2

// Interval is the closed range [Start, Start+Length]. A zero Length is a
// single key.
type Interval struct {
	Start  uint16
	Length uint16
}

// NewInterval creates an interval covering Start through Start+length.
func NewInterval(start, length uint16) Interval {
	return Interval{Start: start, Length: length}
}

// Singleton creates an interval holding only key.
func Singleton(key uint16) Interval {
	return Interval{Start: key}
}

// IntervalFromBounds creates an interval from inclusive bounds.
// It panics when end is below start.
func IntervalFromBounds(start, end uint16) Interval {
	if end < start {
		panic(fmt.Sprintf("rle: interval end %d below start %d", end, start))
	}

	return Interval{Start: start, Length: end - start}
}

// End returns the last key of the interval.
func (iv Interval) End() uint16 {
	return iv.Start + iv.Length
}

// Pair returns the inclusive bounds of the interval.
func (iv Interval) Pair() (start, end uint16) {
	return iv.Start, iv.End()
}

// Cardinality returns the number of keys in the interval.
func (iv Interval) Cardinality() int {
	return int(iv.Length) + 1
}

// Contains reports whether key lies within the interval.
func (iv Interval) Contains(key uint16) bool {
	return iv.CompareToIndex(key) == 0
}

// CompareToIndex orders the interval relative to key. The result is negative
// when the whole interval lies below key, zero when key is inside the
// interval (both bounds inclusive) and positive when the interval lies above
// key.
func (iv Interval) CompareToIndex(key uint16) int {
	switch {
	case key < iv.Start:
		return 1
	case key <= iv.End():
		return 0
	default:
		return -1
	}
}

// TryFuse merges iv with other when the two are separated by exactly one
// missing key, in either order. It returns false when other is nil or the
// gap is anything else.
func (iv Interval) TryFuse(other *Interval) (Interval, bool) {
	if other == nil {
		return Interval{}, false
	}

	thisStart, thisEnd := iv.Pair()
	otherStart, otherEnd := other.Pair()

	switch {
	case int(otherStart)-int(thisEnd) == fuseGap:
		return IntervalFromBounds(thisStart, otherEnd), true
	case int(thisStart)-int(otherEnd) == fuseGap:
		return IntervalFromBounds(otherStart, thisEnd), true
	default:
		return Interval{}, false
	}
}

// String formats the interval as [start,end].
func (iv Interval) String() string {
	return fmt.Sprintf("[%d,%d]", iv.Start, iv.End())
}

// spanEnd widens End so that end+1 arithmetic cannot wrap at MaxKey.
func (iv Interval) spanEnd() int {
	return int(iv.Start) + int(iv.Length)
}
