package rle

import "github.com/Sumatoshi-tech/runstore/pkg/safeconv"

// Or streams the union of lhs and rhs to v.
//
// Runs are visited in ascending order without merging; the visitor is
// expected to fuse overlapping and adjacent runs, as RunWriter does.
func Or(lhs, rhs *RunStore, v Visitor) {
	switch {
	case lhs.IsFull(), rhs.IsEmpty():
		v.VisitRunStore(lhs)

		return
	case rhs.IsFull(), lhs.IsEmpty():
		v.VisitRunStore(rhs)

		return
	}

	for iv := range ascending(lhs.runs, rhs.runs) {
		v.VisitInterval(iv)
	}
}

// Xor streams the symmetric difference of lhs and rhs to v.
func Xor(lhs, rhs *RunStore, v Visitor) {
	switch {
	case rhs.IsEmpty():
		v.VisitRunStore(lhs)

		return
	case lhs.IsEmpty():
		v.VisitRunStore(rhs)

		return
	}

	var carry Interval

	pending := false

	for next := range ascending(lhs.runs, rhs.runs) {
		switch {
		case !pending:
			carry, pending = next, true
		case next == carry:
			pending = false
		case int(next.Start) > carry.spanEnd()+1:
			v.VisitInterval(carry)
			carry = next
		default:
			carry, pending = splitXor(carry, next, v)
		}
	}

	if pending {
		v.VisitInterval(carry)
	}
}

// splitXor resolves two touching or overlapping runs that are not identical.
// Pieces that no later run can reach are visited; the piece that may still
// meet a later run is returned as the new carry.
func splitXor(carry, next Interval, v Visitor) (Interval, bool) {
	lowStart, highStart := minMax(int(carry.Start), int(next.Start))
	lowEnd, highEnd := minMax(carry.spanEnd(), next.spanEnd())

	switch {
	case lowStart == highStart:
		return bounds(lowEnd+1, highEnd), true
	case lowEnd == highEnd:
		return bounds(lowStart, highStart-1), true
	default:
		v.VisitInterval(bounds(lowStart, highStart-1))

		return bounds(lowEnd+1, highEnd), true
	}
}

// And streams the intersection of lhs and rhs to v.
func And(lhs, rhs *RunStore, v Visitor) {
	switch {
	case lhs.IsFull():
		v.VisitRunStore(rhs)

		return
	case rhs.IsFull():
		v.VisitRunStore(lhs)

		return
	case lhs.IsEmpty(), rhs.IsEmpty():
		return
	}

	var carry Interval

	pending := false

	for next := range ascending(lhs.runs, rhs.runs) {
		switch {
		case !pending:
			carry, pending = next, true
		case next == carry:
			v.VisitInterval(next)

			pending = false
		case int(next.Start) > carry.spanEnd():
			carry = next
		default:
			carry, pending = splitAnd(carry, next, v)
		}
	}
}

// splitAnd visits the overlap of two runs and returns the tail of whichever
// run extends further, if any.
func splitAnd(carry, next Interval, v Visitor) (Interval, bool) {
	_, highStart := minMax(int(carry.Start), int(next.Start))
	lowEnd, highEnd := minMax(carry.spanEnd(), next.spanEnd())

	v.VisitInterval(bounds(highStart, lowEnd))

	if lowEnd == highEnd {
		return Interval{}, false
	}

	return bounds(lowEnd+1, highEnd), true
}

// bounds builds an interval from widened bounds already known to lie within
// [0, MaxKey].
func bounds(start, end int) Interval {
	return IntervalFromBounds(safeconv.MustIntToUint16(start), safeconv.MustIntToUint16(end))
}

func minMax(a, b int) (lo, hi int) {
	if a <= b {
		return a, b
	}

	return b, a
}
