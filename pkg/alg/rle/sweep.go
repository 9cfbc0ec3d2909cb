package rle

import "iter"

// ascending merges two ascending run sequences into one sequence ordered by
// Start. On equal starts the run from lhs comes first. The sequence only
// reads the slices and may be ranged over again from the beginning.
func ascending(lhs, rhs []Interval) iter.Seq[Interval] {
	return func(yield func(Interval) bool) {
		i, j := 0, 0

		for i < len(lhs) && j < len(rhs) {
			var next Interval

			if lhs[i].Start <= rhs[j].Start {
				next = lhs[i]
				i++
			} else {
				next = rhs[j]
				j++
			}

			if !yield(next) {
				return
			}
		}

		for _, iv := range lhs[i:] {
			if !yield(iv) {
				return
			}
		}

		for _, iv := range rhs[j:] {
			if !yield(iv) {
				return
			}
		}
	}
}
