package rle

import (
	"cmp"
	"slices"
)

// Position is the outcome of a binary search over the runs of a store.
//
// When Found is true, Index is the matching run. Otherwise Index is the
// insertion point: every run before Index lies below the key and every run
// from Index on lies above it, so a key missing from an empty prefix of the
// store has Index 0.
type Position struct {
	Index int
	Found bool
}

// After returns the index of the closest run starting below the key, or -1
// when the key sorts before the first run. Only meaningful when !Found.
func (p Position) After() int {
	return p.Index - 1
}

// interleavedBinarySearch looks for a run starting exactly at key.
func (s *RunStore) interleavedBinarySearch(key uint16) Position {
	idx, found := slices.BinarySearchFunc(s.runs, key, func(iv Interval, k uint16) int {
		return cmp.Compare(iv.Start, k)
	})

	return Position{Index: idx, Found: found}
}

// FindRun looks for the run containing key anywhere in its range.
func (s *RunStore) FindRun(key uint16) Position {
	idx, found := slices.BinarySearchFunc(s.runs, key, Interval.CompareToIndex)

	return Position{Index: idx, Found: found}
}
