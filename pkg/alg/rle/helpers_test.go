package rle

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

// keySpace is the number of distinct keys a store can hold.
const keySpace = MaxKey + 1

// bitset is a dense reference set used to cross-check run algorithms.
type bitset [keySpace]bool

// storeOf builds a store from inclusive [start, end] pairs.
func storeOf(t testing.TB, pairs ...[2]uint16) *RunStore {
	t.Helper()

	intervals := make([]Interval, 0, len(pairs))
	for _, p := range pairs {
		intervals = append(intervals, IntervalFromBounds(p[0], p[1]))
	}

	store, err := FromIntervals(intervals)
	require.NoError(t, err)

	return store
}

// toBitset expands a store into the reference representation.
func toBitset(s *RunStore) *bitset {
	var b bitset

	for iv := range s.All() {
		for k := iv.spanEnd(); k >= int(iv.Start); k-- {
			b[k] = true
		}
	}

	return &b
}

// toStore builds the maximal run decomposition of b.
func (b *bitset) toStore(t testing.TB) *RunStore {
	t.Helper()

	var intervals []Interval

	for k := 0; k < keySpace; {
		if !b[k] {
			k++

			continue
		}

		start := k
		for k < keySpace && b[k] {
			k++
		}

		intervals = append(intervals, bounds(start, k-1))
	}

	store, err := FromIntervals(intervals)
	require.NoError(t, err)

	return store
}

func (b *bitset) count() int {
	n := 0

	for _, set := range b {
		if set {
			n++
		}
	}

	return n
}

// randomBitset fills runs of random length at random positions.
func randomBitset(rng *rand.Rand, runs, maxRunLen int) *bitset {
	var b bitset

	for range runs {
		start := rng.IntN(keySpace)
		length := rng.IntN(maxRunLen)

		for k := start; k < keySpace && k <= start+length; k++ {
			b[k] = true
		}
	}

	return &b
}

// requireMaximalRuns asserts both store invariants: strictly increasing runs
// separated by at least one missing key, which also rules out fusible pairs.
func requireMaximalRuns(t testing.TB, s *RunStore) {
	t.Helper()

	for i, iv := range s.runs {
		require.LessOrEqual(t, iv.spanEnd(), MaxKey, "run %d overflows", i)

		if i == 0 {
			continue
		}

		require.Greater(t, int(iv.Start), s.runs[i-1].spanEnd()+1, "runs %d and %d touch", i-1, i)
	}
}
