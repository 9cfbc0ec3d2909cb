package rle

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test constants.
const (
	testSeed       = 42
	testInsertions = 4000
)

// mockStore is {[5,10], [15,20], [25,35], [37,50]}.
func mockStore(t *testing.T) *RunStore {
	t.Helper()

	return storeOf(t, [2]uint16{5, 10}, [2]uint16{15, 20}, [2]uint16{25, 35}, [2]uint16{37, 50})
}

func TestNew_IsEmpty(t *testing.T) {
	t.Parallel()

	store := New()

	assert.True(t, store.IsEmpty())
	assert.False(t, store.IsFull())
	assert.Equal(t, 0, store.Len())
	assert.False(t, store.Contains(0))
}

func TestNewFull(t *testing.T) {
	t.Parallel()

	store := NewFull()

	assert.True(t, store.IsFull())
	assert.True(t, store.Contains(0))
	assert.True(t, store.Contains(MaxKey))
	assert.False(t, store.Insert(MaxKey))
}

func TestFromIntervals_Valid(t *testing.T) {
	t.Parallel()

	store := mockStore(t)

	assert.Equal(t, 4, store.Len())
	requireMaximalRuns(t, store)
}

func TestFromIntervals_Empty(t *testing.T) {
	t.Parallel()

	store, err := FromIntervals(nil)
	require.NoError(t, err)
	assert.True(t, store.IsEmpty())
}

func TestFromIntervals_Violations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		intervals []Interval
		index     int
	}{
		{
			name:      "overlap",
			intervals: []Interval{IntervalFromBounds(1, 5), IntervalFromBounds(4, 8)},
			index:     1,
		},
		{
			name:      "adjacent",
			intervals: []Interval{IntervalFromBounds(1, 5), IntervalFromBounds(6, 8)},
			index:     1,
		},
		{
			name:      "equal starts",
			intervals: []Interval{IntervalFromBounds(1, 5), IntervalFromBounds(10, 12), IntervalFromBounds(10, 11)},
			index:     2,
		},
		{
			name:      "decreasing",
			intervals: []Interval{IntervalFromBounds(10, 12), IntervalFromBounds(1, 5)},
			index:     1,
		},
		{
			name:      "wraps past max key",
			intervals: []Interval{NewInterval(MaxKey, 1)},
			index:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store, err := FromIntervals(tt.intervals)
			require.Error(t, err)
			assert.Nil(t, store)
			assert.ErrorIs(t, err, ErrMonotonicityViolation)

			var monoErr *MonotonicityError

			require.True(t, errors.As(err, &monoErr))
			assert.Equal(t, tt.index, monoErr.Index)
		})
	}
}

func TestFromIntervals_CopiesInput(t *testing.T) {
	t.Parallel()

	intervals := []Interval{IntervalFromBounds(1, 3)}

	store, err := FromIntervals(intervals)
	require.NoError(t, err)

	intervals[0] = IntervalFromBounds(7, 9)

	assert.True(t, store.Contains(2))
	assert.False(t, store.Contains(8))
}

func TestInterleavedBinarySearch(t *testing.T) {
	t.Parallel()

	store := mockStore(t)

	found := map[uint16]int{5: 0, 15: 1, 25: 2, 37: 3}
	for key, idx := range found {
		assert.Equal(t, Position{Index: idx, Found: true}, store.interleavedBinarySearch(key), "key %d", key)
	}

	missing := map[uint16]int{3: -1, 8: 0, 10: 0, 11: 0, 23: 1, 51: 3}
	for key, after := range missing {
		pos := store.interleavedBinarySearch(key)
		assert.False(t, pos.Found, "key %d", key)
		assert.Equal(t, after, pos.After(), "key %d", key)
	}
}

func TestFindRun(t *testing.T) {
	t.Parallel()

	store := mockStore(t)

	found := map[uint16]int{5: 0, 7: 0, 10: 0, 15: 1, 20: 1, 35: 2}
	for key, idx := range found {
		assert.Equal(t, Position{Index: idx, Found: true}, store.FindRun(key), "key %d", key)
	}

	missing := map[uint16]int{0: -1, 3: -1, 13: 0, 21: 1, 51: 3}
	for key, after := range missing {
		pos := store.FindRun(key)
		assert.False(t, pos.Found, "key %d", key)
		assert.Equal(t, after, pos.After(), "key %d", key)
	}
}

func TestInsert_Scenario(t *testing.T) {
	t.Parallel()

	store := mockStore(t)

	// Already present.
	assert.False(t, store.Insert(5))
	assert.False(t, store.Insert(7))
	assert.False(t, store.Insert(10))

	// New run at the beginning, then grown.
	assert.True(t, store.Insert(0))
	assert.True(t, store.Insert(1))
	assert.True(t, store.Insert(2))
	assert.Equal(t, IntervalFromBounds(0, 2), store.runs[0])
	assert.Equal(t, 5, store.Len())

	// New run in the middle.
	assert.True(t, store.Insert(22))
	assert.True(t, store.Insert(23))
	assert.Equal(t, 6, store.Len())

	// Closing a one key gap fuses two runs.
	assert.True(t, store.Insert(36))
	assert.Equal(t, IntervalFromBounds(25, 50), store.runs[store.Len()-1])
	assert.Equal(t, 5, store.Len())

	// Appended to the end of a run.
	assert.True(t, store.Insert(11))
	assert.Equal(t, IntervalFromBounds(5, 11), store.runs[1])
	assert.Equal(t, 5, store.Len())

	// Prepended to the start of the next run.
	assert.True(t, store.Insert(4))
	assert.Equal(t, IntervalFromBounds(4, 11), store.runs[1])
	assert.Equal(t, 5, store.Len())

	requireMaximalRuns(t, store)
}

func TestInsert_FusesLastRuns(t *testing.T) {
	t.Parallel()

	store := mockStore(t)

	assert.True(t, store.Insert(36))
	assert.Equal(t, 3, store.Len())
	assert.Equal(t, IntervalFromBounds(25, 50), store.runs[2])
}

func TestInsert_BeforeFirstRun(t *testing.T) {
	t.Parallel()

	adjacent := storeOf(t, [2]uint16{5, 10})
	assert.True(t, adjacent.Insert(4))
	assert.Equal(t, []Interval{IntervalFromBounds(4, 10)}, adjacent.Intervals())

	gapped := storeOf(t, [2]uint16{5, 10})
	assert.True(t, gapped.Insert(3))
	assert.Equal(t, []Interval{Singleton(3), IntervalFromBounds(5, 10)}, gapped.Intervals())
	assert.False(t, gapped.Contains(4))
}

func TestInsert_Boundaries(t *testing.T) {
	t.Parallel()

	store := New()

	assert.True(t, store.Insert(MaxKey))
	assert.True(t, store.Insert(0))
	assert.True(t, store.Insert(MaxKey-1))
	assert.True(t, store.Insert(1))

	assert.Equal(t, []Interval{IntervalFromBounds(0, 1), IntervalFromBounds(MaxKey-1, MaxKey)}, store.Intervals())
}

func TestInsert_FillsToFull(t *testing.T) {
	t.Parallel()

	store := New()

	for key := MaxKey; key >= 0; key -= 2 {
		store.Insert(uint16(key))
	}

	for key := 0; key <= MaxKey; key += 2 {
		store.Insert(uint16(key))
	}

	assert.True(t, store.IsFull())
}

func TestInsert_Idempotent(t *testing.T) {
	t.Parallel()

	store := mockStore(t)

	for _, key := range []uint16{0, 4, 11, 12, 36, 51, MaxKey} {
		assert.True(t, store.Insert(key), "first insert of %d", key)
		assert.True(t, store.Contains(key), "key %d", key)
		assert.False(t, store.Insert(key), "second insert of %d", key)
	}
}

func TestInsert_RandomMatchesReference(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(testSeed, testSeed))
	store := New()

	var ref bitset

	for range testInsertions {
		// Cluster keys so runs extend, fuse and split often.
		key := uint16(rng.IntN(testInsertions))

		changed := store.Insert(key)
		assert.Equal(t, !ref[key], changed, "key %d", key)

		ref[key] = true

		require.True(t, store.Contains(key))
	}

	requireMaximalRuns(t, store)
	assert.True(t, ref.toStore(t).Equal(store))
}

func TestRunStore_CloneIsIndependent(t *testing.T) {
	t.Parallel()

	store := mockStore(t)
	clone := store.Clone()

	require.True(t, clone.Equal(store))

	clone.Insert(12)

	assert.False(t, store.Contains(12))
	assert.False(t, clone.Equal(store))
}

func TestRunStore_IntervalsIsCopy(t *testing.T) {
	t.Parallel()

	store := mockStore(t)

	intervals := store.Intervals()
	intervals[0] = Singleton(0)

	assert.Equal(t, IntervalFromBounds(5, 10), store.runs[0])
}

func TestRunStore_All(t *testing.T) {
	t.Parallel()

	store := mockStore(t)

	assert.Equal(t, store.Intervals(), slices.Collect(store.All()))
}

func TestRunStore_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "{}", New().String())
	assert.Equal(t, "{[5,10],[15,20],[25,35],[37,50]}", mockStore(t).String())
}
