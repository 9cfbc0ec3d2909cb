package rle

import (
	"iter"
	"slices"
	"strings"
)

// RunStore is an ordered sequence of maximal runs.
//
// Consecutive runs are separated by at least one missing key and no two runs
// can be fused. The zero value is an empty store. A RunStore is not safe for
// concurrent mutation.
type RunStore struct {
	runs []Interval
}

// New creates an empty store.
func New() *RunStore {
	return &RunStore{}
}

// NewFull creates a store holding every key from 0 to MaxKey.
func NewFull() *RunStore {
	return &RunStore{runs: []Interval{{Start: 0, Length: MaxKey}}}
}

// FromIntervals validates intervals and builds a store from a copy of them.
// Each interval must start at least two keys past the end of the previous
// one, and no interval may extend beyond MaxKey. On the first violation it
// returns a *MonotonicityError carrying the offending index.
func FromIntervals(intervals []Interval) (*RunStore, error) {
	for i, iv := range intervals {
		if iv.spanEnd() > MaxKey {
			return nil, &MonotonicityError{Index: i}
		}

		if i == 0 {
			continue
		}

		if int(iv.Start) <= intervals[i-1].spanEnd()+1 {
			return nil, &MonotonicityError{Index: i}
		}
	}

	return &RunStore{runs: slices.Clone(intervals)}, nil
}

// Len returns the number of runs.
func (s *RunStore) Len() int {
	return len(s.runs)
}

// IsEmpty reports whether the store holds no keys.
func (s *RunStore) IsEmpty() bool {
	return len(s.runs) == 0
}

// IsFull reports whether the store is the single run [0, MaxKey].
func (s *RunStore) IsFull() bool {
	return len(s.runs) == 1 && s.runs[0].Start == 0 && s.runs[0].Length == MaxKey
}

// Contains reports whether key is a member of the store.
func (s *RunStore) Contains(key uint16) bool {
	return s.FindRun(key).Found
}

// Insert adds key to the store, extending, fusing or creating runs so that
// the runs stay maximal. It reports whether the store changed.
func (s *RunStore) Insert(key uint16) bool {
	pos := s.interleavedBinarySearch(key)
	if pos.Found {
		return false
	}

	next := pos.Index

	if prev := pos.After(); prev >= 0 {
		iv := s.runs[prev]
		offset := int(key) - int(iv.Start)

		switch {
		case offset <= int(iv.Length):
			return false
		case offset == int(iv.Length)+1:
			if fused, ok := iv.TryFuse(s.at(next)); ok {
				s.runs[prev] = fused
				s.runs = slices.Delete(s.runs, next, next+1)

				return true
			}

			s.runs[prev].Length++

			return true
		}
	}

	if next < len(s.runs) && int(s.runs[next].Start) == int(key)+1 {
		s.runs[next].Start--
		s.runs[next].Length++

		return true
	}

	s.runs = slices.Insert(s.runs, next, Singleton(key))

	return true
}

// Intervals returns a copy of the runs in ascending order.
func (s *RunStore) Intervals() []Interval {
	return slices.Clone(s.runs)
}

// All yields the runs in ascending order.
func (s *RunStore) All() iter.Seq[Interval] {
	return slices.Values(s.runs)
}

// Clone returns an independent copy of the store.
func (s *RunStore) Clone() *RunStore {
	return &RunStore{runs: slices.Clone(s.runs)}
}

// Equal reports whether both stores hold the same runs.
func (s *RunStore) Equal(other *RunStore) bool {
	return slices.Equal(s.runs, other.runs)
}

// String formats the runs as a comma separated list of [start,end] pairs.
func (s *RunStore) String() string {
	var sb strings.Builder

	sb.WriteByte('{')

	for i, iv := range s.runs {
		if i > 0 {
			sb.WriteByte(',')
		}

		sb.WriteString(iv.String())
	}

	sb.WriteByte('}')

	return sb.String()
}

// at returns a pointer to run i, or nil when i is out of range.
func (s *RunStore) at(i int) *Interval {
	if i < 0 || i >= len(s.runs) {
		return nil
	}

	return &s.runs[i]
}
