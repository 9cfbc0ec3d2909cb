// Package setexpr converts between run stores and their text form.
//
// A set expression is a comma separated list of items, each either a single
// key ("40") or an inclusive range ("8-12"). Items must be listed in
// ascending order and must not touch, so "0-4,8-12,40" is valid while
// "0-4,5-9" is rejected. The empty string denotes the empty set.
package setexpr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/runstore/pkg/alg/rle"
	"github.com/Sumatoshi-tech/runstore/pkg/safeconv"
)

// ErrSyntax is returned for malformed set expressions.
var ErrSyntax = errors.New("setexpr: invalid syntax")

const (
	itemSep  = ","
	rangeSep = "-"
)

// Parse parses s into intervals in the order they are written. It does not
// check ordering; use ParseStore for a validated store.
func Parse(s string) ([]rle.Interval, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	items := strings.Split(s, itemSep)
	intervals := make([]rle.Interval, 0, len(items))

	for _, item := range items {
		iv, err := parseItem(strings.TrimSpace(item))
		if err != nil {
			return nil, err
		}

		intervals = append(intervals, iv)
	}

	return intervals, nil
}

// ParseStore parses s and builds a store from it.
func ParseStore(s string) (*rle.RunStore, error) {
	intervals, err := Parse(s)
	if err != nil {
		return nil, err
	}

	store, err := rle.FromIntervals(intervals)
	if err != nil {
		return nil, fmt.Errorf("set %q: %w", s, err)
	}

	return store, nil
}

// FromPairs builds a store from inclusive [start, end] pairs.
func FromPairs(pairs [][2]int) (*rle.RunStore, error) {
	intervals := make([]rle.Interval, 0, len(pairs))

	for _, p := range pairs {
		iv, err := bounds(p[0], p[1])
		if err != nil {
			return nil, err
		}

		intervals = append(intervals, iv)
	}

	return rle.FromIntervals(intervals)
}

// Format renders store in the syntax accepted by Parse.
func Format(store *rle.RunStore) string {
	return FormatIntervals(store.Intervals())
}

// FormatIntervals renders intervals in the syntax accepted by Parse.
func FormatIntervals(intervals []rle.Interval) string {
	var sb strings.Builder

	for i, iv := range intervals {
		if i > 0 {
			sb.WriteString(itemSep)
		}

		sb.WriteString(FormatInterval(iv))
	}

	return sb.String()
}

// FormatInterval renders one interval as "start-end", or "key" for a single key.
func FormatInterval(iv rle.Interval) string {
	if iv.Length == 0 {
		return strconv.Itoa(int(iv.Start))
	}

	return strconv.Itoa(int(iv.Start)) + rangeSep + strconv.Itoa(int(iv.End()))
}

// ParseKey parses a single key.
func ParseKey(s string) (uint16, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: key %q", ErrSyntax, s)
	}

	key, err := safeconv.IntToUint16(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSyntax, err)
	}

	return key, nil
}

func parseItem(item string) (rle.Interval, error) {
	if item == "" {
		return rle.Interval{}, fmt.Errorf("%w: empty item", ErrSyntax)
	}

	lo, hi, isRange := strings.Cut(item, rangeSep)
	if !isRange {
		key, err := ParseKey(item)
		if err != nil {
			return rle.Interval{}, err
		}

		return rle.Singleton(key), nil
	}

	start, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return rle.Interval{}, fmt.Errorf("%w: range %q", ErrSyntax, item)
	}

	end, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return rle.Interval{}, fmt.Errorf("%w: range %q", ErrSyntax, item)
	}

	return bounds(start, end)
}

func bounds(start, end int) (rle.Interval, error) {
	if end < start {
		return rle.Interval{}, fmt.Errorf("%w: end %d below start %d", ErrSyntax, end, start)
	}

	lo, err := safeconv.IntToUint16(start)
	if err != nil {
		return rle.Interval{}, fmt.Errorf("%w: %w", ErrSyntax, err)
	}

	hi, err := safeconv.IntToUint16(end)
	if err != nil {
		return rle.Interval{}, fmt.Errorf("%w: %w", ErrSyntax, err)
	}

	return rle.IntervalFromBounds(lo, hi), nil
}
