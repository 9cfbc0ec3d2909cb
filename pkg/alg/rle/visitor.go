package rle

import "fmt"

// Visitor receives the result of a set operation.
//
// VisitInterval is called with result intervals in non-decreasing order of
// Start. VisitRunStore is called instead, exactly once, when the result is one
// of the operands verbatim; the visitor must not retain or modify store.
type Visitor interface {
	VisitInterval(iv Interval)
	VisitRunStore(store *RunStore)
}

// RunWriter is a Visitor that materializes the visited result into a new
// RunStore, fusing overlapping and adjacent intervals as they arrive.
type RunWriter struct {
	store *RunStore
}

// NewRunWriter creates a writer with an empty result.
func NewRunWriter() *RunWriter {
	return &RunWriter{store: New()}
}

// VisitInterval appends iv to the result, merging it into the last run when
// the two overlap or touch. It panics when iv starts before the last run.
func (w *RunWriter) VisitInterval(iv Interval) {
	runs := w.store.runs
	if len(runs) == 0 {
		w.store.runs = append(runs, iv)

		return
	}

	last := &runs[len(runs)-1]
	if iv.Start < last.Start {
		panic(fmt.Sprintf("rle: visited interval %v starts before %v", iv, *last))
	}

	if int(iv.Start) > last.spanEnd()+1 {
		w.store.runs = append(runs, iv)

		return
	}

	if iv.End() > last.End() {
		last.Length = iv.End() - last.Start
	}
}

// VisitRunStore replaces anything accumulated so far with a copy of store.
func (w *RunWriter) VisitRunStore(store *RunStore) {
	w.store = store.Clone()
}

// Result returns the accumulated store and leaves the writer empty.
func (w *RunWriter) Result() *RunStore {
	store := w.store
	w.store = New()

	return store
}

// CardinalityCounter is a Visitor that counts the keys of a result without
// building a store. Overlapping or adjacent intervals are counted once.
type CardinalityCounter struct {
	count   int
	lastEnd int
	started bool
}

// VisitInterval adds the keys of iv not already counted.
func (c *CardinalityCounter) VisitInterval(iv Interval) {
	start, end := int(iv.Start), iv.spanEnd()

	if c.started {
		if end <= c.lastEnd {
			return
		}

		start = max(start, c.lastEnd+1)
	}

	c.count += end - start + 1
	c.lastEnd = end
	c.started = true
}

// VisitRunStore replaces the count with the cardinality of store.
func (c *CardinalityCounter) VisitRunStore(store *RunStore) {
	c.Reset()

	for _, iv := range store.runs {
		c.count += iv.Cardinality()
	}
}

// Count returns the number of keys visited.
func (c *CardinalityCounter) Count() int {
	return c.count
}

// Reset clears the counter for reuse.
func (c *CardinalityCounter) Reset() {
	*c = CardinalityCounter{}
}
