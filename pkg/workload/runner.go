package workload

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/runstore/pkg/alg/rle"
	"github.com/Sumatoshi-tech/runstore/pkg/observability"
	"github.com/Sumatoshi-tech/runstore/pkg/safeconv"
	"github.com/Sumatoshi-tech/runstore/pkg/setexpr"
)

type binaryOp func(lhs, rhs *rle.RunStore, v rle.Visitor)

var binaryOps = map[string]binaryOp{
	OpOr:  rle.Or,
	OpXor: rle.Xor,
	OpAnd: rle.And,
}

// BinaryOp returns the store operation registered under name.
func BinaryOp(name string) (func(lhs, rhs *rle.RunStore, v rle.Visitor), error) {
	op, ok := binaryOps[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOp, name)
	}

	return op, nil
}

// StepResult is the outcome of one step.
type StepResult struct {
	Index int
	Op    string
	// Set names the store the step produced or modified; empty for count.
	Set string
	// Store is a snapshot of the produced store; nil for count.
	Store *rle.RunStore
	// Count is the cardinality of the result.
	Count int
	// Changed is the number of keys insert actually added.
	Changed  int
	Duration time.Duration
	Mismatch *Mismatch
}

// Result is the outcome of a workload run.
type Result struct {
	Name  string
	Steps []StepResult
	// Sets holds every named store as it stands after the last step.
	Sets map[string]*rle.RunStore
}

// Failed reports whether any step missed its expectation.
func (r *Result) Failed() bool {
	for _, s := range r.Steps {
		if s.Mismatch != nil {
			return true
		}
	}

	return false
}

// Mismatches returns the steps that missed their expectation.
func (r *Result) Mismatches() []StepResult {
	var failed []StepResult

	for _, s := range r.Steps {
		if s.Mismatch != nil {
			failed = append(failed, s)
		}
	}

	return failed
}

// Runner executes workload documents.
type Runner struct {
	tracer  trace.Tracer
	metrics *observability.OpMetrics
	logger  *slog.Logger
}

// NewRunner creates a Runner recording spans on tracer and op metrics on meter.
func NewRunner(tracer trace.Tracer, meter metric.Meter, logger *slog.Logger) (*Runner, error) {
	metrics, err := observability.NewOpMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("workload runner: %w", err)
	}

	return &Runner{tracer: tracer, metrics: metrics, logger: logger}, nil
}

// Run builds the declared sets and executes the steps in order. It stops at
// the first step that fails to execute; unmet expectations do not stop it.
func (r *Runner) Run(ctx context.Context, doc *Document) (*Result, error) {
	ctx, span := r.tracer.Start(ctx, "workload.run", trace.WithAttributes(
		attribute.String("workload.name", doc.Name),
		attribute.Int("workload.steps", len(doc.Steps)),
		attribute.Int("workload.sets", len(doc.Sets)),
	))
	defer span.End()

	sets, err := buildSets(doc)
	if err != nil {
		recordError(span, err)

		return nil, err
	}

	result := &Result{Name: doc.Name, Sets: sets}

	for i, step := range doc.Steps {
		if err := ctx.Err(); err != nil {
			recordError(span, err)

			return nil, fmt.Errorf("workload %q: %w", doc.Name, err)
		}

		sr, err := r.runStep(ctx, i, step, sets)
		if err != nil {
			recordError(span, err)

			return nil, fmt.Errorf("step %d (%s): %w", i, step.Name(), err)
		}

		result.Steps = append(result.Steps, sr)
	}

	span.SetAttributes(attribute.Bool("workload.failed", result.Failed()))
	r.logger.DebugContext(ctx, "workload done",
		"workload", doc.Name, "steps", len(result.Steps), "failed", result.Failed())

	return result, nil
}

func buildSets(doc *Document) (map[string]*rle.RunStore, error) {
	sets := make(map[string]*rle.RunStore, len(doc.Sets))

	for _, name := range doc.SetNames() {
		store, err := doc.Sets[name].Build()
		if err != nil {
			return nil, fmt.Errorf("set %q: %w", name, err)
		}

		sets[name] = store
	}

	return sets, nil
}

func (r *Runner) runStep(ctx context.Context, index int, step Step, sets map[string]*rle.RunStore) (StepResult, error) {
	ctx, span := r.tracer.Start(ctx, "workload.step", trace.WithAttributes(
		attribute.Int("step.index", index),
		attribute.String("rle.op", step.Name()),
	))
	defer span.End()

	sr, err := execute(step, sets)
	sr.Index = index
	sr.Op = step.Name()

	runs := -1
	if sr.Store != nil {
		runs = sr.Store.Len()
	}

	status := observability.StatusOK

	switch {
	case err != nil:
		status = observability.StatusError

		recordError(span, err)
	case sr.Mismatch != nil:
		status = observability.StatusMismatch

		span.SetStatus(codes.Error, "expectation not met")
	}

	r.metrics.RecordOp(ctx, step.Op, status, sr.Duration, runs)

	if err != nil {
		return StepResult{}, err
	}

	span.SetAttributes(
		attribute.Int("rle.result.runs", max(runs, 0)),
		attribute.Int("rle.result.cardinality", sr.Count),
		attribute.String("status", status),
	)

	r.logger.DebugContext(ctx, "step done",
		"index", index, "op", sr.Op, "runs", runs, "count", sr.Count,
		"duration", sr.Duration, "status", status)

	return sr, nil
}

func execute(step Step, sets map[string]*rle.RunStore) (StepResult, error) {
	if extra := unusedFields(step); len(extra) > 0 {
		return StepResult{}, fmt.Errorf("%w: %s does not take %s", ErrInvalidWorkload, step.Op, strings.Join(extra, ", "))
	}

	switch step.Op {
	case OpInsert:
		return executeInsert(step, sets)
	case OpOr, OpXor, OpAnd:
		return executeBinary(step, sets)
	case OpCount:
		return executeCount(step, sets)
	default:
		return StepResult{}, fmt.Errorf("%w: %q", ErrUnknownOp, step.Op)
	}
}

// unusedFields names the fields set on step that its op does not read.
func unusedFields(step Step) []string {
	var fields []string

	add := func(name string, set bool) {
		if set {
			fields = append(fields, name)
		}
	}

	switch step.Op {
	case OpInsert:
		add("args", step.Args != nil)
		add("into", step.Into != "")
		add("with", step.With != "")
	case OpOr, OpXor, OpAnd:
		add("target", step.Target != "")
		add("keys", step.Keys != nil)
		add("with", step.With != "")
	case OpCount:
		add("target", step.Target != "")
		add("keys", step.Keys != nil)
		add("into", step.Into != "")
		add("expect", step.Expect != nil)
	}

	return fields
}

func executeInsert(step Step, sets map[string]*rle.RunStore) (StepResult, error) {
	store, err := lookup(sets, step.Target)
	if err != nil {
		return StepResult{}, err
	}

	keys := make([]uint16, 0, len(step.Keys))

	for _, k := range step.Keys {
		key, err := safeconv.IntToUint16(k)
		if err != nil {
			return StepResult{}, err
		}

		keys = append(keys, key)
	}

	changed := 0
	start := time.Now()

	for _, key := range keys {
		if store.Insert(key) {
			changed++
		}
	}

	sr := StepResult{
		Set:      step.Target,
		Store:    store.Clone(),
		Changed:  changed,
		Duration: time.Since(start),
	}
	finishStoreResult(&sr, step)

	return sr, nil
}

func executeBinary(step Step, sets map[string]*rle.RunStore) (StepResult, error) {
	lhs, rhs, err := operands(step, sets)
	if err != nil {
		return StepResult{}, err
	}

	op := binaryOps[step.Op]
	w := rle.NewRunWriter()

	start := time.Now()
	op(lhs, rhs, w)
	elapsed := time.Since(start)

	store := w.Result()
	if step.Into != "" {
		sets[step.Into] = store.Clone()
	}

	sr := StepResult{Set: step.Into, Store: store, Duration: elapsed}
	finishStoreResult(&sr, step)

	return sr, nil
}

func executeCount(step Step, sets map[string]*rle.RunStore) (StepResult, error) {
	op, err := BinaryOp(step.With)
	if err != nil {
		return StepResult{}, err
	}

	lhs, rhs, err := operands(step, sets)
	if err != nil {
		return StepResult{}, err
	}

	var counter rle.CardinalityCounter

	start := time.Now()
	op(lhs, rhs, &counter)

	sr := StepResult{Count: counter.Count(), Duration: time.Since(start)}

	if step.ExpectCount != nil && *step.ExpectCount != sr.Count {
		sr.Mismatch = newMismatch(strconv.Itoa(*step.ExpectCount), strconv.Itoa(sr.Count))
	}

	return sr, nil
}

// finishStoreResult fills the cardinality and checks both expectations.
func finishStoreResult(sr *StepResult, step Step) {
	for iv := range sr.Store.All() {
		sr.Count += iv.Cardinality()
	}

	if step.Expect != nil {
		want := normalize(*step.Expect)
		if got := setexpr.Format(sr.Store); got != want {
			sr.Mismatch = newMismatch(want, got)

			return
		}
	}

	if step.ExpectCount != nil && *step.ExpectCount != sr.Count {
		sr.Mismatch = newMismatch(strconv.Itoa(*step.ExpectCount), strconv.Itoa(sr.Count))
	}
}

// normalize rewrites a parseable expression in canonical form so that
// spacing differences do not count as mismatches.
func normalize(expr string) string {
	store, err := setexpr.ParseStore(expr)
	if err != nil {
		return expr
	}

	return setexpr.Format(store)
}

func operands(step Step, sets map[string]*rle.RunStore) (lhs, rhs *rle.RunStore, err error) {
	if len(step.Args) != 2 {
		return nil, nil, fmt.Errorf("%w: %s takes 2 args, got %d", ErrInvalidWorkload, step.Op, len(step.Args))
	}

	lhs, err = lookup(sets, step.Args[0])
	if err != nil {
		return nil, nil, err
	}

	rhs, err = lookup(sets, step.Args[1])
	if err != nil {
		return nil, nil, err
	}

	return lhs, rhs, nil
}

func lookup(sets map[string]*rle.RunStore, name string) (*rle.RunStore, error) {
	store, ok := sets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSet, name)
	}

	return store, nil
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
