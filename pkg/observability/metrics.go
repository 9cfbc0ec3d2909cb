package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricOpsTotal   = "rle.ops.total"
	metricOpDuration = "rle.op.duration.seconds"
	metricResultRuns = "rle.result.runs"

	attrOp     = "op"
	attrStatus = "status"
)

// Operation statuses recorded with every op.
const (
	StatusOK       = "ok"
	StatusMismatch = "mismatch"
	StatusError    = "error"
)

// durationBucketBoundaries covers 1µs to 1s; a sweep over two full key
// spaces of singleton runs finishes well inside the top bucket.
var durationBucketBoundaries = []float64{1e-6, 5e-6, 1e-5, 5e-5, 1e-4, 5e-4, 1e-3, 5e-3, 0.01, 0.05, 0.1, 0.5, 1}

// runsBucketBoundaries spans one run up to the 32768 runs of alternating keys.
var runsBucketBoundaries = []float64{0, 1, 4, 16, 64, 256, 1024, 4096, 16384, 32768}

// OpMetrics holds the OTel instruments recorded for every store operation.
type OpMetrics struct {
	opsTotal   metric.Int64Counter
	opDuration metric.Float64Histogram
	resultRuns metric.Int64Histogram
}

// NewOpMetrics creates the store operation instruments from the given meter.
func NewOpMetrics(mt metric.Meter) (*OpMetrics, error) {
	opsTotal, err := mt.Int64Counter(metricOpsTotal,
		metric.WithDescription("Total number of run store operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricOpsTotal, err)
	}

	opDuration, err := mt.Float64Histogram(metricOpDuration,
		metric.WithDescription("Run store operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricOpDuration, err)
	}

	resultRuns, err := mt.Int64Histogram(metricResultRuns,
		metric.WithDescription("Number of runs in an operation result"),
		metric.WithUnit("{run}"),
		metric.WithExplicitBucketBoundaries(runsBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricResultRuns, err)
	}

	return &OpMetrics{
		opsTotal:   opsTotal,
		opDuration: opDuration,
		resultRuns: resultRuns,
	}, nil
}

// RecordOp records one completed operation. runs is the size of the result
// store; negative values skip the runs histogram.
func (m *OpMetrics) RecordOp(ctx context.Context, op, status string, duration time.Duration, runs int) {
	attrs := metric.WithAttributes(
		attribute.String(attrOp, op),
		attribute.String(attrStatus, status),
	)

	m.opsTotal.Add(ctx, 1, attrs)
	m.opDuration.Record(ctx, duration.Seconds(), attrs)

	if runs >= 0 {
		m.resultRuns.Record(ctx, int64(runs), metric.WithAttributes(attribute.String(attrOp, op)))
	}
}
