package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/runstore/pkg/alg/rle"
	"github.com/Sumatoshi-tech/runstore/pkg/observability"
	"github.com/Sumatoshi-tech/runstore/pkg/setexpr"
	"github.com/Sumatoshi-tech/runstore/pkg/workload"
)

// EvalCommand combines two sets given on the command line.
type EvalCommand struct {
	app   *App
	count bool
}

func newEvalCommand(app *App) *cobra.Command {
	ec := &EvalCommand{app: app}

	cmd := &cobra.Command{
		Use:   "eval <or|xor|and> <lhs> <rhs>",
		Short: "Combine two sets with or, xor or and",
		Long: `Combine two sets written as set expressions.

A set expression lists single keys and inclusive ranges in ascending order.

Examples:
  runstore eval or "0-4,8-12" "5-7"
  runstore eval xor "0-12" "5-7" --format plain
  runstore eval and "0-65535" "40,100-200" --count`,
		Args: cobra.ExactArgs(3),
		RunE: app.runE(ec.run),
	}

	cmd.Flags().BoolVar(&ec.count, "count", false, "print only the number of keys in the result")

	return cmd
}

func (ec *EvalCommand) run(cmd *cobra.Command, args []string) error {
	name := args[0]

	op, err := workload.BinaryOp(name)
	if err != nil {
		return err
	}

	lhs, err := setexpr.ParseStore(args[1])
	if err != nil {
		return fmt.Errorf("left operand: %w", err)
	}

	rhs, err := setexpr.ParseStore(args[2])
	if err != nil {
		return fmt.Errorf("right operand: %w", err)
	}

	renderer, err := ec.app.renderer(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	metrics, err := observability.NewOpMetrics(ec.app.providers.Meter)
	if err != nil {
		return err
	}

	ctx, span := ec.app.providers.Tracer.Start(cmd.Context(), "runstore.eval", trace.WithAttributes(
		attribute.String("rle.op", name),
		attribute.Int("rle.lhs.runs", lhs.Len()),
		attribute.Int("rle.rhs.runs", rhs.Len()),
	))
	defer span.End()

	if ec.count {
		var counter rle.CardinalityCounter

		start := time.Now()
		op(lhs, rhs, &counter)
		metrics.RecordOp(ctx, name, observability.StatusOK, time.Since(start), -1)

		return renderer.Count(name, counter.Count())
	}

	w := rle.NewRunWriter()

	start := time.Now()
	op(lhs, rhs, w)
	elapsed := time.Since(start)

	result := w.Result()
	metrics.RecordOp(ctx, name, observability.StatusOK, elapsed, result.Len())
	span.SetAttributes(attribute.Int("rle.result.runs", result.Len()))

	ec.app.logger().DebugContext(ctx, "eval done", "op", name, "runs", result.Len(), "duration", elapsed)

	return renderer.Store(name, result)
}
