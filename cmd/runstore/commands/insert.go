package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/runstore/pkg/observability"
	"github.com/Sumatoshi-tech/runstore/pkg/report"
	"github.com/Sumatoshi-tech/runstore/pkg/setexpr"
	"github.com/Sumatoshi-tech/runstore/pkg/workload"
)

// InsertCommand inserts keys into a store one at a time.
type InsertCommand struct {
	app  *App
	base string
}

func newInsertCommand(app *App) *cobra.Command {
	ic := &InsertCommand{app: app}

	cmd := &cobra.Command{
		Use:   "insert <key>...",
		Short: "Insert keys into a set one at a time",
		Long: `Insert keys into a set in the order given and report which keys were new.

Examples:
  runstore insert 4 11 36 --base "5-10,15-20,25-35,37-50"
  runstore insert 0 1 2 --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: app.runE(ic.run),
	}

	cmd.Flags().StringVar(&ic.base, "base", "", "initial set expression (default empty)")

	return cmd
}

func (ic *InsertCommand) run(cmd *cobra.Command, args []string) error {
	store, err := setexpr.ParseStore(ic.base)
	if err != nil {
		return fmt.Errorf("base: %w", err)
	}

	keys := make([]uint16, 0, len(args))

	for _, arg := range args {
		key, err := setexpr.ParseKey(arg)
		if err != nil {
			return err
		}

		keys = append(keys, key)
	}

	renderer, err := ic.app.renderer(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	metrics, err := observability.NewOpMetrics(ic.app.providers.Meter)
	if err != nil {
		return err
	}

	ctx, span := ic.app.providers.Tracer.Start(cmd.Context(), "runstore.insert", trace.WithAttributes(
		attribute.String("rle.op", workload.OpInsert),
		attribute.Int("rle.keys", len(keys)),
	))
	defer span.End()

	changes := make([]report.InsertChange, 0, len(keys))

	start := time.Now()

	for _, key := range keys {
		changes = append(changes, report.InsertChange{Key: key, Changed: store.Insert(key)})
	}

	elapsed := time.Since(start)

	metrics.RecordOp(ctx, workload.OpInsert, observability.StatusOK, elapsed, store.Len())
	ic.app.logger().DebugContext(ctx, "insert done", "keys", len(keys), "runs", store.Len(), "duration", elapsed)

	return renderer.Inserts(changes, store)
}
