package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/runstore/pkg/workload"
)

// RunCommand executes a workload document.
type RunCommand struct {
	app *App
}

func newRunCommand(app *App) *cobra.Command {
	rc := &RunCommand{app: app}

	return &cobra.Command{
		Use:   "run <workload.yaml[.lz4]>",
		Short: "Execute a workload document",
		Long: `Validate and execute a workload document, then report every step.

The command exits with status 2 when a step misses its expectation.

Examples:
  runstore run scenario.yaml
  runstore run scenario.yaml.lz4 --format json`,
		Args: cobra.ExactArgs(1),
		RunE: app.runE(rc.run),
	}
}

func (rc *RunCommand) run(cmd *cobra.Command, args []string) error {
	doc, err := workload.Load(args[0])
	if err != nil {
		return err
	}

	renderer, err := rc.app.renderer(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	runner, err := workload.NewRunner(rc.app.providers.Tracer, rc.app.providers.Meter, rc.app.logger())
	if err != nil {
		return err
	}

	rc.app.logger().InfoContext(cmd.Context(), "running workload",
		"workload", doc.Name, "path", args[0], "steps", len(doc.Steps))

	result, err := runner.Run(cmd.Context(), doc)
	if err != nil {
		return err
	}

	err = renderer.Workload(result)
	if err != nil {
		return err
	}

	if result.Failed() {
		return fmt.Errorf("%w: %d of %d steps", ErrExpectationsFailed, len(result.Mismatches()), len(result.Steps))
	}

	return nil
}
