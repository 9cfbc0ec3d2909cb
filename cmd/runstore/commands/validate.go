package commands

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/runstore/pkg/workload"
)

// ValidateCommand checks a workload document without executing it.
type ValidateCommand struct {
	app *App
}

func newValidateCommand(app *App) *cobra.Command {
	vc := &ValidateCommand{app: app}

	return &cobra.Command{
		Use:   "validate <workload.yaml[.lz4]>",
		Short: "Check a workload document against its schema",
		Long: `Check a workload document against the workload JSON schema.

Examples:
  runstore validate scenario.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: app.runE(vc.run),
	}
}

func (vc *ValidateCommand) run(cmd *cobra.Command, args []string) error {
	path := args[0]
	out := cmd.OutOrStdout()

	raw, err := workload.ReadFile(path)
	if err != nil {
		return err
	}

	err = workload.Validate(raw)
	if err == nil {
		_, err = workload.Decode(bytes.NewReader(raw))
	}

	var verr *workload.ValidationError

	switch {
	case errors.As(err, &verr):
		vc.app.color(color.FgRed).Fprintf(out, "Workload is invalid (%s)\n", path)

		for _, p := range verr.Problems {
			vc.app.color(color.FgRed).Fprintf(out, "  - %s: %s\n", p.Field, p.Description)
		}

		return fmt.Errorf("%s: %w", path, workload.ErrInvalidWorkload)
	case err != nil:
		return fmt.Errorf("%s: %w", path, err)
	}

	vc.app.color(color.FgGreen).Fprintf(out, "Workload is valid (%s)\n", path)

	return nil
}
