package commands

import (
	"bytes"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/runstore/pkg/workload"
)

// CompressCommand stores a workload document as an lz4 frame.
type CompressCommand struct {
	app    *App
	output string
}

func newCompressCommand(app *App) *cobra.Command {
	cc := &CompressCommand{app: app}

	cmd := &cobra.Command{
		Use:   "compress <workload.yaml>",
		Short: "Store a workload document as an lz4 frame",
		Long: `Validate a workload document and write it lz4 compressed, so that large
generated workloads can be kept next to small ones. run and validate read
files ending in .lz4 transparently.

Examples:
  runstore compress big.yaml
  runstore compress big.yaml -o /tmp/big.yaml.lz4`,
		Args: cobra.ExactArgs(1),
		RunE: app.runE(cc.run),
	}

	cmd.Flags().StringVarP(&cc.output, "output", "o", "", "destination (default <input>"+workload.CompressedSuffix+")")

	return cmd
}

func (cc *CompressCommand) run(cmd *cobra.Command, args []string) error {
	input := args[0]

	output := cc.output
	if output == "" {
		output = input + workload.CompressedSuffix
	}

	raw, err := workload.ReadFile(input)
	if err != nil {
		return err
	}

	err = workload.Validate(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", input, err)
	}

	var buf bytes.Buffer

	err = workload.Compress(&buf, raw)
	if err != nil {
		return err
	}

	err = os.WriteFile(output, buf.Bytes(), 0o644)
	if err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s -> %s)\n",
		output, humanize.Bytes(uint64(len(raw))), humanize.Bytes(uint64(buf.Len())))

	return err
}
