// Package commands implements CLI command handlers for runstore.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/runstore/pkg/config"
	"github.com/Sumatoshi-tech/runstore/pkg/observability"
	"github.com/Sumatoshi-tech/runstore/pkg/report"
	"github.com/Sumatoshi-tech/runstore/pkg/version"
)

// Process exit codes.
const (
	ExitError            = 1
	ExitExpectationsFail = 2
)

// ErrExpectationsFailed is returned by run when a workload step misses its
// expectation.
var ErrExpectationsFailed = errors.New("workload expectations not met")

// ExitCode maps a command error to the process exit code.
func ExitCode(err error) int {
	if errors.Is(err, ErrExpectationsFailed) {
		return ExitExpectationsFail
	}

	return ExitError
}

type observabilityInit func(observability.Config) (observability.Providers, error)

// App holds state shared by all subcommands of one invocation.
type App struct {
	configPath string
	format     string
	noColor    bool
	verbose    bool

	initObs   observabilityInit
	cfg       *config.Config
	providers observability.Providers
}

// NewRootCommand creates the runstore command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommandWithDeps(observability.Init)
}

func newRootCommandWithDeps(initObs observabilityInit) *cobra.Command {
	app := &App{initObs: initObs}

	rootCmd := &cobra.Command{
		Use:   "runstore",
		Short: "Run-length encoded 16-bit key sets",
		Long: `runstore builds and combines sets of 16-bit keys stored as runs.

Commands:
  eval      Combine two sets with or, xor or and
  insert    Insert keys into a set one at a time
  run       Execute a workload document
  validate  Check a workload document against its schema
  compress  Store a workload document as an lz4 frame`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: app.setup,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&app.configPath, "config", "", "config file (default searches ./runstore.yaml, ./config, ~/.config/runstore)")
	flags.StringVar(&app.format, "format", "", "output format: table, plain, json (overrides output.format)")
	flags.BoolVar(&app.noColor, "no-color", false, "disable colored output")
	flags.BoolVarP(&app.verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(
		newEvalCommand(app),
		newInsertCommand(app),
		newRunCommand(app),
		newValidateCommand(app),
		newCompressCommand(app),
		newVersionCommand(app),
	)

	return rootCmd
}

func (a *App) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}

	if a.format != "" {
		cfg.Output.Format = a.format
	}

	if a.noColor {
		cfg.Output.Color = false
	}

	if a.verbose {
		cfg.Logging.Level = "debug"
	}

	a.cfg = cfg

	obsCfg, err := a.observabilityConfig(cmd)
	if err != nil {
		return err
	}

	providers, err := a.initObs(obsCfg)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	a.providers = providers

	return nil
}

func (a *App) observabilityConfig(cmd *cobra.Command) (observability.Config, error) {
	level, err := observability.ParseLogLevel(a.cfg.Logging.Level)
	if err != nil {
		return observability.Config{}, err
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Environment = a.cfg.Telemetry.Environment
	obsCfg.OTLPEndpoint = a.cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPInsecure = a.cfg.Telemetry.OTLPInsecure
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(a.cfg.Telemetry.OTLPHeaders)
	obsCfg.SampleRatio = a.cfg.Telemetry.SampleRatio
	obsCfg.MetricsFile = a.cfg.Telemetry.MetricsFile
	obsCfg.LogLevel = level
	obsCfg.LogJSON = a.cfg.Logging.Format == "json"
	obsCfg.LogWriter = cmd.ErrOrStderr()

	if cmd.Name() == "run" {
		obsCfg.Mode = observability.ModeWorkload
	}

	return obsCfg, nil
}

// runE wraps a command body so that telemetry is flushed whether or not the
// body fails.
func (a *App) runE(body func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			err = errors.Join(err, a.teardown(cmd.Context()))
		}()

		return body(cmd, args)
	}
}

func (a *App) teardown(ctx context.Context) error {
	if a.providers.Shutdown == nil {
		return nil
	}

	err := a.providers.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("observability shutdown: %w", err)
	}

	return nil
}

func (a *App) logger() *slog.Logger {
	return a.providers.Logger
}

func (a *App) renderer(out io.Writer) (*report.Renderer, error) {
	return report.New(out, report.Config{
		Format:  a.cfg.Output.Format,
		MaxRuns: a.cfg.Output.MaxRuns,
		Color:   a.cfg.Output.Color,
	})
}

func newVersionCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: app.runE(func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.String())

			return err
		}),
	}
}

// color returns a printer honoring the output.color setting.
func (a *App) color(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if !a.cfg.Output.Color {
		c.DisableColor()
	}

	return c
}
