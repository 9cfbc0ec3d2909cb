package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/runstore/pkg/observability"
)

// NewRootCommandForTest builds the command tree with a custom observability
// initializer.
func NewRootCommandForTest(initObs func(observability.Config) (observability.Providers, error)) *cobra.Command {
	return newRootCommandWithDeps(initObs)
}
