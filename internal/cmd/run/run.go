// Package run implements the full validation pipeline command.
package run

import (
	"github.com/spf13/cobra"

	"github.com/streamdeploy/fleetcheck/internal/checks"
	"github.com/streamdeploy/fleetcheck/internal/cmdutil"
)

// NewCmdRun creates the run command.
func NewCmdRun(f *cmdutil.Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the full validation pipeline",
		Long: `Runs every validation stage in order: test dependencies, image build,
fleet integration, production configuration, smoke test, multi-arch build,
and cleanup. Stage failures are recorded and the run continues; the exit
code is non-zero when any stage failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return checks.Execute(f, checks.FullRun(f)...)
		},
	}
}
