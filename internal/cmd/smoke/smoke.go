// Package smoke implements the smoke test suite command.
package smoke

import (
	"github.com/spf13/cobra"

	"github.com/streamdeploy/fleetcheck/internal/checks"
	smokechecks "github.com/streamdeploy/fleetcheck/internal/checks/smoke"
	"github.com/streamdeploy/fleetcheck/internal/cmdutil"
)

// NewCmdSmoke creates the smoke command.
func NewCmdSmoke(f *cmdutil.Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "smoke",
		Short: "Run the smoke test suite",
		Long: `Builds the image and runs the robot entrypoint import path once,
verifying the success marker. The fastest signal that the image works.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return checks.Execute(f, smokechecks.Stage(f), checks.CleanupStage(f))
		},
	}
}
