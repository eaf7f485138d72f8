// Package cleanup implements the standalone cleanup command.
package cleanup

import (
	"github.com/spf13/cobra"

	"github.com/streamdeploy/fleetcheck/internal/checks"
	"github.com/streamdeploy/fleetcheck/internal/cmdutil"
)

// NewCmdCleanup creates the cleanup command.
func NewCmdCleanup(f *cmdutil.Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove test images and containers left by previous runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return checks.Execute(f, checks.CleanupStage(f))
		},
	}
}
