// Package integration implements the fleet integration suite command.
package integration

import (
	"github.com/spf13/cobra"

	"github.com/streamdeploy/fleetcheck/internal/checks"
	integrationchecks "github.com/streamdeploy/fleetcheck/internal/checks/integration"
	"github.com/streamdeploy/fleetcheck/internal/cmdutil"
)

// NewCmdIntegration creates the integration command.
func NewCmdIntegration(f *cmdutil.Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "integration",
		Short: "Run the fleet integration suite",
		Long: `Runs the container the way a StreamDeploy fleet manager would and
checks its behavior: provisioning environment, health check wiring, port
reachability, graceful shutdown, resource limits, and startup log markers.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return checks.Execute(f, integrationchecks.Stage(f), checks.CleanupStage(f))
		},
	}
}
