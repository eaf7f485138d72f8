// Package configcheck implements the production configuration suite command.
package configcheck

import (
	"github.com/spf13/cobra"

	"github.com/streamdeploy/fleetcheck/internal/checks"
	productionchecks "github.com/streamdeploy/fleetcheck/internal/checks/production"
	"github.com/streamdeploy/fleetcheck/internal/cmdutil"
)

// NewCmdConfig creates the config command.
func NewCmdConfig(f *cmdutil.Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Run the production configuration suite",
		Long: `Validates deployment configurations: provisioning fixtures, network
modes, volume mounts, read-only secrets, multi-robot co-deployment, and
resource limit profiles.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return checks.Execute(f, productionchecks.Stage(f), checks.CleanupStage(f))
		},
	}
}
