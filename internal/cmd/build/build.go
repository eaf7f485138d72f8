// Package build implements the image build suite command.
package build

import (
	"github.com/spf13/cobra"

	"github.com/streamdeploy/fleetcheck/internal/checks"
	buildchecks "github.com/streamdeploy/fleetcheck/internal/checks/build"
	"github.com/streamdeploy/fleetcheck/internal/cmdutil"
)

// NewCmdBuild creates the build command.
func NewCmdBuild(f *cmdutil.Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Run the image build validation suite",
		Long: `Validates the Dockerfile and the built image: base image, amd64 and
arm64 builds, importable runtime dependencies, non-root user identity,
baked-in environment, and the health probe command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return checks.Execute(f, buildchecks.Stage(f), checks.CleanupStage(f))
		},
	}
}
