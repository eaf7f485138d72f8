// Package version implements the version command.
package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/streamdeploy/fleetcheck/internal/cmdutil"
)

// NewCmdVersion creates the version command.
func NewCmdVersion(f *cmdutil.Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print fleetcheck version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(f.IOStreams.Out, "fleetcheck %s", f.Version)
			if f.Commit != "" {
				fmt.Fprintf(f.IOStreams.Out, " (%s)", f.Commit)
			}
			fmt.Fprintln(f.IOStreams.Out)
			return nil
		},
	}
}
