// Package fleetcheck contains the CLI entry point.
package fleetcheck

import (
	"errors"
	"fmt"
	"os"

	"github.com/streamdeploy/fleetcheck/internal/cmd/factory"
	"github.com/streamdeploy/fleetcheck/internal/cmd/root"
	"github.com/streamdeploy/fleetcheck/internal/cmdutil"
	"github.com/streamdeploy/fleetcheck/internal/logger"
)

// Version info, set at build time via ldflags.
var (
	Version = "dev"
	Commit  = ""
)

// Main runs the CLI and returns the process exit code.
func Main() int {
	defer logger.CloseFileWriter()

	f := factory.New(Version, Commit)
	defer func() {
		if f.CloseClient != nil {
			f.CloseClient()
		}
	}()

	rootCmd := root.NewCmdRoot(f)

	if err := rootCmd.Execute(); err != nil {
		var exitErr *cmdutil.ExitError
		var flagErr *cmdutil.FlagError

		switch {
		case errors.As(err, &exitErr):
			return exitErr.Code
		case errors.Is(err, cmdutil.SilentError):
			return 1
		case errors.As(err, &flagErr):
			fmt.Fprintln(os.Stderr, err)
			fmt.Fprintln(os.Stderr, rootCmd.UsageString())
			return 2
		default:
			cs := f.IOStreams.ColorScheme()
			fmt.Fprintf(f.IOStreams.ErrOut, "%s %s\n", cs.FailureIcon(), err)
			return 1
		}
	}
	return 0
}
