// Package cmdutil provides shared dependencies and error types for
// fleetcheck commands.
package cmdutil

import (
	"context"

	"github.com/streamdeploy/fleetcheck/internal/config"
	"github.com/streamdeploy/fleetcheck/internal/docker"
	"github.com/streamdeploy/fleetcheck/internal/harness/exec"
	"github.com/streamdeploy/fleetcheck/internal/iostreams"
)

// Factory provides shared dependencies for CLI commands.
// It is a dependency injection container: the struct defines what
// dependencies exist, while internal/cmd/factory wires the real
// implementations. Tests construct &cmdutil.Factory{} directly.
type Factory struct {
	// Flag-derived settings (set before command execution).
	Verbose    bool
	Quick      bool
	Debug      bool
	ConfigFile string

	// Version info (set at build time via ldflags).
	Version string
	Commit  string

	// IO streams for input/output (for testability).
	IOStreams *iostreams.IOStreams

	// Dependency providers (closures wired by the factory constructor,
	// lazy where construction can fail or is expensive).
	Exec        func() exec.Execer
	Config      func() (*config.Config, error)
	Client      func(context.Context) (docker.API, error)
	CloseClient func()
}
