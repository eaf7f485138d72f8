// Package factory wires the real implementations into cmdutil.Factory.
package factory

import (
	"context"
	"os"
	"sync"

	"github.com/streamdeploy/fleetcheck/internal/cmdutil"
	"github.com/streamdeploy/fleetcheck/internal/config"
	"github.com/streamdeploy/fleetcheck/internal/docker"
	"github.com/streamdeploy/fleetcheck/internal/harness/exec"
	"github.com/streamdeploy/fleetcheck/internal/iostreams"
)

// New creates a fully-wired Factory with lazy-initialized dependency
// closures. Called exactly once at the CLI entry point. Tests should NOT
// import this package; construct &cmdutil.Factory{} directly.
func New(version, commit string) *cmdutil.Factory {
	ios := iostreams.NewIOStreams()

	// Respect NO_COLOR and non-TTY output.
	if !ios.IsOutputTTY() || os.Getenv("NO_COLOR") != "" {
		ios.SetColorEnabled(false)
	}

	f := &cmdutil.Factory{
		Version:   version,
		Commit:    commit,
		IOStreams: ios,
	}

	// Config, loaded once. The executor needs the build context directory,
	// so it depends on config and shares the sync.Once chain.
	var (
		configOnce sync.Once
		cfg        *config.Config
		cfgErr     error
	)
	f.Config = func() (*config.Config, error) {
		configOnce.Do(func() {
			var loader *config.Loader
			if f.ConfigFile != "" {
				loader = config.NewLoaderForFile(f.ConfigFile)
			} else {
				wd, err := os.Getwd()
				if err != nil {
					cfgErr = err
					return
				}
				loader = config.NewLoader(wd)
			}
			cfg, cfgErr = loader.Load()
		})
		return cfg, cfgErr
	}

	var (
		execOnce sync.Once
		execer   exec.Execer
	)
	f.Exec = func() exec.Execer {
		execOnce.Do(func() {
			dir := ""
			if c, err := f.Config(); err == nil {
				dir = c.Image.Context
			}
			execer = exec.NewRunner(ios, f.Verbose, dir)
		})
		return execer
	}

	// Docker API client, connected on first use.
	var (
		clientOnce sync.Once
		client     *docker.Client
		clientErr  error
	)
	f.Client = func(ctx context.Context) (docker.API, error) {
		clientOnce.Do(func() {
			client, clientErr = docker.NewClient(ctx)
		})
		if clientErr != nil {
			return nil, clientErr
		}
		return client, nil
	}
	f.CloseClient = func() {
		if client != nil {
			client.Close()
		}
	}

	return f
}
