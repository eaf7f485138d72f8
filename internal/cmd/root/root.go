// Package root defines the top-level fleetcheck command.
package root

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	buildCmd "github.com/streamdeploy/fleetcheck/internal/cmd/build"
	cleanupCmd "github.com/streamdeploy/fleetcheck/internal/cmd/cleanup"
	configCmd "github.com/streamdeploy/fleetcheck/internal/cmd/configcheck"
	integrationCmd "github.com/streamdeploy/fleetcheck/internal/cmd/integration"
	runCmd "github.com/streamdeploy/fleetcheck/internal/cmd/run"
	smokeCmd "github.com/streamdeploy/fleetcheck/internal/cmd/smoke"
	versionCmd "github.com/streamdeploy/fleetcheck/internal/cmd/version"
	"github.com/streamdeploy/fleetcheck/internal/cmdutil"
	"github.com/streamdeploy/fleetcheck/internal/logger"
)

// NewCmdRoot creates the root command for fleetcheck.
func NewCmdRoot(f *cmdutil.Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fleetcheck",
		Short: "Validate a robot container image for fleet deployment",
		Long: `Fleetcheck builds and exercises the LeKiwi robot container image the
way a StreamDeploy fleet would run it: multi-platform builds, provisioning
environment injection, health checks, port reachability, graceful shutdown,
secrets mounts, and resource limits.

Run the full pipeline with "fleetcheck run", or a single suite with the
suite subcommands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			initLogging(f)
			return nil
		},
	}

	// Bad flags surface as FlagError so Main prints usage after the message.
	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return cmdutil.FlagErrorf("%w", err)
	})

	pf := cmd.PersistentFlags()
	pf.BoolVarP(&f.Verbose, "verbose", "v", false, "Show output of every command the harness runs")
	pf.BoolVarP(&f.Quick, "quick", "q", false, "Skip the slow multi-arch build stage")
	pf.BoolVarP(&f.Debug, "debug", "D", false, "Enable debug logging")
	pf.StringVar(&f.ConfigFile, "config", "", "Path to fleetcheck.yaml (default: ./fleetcheck.yaml)")

	cmd.AddCommand(runCmd.NewCmdRun(f))
	cmd.AddCommand(buildCmd.NewCmdBuild(f))
	cmd.AddCommand(integrationCmd.NewCmdIntegration(f))
	cmd.AddCommand(configCmd.NewCmdConfig(f))
	cmd.AddCommand(smokeCmd.NewCmdSmoke(f))
	cmd.AddCommand(cleanupCmd.NewCmdCleanup(f))
	cmd.AddCommand(versionCmd.NewCmdVersion(f))

	return cmd
}

// initLogging sets up the global logger. File logging lands in the user
// cache directory; when that or the config is unavailable, console-only
// logging still works.
func initLogging(f *cmdutil.Factory) {
	fileCfg := &logger.FileConfig{}
	if cfg, err := f.Config(); err == nil {
		fileCfg = &logger.FileConfig{
			Enabled:    cfg.Logging.FileEnabled,
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxAgeDays: cfg.Logging.MaxAgeDays,
			MaxBackups: cfg.Logging.MaxBackups,
		}
	}

	logsDir := ""
	if cacheDir, err := os.UserCacheDir(); err == nil {
		logsDir = filepath.Join(cacheDir, "fleetcheck", "logs")
	}

	if err := logger.InitWithFile(f.Debug, logsDir, fileCfg); err != nil {
		logger.Init(f.Debug)
		logger.Warn().Err(err).Msg("file logging unavailable")
		return
	}
	if path := logger.GetLogFilePath(); path != "" {
		logger.Debug().Str("path", path).Msg("logging to file")
	}
}
