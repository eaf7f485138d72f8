// Package checks assembles the validation stages into runnable pipelines
// and provides the shared execution entrypoint used by every command.
package checks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/streamdeploy/fleetcheck/internal/checks/build"
	"github.com/streamdeploy/fleetcheck/internal/checks/checkutil"
	"github.com/streamdeploy/fleetcheck/internal/checks/integration"
	"github.com/streamdeploy/fleetcheck/internal/checks/production"
	"github.com/streamdeploy/fleetcheck/internal/checks/smoke"
	"github.com/streamdeploy/fleetcheck/internal/cmdutil"
	"github.com/streamdeploy/fleetcheck/internal/harness"
	"github.com/streamdeploy/fleetcheck/internal/logger"
	"github.com/streamdeploy/fleetcheck/internal/signals"
)

// Stage names for the stages assembled directly in this package.
const (
	DependenciesStageName = "test_dependencies"
	MultiArchStageName    = "multi_arch_build"
	CleanupStageName      = "cleanup"
)

// Prerequisites verifies the host toolchain before any stage runs. A
// failure here aborts the run without producing a report: nothing was
// tested, so there is nothing to summarize.
func Prerequisites(ctx context.Context, f *cmdutil.Factory) error {
	execer := f.Exec()

	if res := execer.Run(ctx, "Checking docker CLI", "docker", "--version"); !res.Success() {
		return fmt.Errorf("docker CLI not available: %s", strings.TrimSpace(res.Output()))
	}
	if res := execer.Run(ctx, "Checking docker daemon", "docker", "info"); !res.Success() {
		return fmt.Errorf("docker daemon not reachable: %s", strings.TrimSpace(res.Stderr))
	}
	if res := execer.Run(ctx, "Checking buildx plugin", "docker", "buildx", "version"); !res.Success() {
		return fmt.Errorf("docker buildx not available: %s", strings.TrimSpace(res.Output()))
	}
	return nil
}

// DependenciesStage prepares harness-side dependencies: the support image
// used for scratch work and a bootstrapped buildx builder for the
// multi-arch stages.
func DependenciesStage(f *cmdutil.Factory) harness.Stage {
	return harness.Stage{
		Name: DependenciesStageName,
		Run: func(ctx context.Context) bool {
			cfg, err := f.Config()
			if err != nil {
				logger.Error().Err(err).Msg("config load failed")
				return false
			}
			execer := f.Exec()

			if res := execer.Run(ctx, "Pulling "+cfg.Support.Image,
				"docker", "pull", cfg.Support.Image); !res.Success() {
				return false
			}
			// Bootstrapping starts the buildkit container so later buildx
			// invocations don't pay the startup cost mid-stage.
			if res := execer.Run(ctx, "Bootstrapping buildx builder",
				"docker", "buildx", "inspect", "--bootstrap"); !res.Success() {
				return false
			}
			return true
		},
	}
}

// MultiArchStage builds the image for every configured target platform.
// It is the long pole of a full run and is skipped in quick mode.
func MultiArchStage(f *cmdutil.Factory) harness.Stage {
	return harness.Stage{
		Name:      MultiArchStageName,
		Skippable: true,
		Run: func(ctx context.Context) bool {
			cfg, err := f.Config()
			if err != nil {
				logger.Error().Err(err).Msg("config load failed")
				return false
			}
			execer := f.Exec()

			for _, platform := range cfg.Image.Platforms {
				suffix := "test-" + strings.ReplaceAll(strings.TrimPrefix(platform, "linux/"), "/", "-")
				res := execer.Run(ctx, "Building "+platform,
					"docker", "buildx", "build",
					"--platform", platform,
					"--tag", cfg.TestTag(suffix),
					"--load",
					cfg.Image.Context)
				if !res.Success() {
					return false
				}
			}
			return true
		},
	}
}

// CleanupStage removes every test artifact the harness created: images
// matching the test tag pattern and containers carrying the harness name
// prefix. Removal faults are logged and swallowed; the stage always
// reports success so cleanup never masks the real verdict.
func CleanupStage(f *cmdutil.Factory) harness.Stage {
	return harness.Stage{
		Name: CleanupStageName,
		Run: func(ctx context.Context) bool {
			// Cleanup must run to completion even when the run context was
			// canceled by an interrupt.
			if ctx.Err() != nil {
				ctx = context.Background()
			}

			cfg, err := f.Config()
			if err != nil {
				logger.Warn().Err(err).Msg("config load failed, skipping cleanup")
				return true
			}
			client, err := f.Client(ctx)
			if err != nil {
				logger.Warn().Err(err).Msg("docker api client unavailable, skipping cleanup")
				return true
			}

			containers, err := client.ListContainersByName(ctx, checkutil.NamePrefix)
			if err != nil {
				logger.Warn().Err(err).Msg("container listing failed")
			}
			for _, c := range containers {
				if err := client.RemoveContainer(ctx, c.ID); err != nil {
					logger.Warn().Err(err).Str("container", c.ID).Msg("container removal failed")
				}
			}

			images, err := client.ListImagesByReference(ctx, cfg.TestTagPattern())
			if err != nil {
				logger.Warn().Err(err).Msg("image listing failed")
			}
			for _, id := range images {
				if err := client.RemoveImage(ctx, id); err != nil {
					logger.Warn().Err(err).Str("image", id).Msg("image removal failed")
				}
			}

			logger.Info().
				Int("containers", len(containers)).
				Int("images", len(images)).
				Msg("cleanup finished")
			return true
		},
	}
}

// FullRun returns the complete stage pipeline in execution order.
func FullRun(f *cmdutil.Factory) []harness.Stage {
	return []harness.Stage{
		DependenciesStage(f),
		build.Stage(f),
		integration.Stage(f),
		production.Stage(f),
		smoke.Stage(f),
		MultiArchStage(f),
		CleanupStage(f),
	}
}

// Execute runs the given stages under an interrupt-aware context and
// renders the summary. It returns nil only when every executed stage
// passed. Interrupts return SilentError (the summary already carries the
// interrupt banner) and stage failures exit 1.
func Execute(f *cmdutil.Factory, stages ...harness.Stage) error {
	ctx, cancel := signals.SetupSignalContext(context.Background())
	defer cancel()

	if err := Prerequisites(ctx, f); err != nil {
		return err
	}

	runner := harness.NewRunner(f.IOStreams, f.Quick, stages...)

	start := time.Now()
	report, err := runner.Run(ctx)
	elapsed := time.Since(start)

	interrupted := err != nil
	harness.Render(f.IOStreams, report, interrupted, elapsed)

	if interrupted {
		return cmdutil.SilentError
	}
	if !report.AllPassed() {
		return &cmdutil.ExitError{Code: 1}
	}
	return nil
}
