// Package smoke implements the smoke_test stage: a fresh build plus one
// end-to-end run of the robot entrypoint import path.
package smoke

import (
	"context"
	"strings"

	"github.com/streamdeploy/fleetcheck/internal/checks/checkutil"
	"github.com/streamdeploy/fleetcheck/internal/cmdutil"
	"github.com/streamdeploy/fleetcheck/internal/config"
	"github.com/streamdeploy/fleetcheck/internal/harness"
	"github.com/streamdeploy/fleetcheck/internal/harness/exec"
	"github.com/streamdeploy/fleetcheck/internal/logger"
)

// StageName identifies the smoke stage in the run report.
const StageName = "smoke_test"

// Stage returns the smoke_test stage.
func Stage(f *cmdutil.Factory) harness.Stage {
	return harness.Stage{
		Name: StageName,
		Run: func(ctx context.Context) bool {
			cfg, err := f.Config()
			if err != nil {
				logger.Error().Err(err).Msg("config load failed")
				return false
			}
			s := &suite{cfg: cfg, execer: f.Exec()}
			return checkutil.RunAll(ctx, f.IOStreams, s.checks())
		},
	}
}

type suite struct {
	cfg    *config.Config
	execer exec.Execer
	tag    string
}

func (s *suite) checks() []checkutil.Check {
	return []checkutil.Check{
		{Name: "smoke image build", Fn: s.build},
		{Name: "entrypoint import path", Fn: s.entrypoint},
	}
}

func (s *suite) build(ctx context.Context) bool {
	tag := s.cfg.TestTag("smoke-test")
	if res := s.execer.Run(ctx, "Building "+tag,
		"docker", "build", "--tag", tag, s.cfg.Image.Context); !res.Success() {
		return false
	}
	s.tag = tag
	return true
}

// entrypoint imports the host entrypoint module inside the container and
// requires the success marker on stdout.
func (s *suite) entrypoint(ctx context.Context) bool {
	if s.tag == "" {
		return false
	}

	argv := append([]string{"docker", "run", "--rm", s.tag}, s.cfg.Runtime.SmokeCheck...)
	res := s.execer.Run(ctx, "Running smoke check", argv...)
	if !res.Success() {
		return false
	}
	if !strings.Contains(res.Stdout, s.cfg.Runtime.SmokeMarker) {
		logger.Error().
			Str("marker", s.cfg.Runtime.SmokeMarker).
			Msg("smoke marker missing from output")
		return false
	}
	return true
}
