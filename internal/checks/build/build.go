// Package build implements the docker_build stage: image build validation
// across target platforms, runtime dependency presence, security posture,
// baked-in environment, and the health probe command.
package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/streamdeploy/fleetcheck/internal/checks/checkutil"
	"github.com/streamdeploy/fleetcheck/internal/cmdutil"
	"github.com/streamdeploy/fleetcheck/internal/config"
	"github.com/streamdeploy/fleetcheck/internal/harness"
	"github.com/streamdeploy/fleetcheck/internal/harness/exec"
	"github.com/streamdeploy/fleetcheck/internal/logger"
)

// StageName identifies the build stage in the run report.
const StageName = "docker_build"

// Stage returns the docker_build stage.
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
}

func (s *suite) checks() []checkutil.Check {
	return []checkutil.Check{
		{Name: "Dockerfile present and uses expected base image", Fn: s.dockerfile},
		{Name: "amd64 build", Fn: s.buildAMD64},
		{Name: "arm64 build (buildx)", Fn: s.buildARM64},
		{Name: "runtime dependencies importable", Fn: s.structure},
		{Name: "runs as non-root user", Fn: s.userSecurity},
		{Name: "default environment variables", Fn: s.defaultEnv},
		{Name: "health probe command", Fn: s.healthProbe},
	}
}

// build produces a test-tagged image from the configured context.
func (s *suite) build(ctx context.Context, tag string) bool {
	res := s.execer.Run(ctx, "Building "+tag,
		"docker", "build", "--tag", tag, s.cfg.Image.Context)
	return res.Success()
}

func (s *suite) dockerfile(ctx context.Context) bool {
	path := filepath.Join(s.cfg.Image.Context, s.cfg.Image.Dockerfile)
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error().Err(err).Str("path", path).Msg("Dockerfile not readable")
		return false
	}
	if len(data) == 0 {
		logger.Error().Str("path", path).Msg("Dockerfile is empty")
		return false
	}
	if !strings.Contains(string(data), "FROM "+s.cfg.Image.BaseImage) {
		logger.Error().
			Str("expected_base", s.cfg.Image.BaseImage).
			Msg("Dockerfile does not use the expected base image")
		return false
	}
	return true
}

func (s *suite) buildAMD64(ctx context.Context) bool {
	res := s.execer.Run(ctx, "Building amd64 image",
		"docker", "build",
		"--platform", "linux/amd64",
		"--tag", s.cfg.TestTag("test-amd64"),
		s.cfg.Image.Context)
	return res.Success()
}

func (s *suite) buildARM64(ctx context.Context) bool {
	// buildx availability was verified as a prerequisite, but a builder
	// without arm64 emulation is still common on CI hosts; treat an
	// unavailable buildx as a skip, not a failure.
	if res := s.execer.Run(ctx, "Checking buildx", "docker", "buildx", "version"); !res.Success() {
		logger.Warn().Msg("buildx unavailable, skipping arm64 build check")
		return true
	}

	res := s.execer.Run(ctx, "Building arm64 image",
		"docker", "buildx", "build",
		"--platform", "linux/arm64",
		"--tag", s.cfg.TestTag("test-arm64"),
		"--load",
		s.cfg.Image.Context)
	return res.Success()
}

func (s *suite) structure(ctx context.Context) bool {
	tag := s.cfg.TestTag("test-structure")
	if !s.build(ctx, tag) {
		return false
	}

	argv := append([]string{"docker", "run", "--rm", tag}, s.cfg.Runtime.ImportCheck...)
	res := s.execer.Run(ctx, "Importing runtime dependencies", argv...)
	if !res.Success() {
		return false
	}
	// The import one-liner prints a marker on success; require it so a
	// silently broken entrypoint doesn't slip through.
	return strings.Contains(res.Stdout, s.cfg.Runtime.ImportMarker)
}

func (s *suite) userSecurity(ctx context.Context) bool {
	tag := s.cfg.TestTag("test-security")
	if !s.build(ctx, tag) {
		return false
	}

	who := s.execer.Run(ctx, "Checking container user", "docker", "run", "--rm", tag, "whoami")
	if !who.Success() || strings.TrimSpace(who.Stdout) != s.cfg.Runtime.User {
		logger.Error().
			Str("want", s.cfg.Runtime.User).
			Str("got", strings.TrimSpace(who.Stdout)).
			Msg("container user mismatch")
		return false
	}

	id := s.execer.Run(ctx, "Checking uid/gid", "docker", "run", "--rm", tag, "id")
	if !id.Success() {
		return false
	}
	wantUID := fmt.Sprintf("uid=%d(%s)", s.cfg.Runtime.UID, s.cfg.Runtime.User)
	wantGID := fmt.Sprintf("gid=%d(%s)", s.cfg.Runtime.GID, s.cfg.Runtime.User)
	return strings.Contains(id.Stdout, wantUID) && strings.Contains(id.Stdout, wantGID)
}

func (s *suite) defaultEnv(ctx context.Context) bool {
	tag := s.cfg.TestTag("test-env")
	if !s.build(ctx, tag) {
		return false
	}

	res := s.execer.Run(ctx, "Reading container environment", "docker", "run", "--rm", tag, "env")
	if !res.Success() {
		return false
	}

	for key, value := range s.cfg.Runtime.DefaultEnv {
		if !strings.Contains(res.Stdout, key+"="+value) {
			logger.Error().Str("var", key).Str("want", value).Msg("default env var missing")
			return false
		}
	}
	return true
}

func (s *suite) healthProbe(ctx context.Context) bool {
	tag := s.cfg.TestTag("test-health")
	if !s.build(ctx, tag) {
		return false
	}

	// The host process is not running in a bare `docker run`, so pgrep must
	// exit 1, proving the probe command exists and reports correctly.
	res := s.execer.Run(ctx, "Running health probe",
		"docker", "run", "--rm", tag,
		"pgrep", "-f", s.cfg.Runtime.HealthProcess)
	if res.Err != nil {
		return false
	}
	if res.ExitCode != 1 {
		logger.Error().Int("exit_code", res.ExitCode).Msg("health probe should exit 1 when process absent")
		return false
	}
	return true
}
