// Package integration implements the streamdeploy_integration stage:
// container behavior under fleet-manager conditions: provisioning
// environment, health-check wiring, port reachability, graceful shutdown,
// resource limits, and startup log markers.
package integration

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/streamdeploy/fleetcheck/internal/checks/checkutil"
	"github.com/streamdeploy/fleetcheck/internal/cmdutil"
	"github.com/streamdeploy/fleetcheck/internal/config"
	"github.com/streamdeploy/fleetcheck/internal/docker"
	"github.com/streamdeploy/fleetcheck/internal/harness"
	"github.com/streamdeploy/fleetcheck/internal/harness/exec"
	"github.com/streamdeploy/fleetcheck/internal/logger"
)

// StageName identifies the integration stage in the run report.
const StageName = "streamdeploy_integration"

// Stage returns the streamdeploy_integration stage.
func Stage(f *cmdutil.Factory) harness.Stage {
	return harness.Stage{
		Name: StageName,
		Run: func(ctx context.Context) bool {
			cfg, err := f.Config()
			if err != nil {
				logger.Error().Err(err).Msg("config load failed")
				return false
			}
			client, err := f.Client(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("docker api client unavailable")
				return false
			}

			s := &suite{cfg: cfg, execer: f.Exec(), client: client}

			tag := cfg.TestTag("streamdeploy-test")
			if res := s.execer.Run(ctx, "Building "+tag,
				"docker", "build", "--tag", tag, cfg.Image.Context); !res.Success() {
				return false
			}
			s.tag = tag

			return checkutil.RunAll(ctx, f.IOStreams, s.checks())
		},
	}
}

type suite struct {
	cfg    *config.Config
	execer exec.Execer
	client docker.API
	tag    string
}

func (s *suite) checks() []checkutil.Check {
	return []checkutil.Check{
		{Name: "startup with fleet environment", Fn: s.startupEnv},
		{Name: "health check wiring", Fn: s.healthCheck},
		{Name: "command/observation port reachability", Fn: s.ports},
		{Name: "graceful shutdown within grace period", Fn: s.gracefulShutdown},
		{Name: "runs under resource constraints", Fn: s.resourceConstraints},
		{Name: "startup log markers", Fn: s.logMarkers},
	}
}

// startupEnv starts the container with fleet provisioning variables and
// verifies they reach the process environment.
func (s *suite) startupEnv(ctx context.Context) bool {
	name := checkutil.ContainerName("startup")
	defer checkutil.RemoveContainer(ctx, s.execer, name)

	fixture := s.cfg.Fleet.Fixtures[0]
	argv := []string{"docker", "run", "-d", "--name", name}
	for key, value := range fixture.Env {
		argv = append(argv, "-e", key+"="+value)
	}
	argv = append(argv, s.tag)

	if res := s.execer.Run(ctx, "Starting container with fleet env", argv...); !res.Success() {
		return false
	}
	checkutil.Settle(ctx, 2*time.Second)

	running, err := s.client.IsRunning(ctx, name)
	if err != nil || !running {
		logger.Error().Err(err).Str("container", name).Msg("container not running after start")
		return false
	}

	env := s.execer.Run(ctx, "Reading container env", "docker", "exec", name, "env")
	if !env.Success() {
		return false
	}
	for key, value := range fixture.Env {
		if !strings.Contains(env.Stdout, key+"="+value) {
			logger.Error().Str("var", key).Msg("fleet env var not set in container")
			return false
		}
	}
	return true
}

// healthCheck starts the container with an aggressive health check schedule
// and verifies the health state machine engages. The host process is not
// actually running, so "starting" or "unhealthy" both prove the wiring.
func (s *suite) healthCheck(ctx context.Context) bool {
	name := checkutil.ContainerName("health")
	defer checkutil.RemoveContainer(ctx, s.execer, name)

	if res := s.execer.Run(ctx, "Starting container with health check",
		"docker", "run", "-d", "--name", name,
		"--health-interval=10s",
		"--health-timeout=5s",
		"--health-retries=3",
		s.tag); !res.Success() {
		return false
	}
	checkutil.Settle(ctx, 15*time.Second)

	status, err := s.client.HealthStatus(ctx, name)
	if err != nil {
		logger.Error().Err(err).Msg("health inspect failed")
		return false
	}
	if status != "starting" && status != "unhealthy" {
		logger.Error().Str("status", status).Msg("unexpected health status")
		return false
	}
	return true
}

// ports maps the command and observation ports to free host ports and
// checks TCP reachability. At least one must accept connections while the
// container is up (mirrors the fleet controller's reachability probe).
func (s *suite) ports(ctx context.Context) bool {
	cmdPort, err := checkutil.FreePort()
	if err != nil {
		logger.Error().Err(err).Msg("no free port for command channel")
		return false
	}
	obsPort, err := checkutil.FreePort()
	if err != nil {
		logger.Error().Err(err).Msg("no free port for observation channel")
		return false
	}

	name := checkutil.ContainerName("ports")
	defer checkutil.RemoveContainer(ctx, s.execer, name)

	if res := s.execer.Run(ctx, "Starting container with mapped ports",
		"docker", "run", "-d", "--name", name,
		"-p", fmt.Sprintf("%d:%d", cmdPort, s.cfg.Ports.Command),
		"-p", fmt.Sprintf("%d:%d", obsPort, s.cfg.Ports.Observation),
		s.tag); !res.Success() {
		return false
	}
	checkutil.Settle(ctx, 3*time.Second)

	cmdOK := checkutil.PortReachable(cmdPort, time.Second)
	obsOK := checkutil.PortReachable(obsPort, time.Second)
	if !cmdOK && !obsOK {
		logger.Error().
			Int("command_port", cmdPort).
			Int("observation_port", obsPort).
			Msg("no mapped port accepting connections")
		return false
	}
	return true
}

// gracefulShutdown sends SIGTERM via docker stop and requires a clean exit
// within the configured grace period.
func (s *suite) gracefulShutdown(ctx context.Context) bool {
	name := checkutil.ContainerName("shutdown")
	defer checkutil.RemoveContainer(ctx, s.execer, name)

	if res := s.execer.Run(ctx, "Starting container for shutdown test",
		"docker", "run", "-d", "--name", name, s.tag); !res.Success() {
		return false
	}
	checkutil.Settle(ctx, 2*time.Second)

	grace := s.cfg.Stop.GraceSeconds
	start := time.Now()
	stop := s.execer.Run(ctx, "Stopping container gracefully",
		"docker", "stop", "--time", fmt.Sprintf("%d", grace), name)
	elapsed := time.Since(start)

	if !stop.Success() {
		return false
	}
	if elapsed >= time.Duration(grace)*time.Second {
		logger.Error().Dur("elapsed", elapsed).Int("grace_seconds", grace).
			Msg("shutdown exceeded grace period, container was killed")
		return false
	}

	code, err := s.client.ExitCode(ctx, name)
	if err != nil {
		logger.Error().Err(err).Msg("exit code inspect failed")
		return false
	}
	if code != 0 {
		logger.Error().Int("exit_code", code).Msg("container did not exit cleanly")
		return false
	}
	return true
}

// resourceConstraints runs the container under the standard resource
// profile and verifies it stays up and reports stats.
func (s *suite) resourceConstraints(ctx context.Context) bool {
	profile := s.cfg.Resources[0]
	for _, p := range s.cfg.Resources {
		if p.Name == "standard" {
			profile = p
		}
	}

	name := checkutil.ContainerName("resources")
	defer checkutil.RemoveContainer(ctx, s.execer, name)

	if res := s.execer.Run(ctx, "Starting container with resource limits",
		"docker", "run", "-d", "--name", name,
		"--memory", profile.Memory,
		"--cpus", profile.CPUs,
		s.tag); !res.Success() {
		return false
	}
	checkutil.Settle(ctx, 3*time.Second)

	running, err := s.client.IsRunning(ctx, name)
	if err != nil || !running {
		logger.Error().Err(err).Msg("container not running under resource limits")
		return false
	}

	stats := s.execer.Run(ctx, "Reading container stats",
		"docker", "stats", "--no-stream", "--format", "{{.MemUsage}}", name)
	return stats.Success()
}

// logMarkers verifies the container emits the documented startup markers,
// which the fleet's log collection keys on.
func (s *suite) logMarkers(ctx context.Context) bool {
	name := checkutil.ContainerName("logging")
	defer checkutil.RemoveContainer(ctx, s.execer, name)

	if res := s.execer.Run(ctx, "Starting container for log capture",
		"docker", "run", "-d", "--name", name, s.tag); !res.Success() {
		return false
	}
	checkutil.Settle(ctx, 5*time.Second)

	logs := s.execer.Run(ctx, "Fetching container logs", "docker", "logs", name)
	if !logs.Success() {
		return false
	}
	output := logs.Output()
	if output == "" {
		logger.Error().Msg("container produced no logs")
		return false
	}

	for _, marker := range s.cfg.Runtime.StartupMarkers {
		if !strings.Contains(output, marker) {
			logger.Error().Str("marker", marker).Msg("startup marker missing from logs")
			return false
		}
	}
	return true
}
