// Package production implements the production_config stage: provisioning
// fixtures, network configurations, volume mounts, secrets handling,
// multi-robot co-deployment, and resource profile compliance.
package production

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
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

// StageName identifies the production config stage in the run report.
const StageName = "production_config"

// Stage returns the production_config stage.
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

			tag := cfg.TestTag("config-test")
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
		{Name: "bootstrap token injection", Fn: s.bootstrapTokens},
		{Name: "network configurations", Fn: s.networkConfigs},
		{Name: "volume mounts", Fn: s.volumeMounts},
		{Name: "secrets management", Fn: s.secrets},
		{Name: "multi-robot deployment", Fn: s.multiRobot},
		{Name: "resource limit profiles", Fn: s.resourceProfiles},
	}
}

// bootstrapTokens replays every provisioning fixture and verifies the
// injected variables are visible inside the container.
func (s *suite) bootstrapTokens(ctx context.Context) bool {
	for _, fixture := range s.cfg.Fleet.Fixtures {
		if !s.runFixture(ctx, fixture) {
			return false
		}
	}
	return true
}

func (s *suite) runFixture(ctx context.Context, fixture config.EnvFixture) bool {
	name := checkutil.ContainerName("fixture-" + fixture.Name)
	defer checkutil.RemoveContainer(ctx, s.execer, name)

	argv := []string{"docker", "run", "-d", "--name", name}
	for key, value := range fixture.Env {
		argv = append(argv, "-e", key+"="+value)
	}
	argv = append(argv, s.tag)

	if res := s.execer.Run(ctx, "Starting fixture "+fixture.Name, argv...); !res.Success() {
		return false
	}
	checkutil.Settle(ctx, 2*time.Second)

	env := s.execer.Run(ctx, "Reading fixture env", "docker", "exec", name, "env")
	if !env.Success() {
		return false
	}
	for key, value := range fixture.Env {
		if !strings.Contains(env.Stdout, key+"="+value) {
			logger.Error().
				Str("fixture", fixture.Name).
				Str("var", key).
				Msg("fixture env var not set in container")
			return false
		}
	}
	return true
}

// networkConfigs verifies the image starts under the network modes fleet
// deployments use: host networking, bridge with default publishing, and
// bridge with remapped host ports.
func (s *suite) networkConfigs(ctx context.Context) bool {
	cmdPort, err := checkutil.FreePort()
	if err != nil {
		logger.Error().Err(err).Msg("no free command port")
		return false
	}
	obsPort, err := checkutil.FreePort()
	if err != nil {
		logger.Error().Err(err).Msg("no free observation port")
		return false
	}
	altCmd, err := checkutil.FreePort()
	if err != nil {
		logger.Error().Err(err).Msg("no free alternate command port")
		return false
	}
	altObs, err := checkutil.FreePort()
	if err != nil {
		logger.Error().Err(err).Msg("no free alternate observation port")
		return false
	}

	configs := []struct {
		name string
		args []string
	}{
		{"host-network", []string{"--network", "host"}},
		{"bridge-network", []string{
			"-p", fmt.Sprintf("%d:%d", cmdPort, s.cfg.Ports.Command),
			"-p", fmt.Sprintf("%d:%d", obsPort, s.cfg.Ports.Observation),
		}},
		{"custom-ports", []string{
			"-p", fmt.Sprintf("%d:%d", altCmd, s.cfg.Ports.Command),
			"-p", fmt.Sprintf("%d:%d", altObs, s.cfg.Ports.Observation),
		}},
	}

	for _, nc := range configs {
		if !s.runNetworkConfig(ctx, nc.name, nc.args) {
			return false
		}
	}
	return true
}

func (s *suite) runNetworkConfig(ctx context.Context, configName string, args []string) bool {
	name := checkutil.ContainerName("net-" + configName)
	defer checkutil.RemoveContainer(ctx, s.execer, name)

	argv := append([]string{"docker", "run", "-d", "--name", name}, args...)
	argv = append(argv, "-e", "ROBOT_ID=network-test-robot", s.tag)

	if res := s.execer.Run(ctx, "Starting with "+configName, argv...); !res.Success() {
		return false
	}
	checkutil.Settle(ctx, 3*time.Second)

	running, err := s.client.IsRunning(ctx, name)
	if err != nil || !running {
		logger.Error().Err(err).Str("network_config", configName).Msg("container not running")
		return false
	}
	return true
}

// volumeMounts verifies a bind-mounted data directory is writable from
// inside the container and visible on the host.
func (s *suite) volumeMounts(ctx context.Context) bool {
	hostDir, err := os.MkdirTemp("", "fleetcheck-volume-")
	if err != nil {
		logger.Error().Err(err).Msg("temp dir creation failed")
		return false
	}
	defer os.RemoveAll(hostDir)

	// The container runs as a non-root user; the mount must be writable
	// for that uid.
	if err := os.Chmod(hostDir, 0o777); err != nil {
		logger.Error().Err(err).Msg("temp dir chmod failed")
		return false
	}

	name := checkutil.ContainerName("volume")
	defer checkutil.RemoveContainer(ctx, s.execer, name)

	if res := s.execer.Run(ctx, "Starting container with data volume",
		"docker", "run", "-d", "--name", name,
		"-v", hostDir+":/data",
		"-e", "ROBOT_ID=volume-test-robot",
		s.tag); !res.Success() {
		return false
	}
	checkutil.Settle(ctx, 2*time.Second)

	if res := s.execer.Run(ctx, "Writing to mounted volume",
		"docker", "exec", name, "touch", "/data/test-file"); !res.Success() {
		return false
	}

	if _, err := os.Stat(filepath.Join(hostDir, "test-file")); err != nil {
		logger.Error().Err(err).Msg("volume write not visible on host")
		return false
	}
	return true
}

// secrets verifies files mounted read-only at the secrets path are
// readable in-container with the expected content.
func (s *suite) secrets(ctx context.Context) bool {
	secretsDir, err := os.MkdirTemp("", "fleetcheck-secrets-")
	if err != nil {
		logger.Error().Err(err).Msg("temp dir creation failed")
		return false
	}
	defer os.RemoveAll(secretsDir)

	const tokenValue = "secret-bootstrap-token-12345"
	certValue := "-----BEGIN CERTIFICATE-----\nMOCK_CERT_DATA\n-----END CERTIFICATE-----"

	tokenPath := filepath.Join(secretsDir, s.cfg.Secrets.TokenFile)
	certPath := filepath.Join(secretsDir, s.cfg.Secrets.CertFile)
	if err := os.WriteFile(tokenPath, []byte(tokenValue), 0o644); err != nil {
		logger.Error().Err(err).Msg("token fixture write failed")
		return false
	}
	if err := os.WriteFile(certPath, []byte(certValue), 0o644); err != nil {
		logger.Error().Err(err).Msg("cert fixture write failed")
		return false
	}

	name := checkutil.ContainerName("secrets")
	defer checkutil.RemoveContainer(ctx, s.execer, name)

	mountDir := s.cfg.Secrets.MountDir
	if res := s.execer.Run(ctx, "Starting container with secrets mount",
		"docker", "run", "-d", "--name", name,
		"-v", secretsDir+":"+mountDir+":ro",
		"-e", "ROBOT_ID=secrets-test-robot",
		"-e", "SD_BOOTSTRAP_TOKEN_FILE="+mountDir+"/"+s.cfg.Secrets.TokenFile,
		s.tag); !res.Success() {
		return false
	}
	checkutil.Settle(ctx, 2*time.Second)

	token := s.execer.Run(ctx, "Reading bootstrap token secret",
		"docker", "exec", name, "cat", mountDir+"/"+s.cfg.Secrets.TokenFile)
	if !token.Success() || !strings.Contains(token.Stdout, tokenValue) {
		logger.Error().Msg("bootstrap token secret not readable in container")
		return false
	}

	cert := s.execer.Run(ctx, "Reading device certificate secret",
		"docker", "exec", name, "cat", mountDir+"/"+s.cfg.Secrets.CertFile)
	if !cert.Success() || !strings.Contains(cert.Stdout, "BEGIN CERTIFICATE") {
		logger.Error().Msg("device certificate secret not readable in container")
		return false
	}
	return true
}

// multiRobot verifies three robot containers with distinct identities and
// port sets run simultaneously.
func (s *suite) multiRobot(ctx context.Context) bool {
	const robots = 3

	var names []string
	defer func() {
		for _, name := range names {
			checkutil.RemoveContainer(ctx, s.execer, name)
		}
	}()

	for i := 0; i < robots; i++ {
		robotID := fmt.Sprintf("robot-%03d", i+1)
		cmdPort, err := checkutil.FreePort()
		if err != nil {
			logger.Error().Err(err).Msg("no free command port")
			return false
		}
		obsPort, err := checkutil.FreePort()
		if err != nil {
			logger.Error().Err(err).Msg("no free observation port")
			return false
		}

		name := checkutil.ContainerName("multi-" + robotID)
		names = append(names, name)

		if res := s.execer.Run(ctx, "Starting "+robotID,
			"docker", "run", "-d", "--name", name,
			"-p", fmt.Sprintf("%d:%d", cmdPort, s.cfg.Ports.Command),
			"-p", fmt.Sprintf("%d:%d", obsPort, s.cfg.Ports.Observation),
			"-e", "ROBOT_ID="+robotID,
			"-e", "DEPLOY_ENV=multi-robot-test",
			s.tag); !res.Success() {
			return false
		}
	}

	checkutil.Settle(ctx, 5*time.Second)

	for _, name := range names {
		running, err := s.client.IsRunning(ctx, name)
		if err != nil || !running {
			logger.Error().Err(err).Str("container", name).Msg("robot container not running")
			return false
		}
	}
	return true
}

// resourceProfiles verifies the image stays up under every configured
// resource limit profile.
func (s *suite) resourceProfiles(ctx context.Context) bool {
	for i, profile := range s.cfg.Resources {
		if !s.runProfile(ctx, i, profile) {
			return false
		}
	}
	return true
}

func (s *suite) runProfile(ctx context.Context, i int, profile config.ResourceProfile) bool {
	name := checkutil.ContainerName("limits-" + profile.Name)
	defer checkutil.RemoveContainer(ctx, s.execer, name)

	if res := s.execer.Run(ctx, "Starting with profile "+profile.Name,
		"docker", "run", "-d", "--name", name,
		"--memory", profile.Memory,
		"--cpus", profile.CPUs,
		"-e", fmt.Sprintf("ROBOT_ID=limits-test-robot-%d", i),
		s.tag); !res.Success() {
		return false
	}
	checkutil.Settle(ctx, 3*time.Second)

	running, err := s.client.IsRunning(ctx, name)
	if err != nil || !running {
		logger.Error().Err(err).Str("profile", profile.Name).Msg("container not running under profile")
		return false
	}

	stats := s.execer.Run(ctx, "Reading stats for "+profile.Name,
		"docker", "stats", "--no-stream", "--format", "{{json .}}", name)
	if !stats.Success() {
		return false
	}
	// Stats output must at least carry memory usage for fleet telemetry.
	return strings.Contains(stats.Stdout, "MemUsage")
}
