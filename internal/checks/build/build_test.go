package build

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamdeploy/fleetcheck/internal/cmdutil"
	"github.com/streamdeploy/fleetcheck/internal/config"
	"github.com/streamdeploy/fleetcheck/internal/harness/exec"
	"github.com/streamdeploy/fleetcheck/internal/harness/exec/exectest"
	"github.com/streamdeploy/fleetcheck/internal/iostreams/iostreamstest"
)

func testFactory(t *testing.T, cfg *config.Config, script *exectest.Script) *cmdutil.Factory {
	t.Helper()
	ios := iostreamstest.New()
	return &cmdutil.Factory{
		IOStreams: ios.IOStreams,
		Exec:      func() exec.Execer { return script },
		Config:    func() (*config.Config, error) { return cfg, nil },
	}
}

// contextWithDockerfile writes a minimal Dockerfile and points the config
// at it.
func contextWithDockerfile(t *testing.T, cfg *config.Config) {
	t.Helper()
	dir := t.TempDir()
	dockerfile := "FROM python:3.11-slim\nUSER robot\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte(dockerfile), 0o644))
	cfg.Image.Context = dir
}

// passingScript scripts every in-container probe the suite runs.
func passingScript(cfg *config.Config) *exectest.Script {
	return exectest.New().
		Stub([]string{"docker", "run", "--rm", cfg.TestTag("test-structure")},
			exectest.Response{Stdout: "Dependencies OK\n"}).
		Stub([]string{"docker", "run", "--rm", cfg.TestTag("test-security"), "whoami"},
			exectest.Response{Stdout: "robot\n"}).
		Stub([]string{"docker", "run", "--rm", cfg.TestTag("test-security"), "id"},
			exectest.Response{Stdout: "uid=1000(robot) gid=1000(robot) groups=1000(robot)\n"}).
		Stub([]string{"docker", "run", "--rm", cfg.TestTag("test-env"), "env"},
			exectest.Response{Stdout: "ROBOT_ID=my-kiwi\nDEPLOY_ENV=production\nPATH=/usr/bin\n"}).
		Stub([]string{"docker", "run", "--rm", cfg.TestTag("test-health"), "pgrep"},
			exectest.Response{ExitCode: 1})
}

func TestStagePasses(t *testing.T) {
	cfg := config.DefaultConfig()
	contextWithDockerfile(t, cfg)
	script := passingScript(cfg)

	stage := Stage(testFactory(t, cfg, script))
	assert.Equal(t, StageName, stage.Name)
	assert.True(t, stage.Run(context.Background()))

	assert.True(t, script.CalledWith("docker", "build", "--platform", "linux/amd64"))
	assert.True(t, script.CalledWith("docker", "buildx", "build", "--platform", "linux/arm64"))
}

func TestStageFailsWhenDockerfileMissing(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Image.Context = t.TempDir()
	script := passingScript(cfg)

	assert.False(t, Stage(testFactory(t, cfg, script)).Run(context.Background()))
}

func TestStageFailsOnWrongBaseImage(t *testing.T) {
	cfg := config.DefaultConfig()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Dockerfile"),
		[]byte("FROM ubuntu:24.04\n"), 0o644))
	cfg.Image.Context = dir

	assert.False(t, Stage(testFactory(t, cfg, passingScript(cfg))).Run(context.Background()))
}

func TestStageFailsWhenBuildFails(t *testing.T) {
	cfg := config.DefaultConfig()
	contextWithDockerfile(t, cfg)
	script := passingScript(cfg).
		StubFail([]string{"docker", "build", "--platform", "linux/amd64"}, "build error")

	assert.False(t, Stage(testFactory(t, cfg, script)).Run(context.Background()))
}

func TestStageSkipsArm64WithoutBuildx(t *testing.T) {
	cfg := config.DefaultConfig()
	contextWithDockerfile(t, cfg)
	script := passingScript(cfg).
		StubFail([]string{"docker", "buildx", "version"}, "not a docker command")

	assert.True(t, Stage(testFactory(t, cfg, script)).Run(context.Background()))
	assert.False(t, script.CalledWith("docker", "buildx", "build"))
}

func TestStageFailsOnMissingImportMarker(t *testing.T) {
	cfg := config.DefaultConfig()
	contextWithDockerfile(t, cfg)
	script := passingScript(cfg).
		Stub([]string{"docker", "run", "--rm", cfg.TestTag("test-structure")},
			exectest.Response{Stdout: "something else\n"})

	assert.False(t, Stage(testFactory(t, cfg, script)).Run(context.Background()))
}

func TestStageFailsOnRootUser(t *testing.T) {
	cfg := config.DefaultConfig()
	contextWithDockerfile(t, cfg)
	script := passingScript(cfg).
		Stub([]string{"docker", "run", "--rm", cfg.TestTag("test-security"), "whoami"},
			exectest.Response{Stdout: "root\n"})

	assert.False(t, Stage(testFactory(t, cfg, script)).Run(context.Background()))
}

func TestStageFailsOnMissingDefaultEnv(t *testing.T) {
	cfg := config.DefaultConfig()
	contextWithDockerfile(t, cfg)
	script := passingScript(cfg).
		Stub([]string{"docker", "run", "--rm", cfg.TestTag("test-env"), "env"},
			exectest.Response{Stdout: "PATH=/usr/bin\n"})

	assert.False(t, Stage(testFactory(t, cfg, script)).Run(context.Background()))
}

func TestStageFailsWhenHealthProcessUnexpectedlyFound(t *testing.T) {
	cfg := config.DefaultConfig()
	contextWithDockerfile(t, cfg)
	// pgrep exiting 0 means the probe matched a process in a bare run,
	// which points at a broken probe pattern.
	script := passingScript(cfg).
		Stub([]string{"docker", "run", "--rm", cfg.TestTag("test-health"), "pgrep"},
			exectest.Response{Stdout: "1\n", ExitCode: 0})

	assert.False(t, Stage(testFactory(t, cfg, script)).Run(context.Background()))
}
