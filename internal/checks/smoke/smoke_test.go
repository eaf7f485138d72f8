package smoke

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/streamdeploy/fleetcheck/internal/cmdutil"
	"github.com/streamdeploy/fleetcheck/internal/config"
	"github.com/streamdeploy/fleetcheck/internal/harness/exec"
	"github.com/streamdeploy/fleetcheck/internal/harness/exec/exectest"
	"github.com/streamdeploy/fleetcheck/internal/iostreams/iostreamstest"
)

func testFactory(cfg *config.Config, script *exectest.Script) *cmdutil.Factory {
	ios := iostreamstest.New()
	return &cmdutil.Factory{
		IOStreams: ios.IOStreams,
		Exec:      func() exec.Execer { return script },
		Config:    func() (*config.Config, error) { return cfg, nil },
	}
}

func TestStagePasses(t *testing.T) {
	cfg := config.DefaultConfig()
	script := exectest.New().
		Stub([]string{"docker", "run", "--rm"},
			exectest.Response{Stdout: "Smoke test passed\n"})

	stage := Stage(testFactory(cfg, script))
	assert.Equal(t, StageName, stage.Name)
	assert.True(t, stage.Run(context.Background()))

	assert.True(t, script.CalledWith("docker", "build", "--tag", cfg.TestTag("smoke-test")))
	assert.True(t, script.CalledWith("docker", "run", "--rm", cfg.TestTag("smoke-test")))
}

func TestStageFailsWhenBuildFails(t *testing.T) {
	cfg := config.DefaultConfig()
	script := exectest.New().StubFail([]string{"docker", "build"}, "build error")

	assert.False(t, Stage(testFactory(cfg, script)).Run(context.Background()))
	assert.False(t, script.CalledWith("docker", "run"), "no run after a failed build")
}

func TestStageFailsWhenEntrypointFails(t *testing.T) {
	cfg := config.DefaultConfig()
	script := exectest.New().
		StubFail([]string{"docker", "run", "--rm"}, "ModuleNotFoundError: lerobot")

	assert.False(t, Stage(testFactory(cfg, script)).Run(context.Background()))
}

func TestStageFailsWithoutMarker(t *testing.T) {
	cfg := config.DefaultConfig()
	script := exectest.New().
		Stub([]string{"docker", "run", "--rm"}, exectest.Response{Stdout: "started\n"})

	assert.False(t, Stage(testFactory(cfg, script)).Run(context.Background()))
}
