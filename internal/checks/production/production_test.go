package production

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/streamdeploy/fleetcheck/internal/checks/checkutil"
	"github.com/streamdeploy/fleetcheck/internal/config"
	"github.com/streamdeploy/fleetcheck/internal/docker/dockertest"
	"github.com/streamdeploy/fleetcheck/internal/harness/exec/exectest"
)

func testSuite(cfg *config.Config, script *exectest.Script, stub *dockertest.Stub) *suite {
	return &suite{
		cfg:    cfg,
		execer: script,
		client: stub,
		tag:    cfg.TestTag("config-test"),
	}
}

func allFixtureVars(cfg *config.Config) string {
	var b strings.Builder
	for _, fx := range cfg.Fleet.Fixtures {
		for key, value := range fx.Env {
			b.WriteString(key + "=" + value + "\n")
		}
	}
	return b.String()
}

func TestBootstrapTokensRunsEveryFixture(t *testing.T) {
	defer checkutil.StubSettle()()
	cfg := config.DefaultConfig()

	// One combined env output satisfies every fixture's assertions.
	script := exectest.New().
		Stub([]string{"docker", "exec"}, exectest.Response{Stdout: allFixtureVars(cfg)})
	s := testSuite(cfg, script, &dockertest.Stub{})

	assert.True(t, s.bootstrapTokens(context.Background()))

	runs := 0
	for _, call := range script.Calls() {
		if len(call) >= 3 && call[0] == "docker" && call[1] == "run" {
			runs++
		}
	}
	assert.Equal(t, len(cfg.Fleet.Fixtures), runs)
}

func TestBootstrapTokensFailsWhenTokenMissing(t *testing.T) {
	defer checkutil.StubSettle()()
	cfg := config.DefaultConfig()

	script := exectest.New().
		Stub([]string{"docker", "exec"}, exectest.Response{Stdout: "PATH=/usr/bin\n"})
	s := testSuite(cfg, script, &dockertest.Stub{})

	assert.False(t, s.bootstrapTokens(context.Background()))
}

func TestNetworkConfigs(t *testing.T) {
	defer checkutil.StubSettle()()
	cfg := config.DefaultConfig()

	script := exectest.New()
	s := testSuite(cfg, script, &dockertest.Stub{RunningDefault: true})

	assert.True(t, s.networkConfigs(context.Background()))

	lines := script.CallLines()
	var hostMode, published bool
	for _, line := range lines {
		if strings.Contains(line, "--network host") {
			hostMode = true
		}
		if strings.Contains(line, ":5555") {
			published = true
		}
	}
	assert.True(t, hostMode, "expected a host network run, got:\n%s", strings.Join(lines, "\n"))
	assert.True(t, published, "expected a bridge run publishing the command port")
}

func TestNetworkConfigsFailWhenContainerDies(t *testing.T) {
	defer checkutil.StubSettle()()
	cfg := config.DefaultConfig()
	s := testSuite(cfg, exectest.New(), &dockertest.Stub{RunningDefault: false})

	assert.False(t, s.networkConfigs(context.Background()))
}

func TestVolumeMountsFailWhenWriteNotVisible(t *testing.T) {
	defer checkutil.StubSettle()()
	cfg := config.DefaultConfig()

	// The scripted exec cannot create the file on the host, so the
	// visibility assertion must fail.
	s := testSuite(cfg, exectest.New(), &dockertest.Stub{})
	assert.False(t, s.volumeMounts(context.Background()))
}

func TestSecrets(t *testing.T) {
	defer checkutil.StubSettle()()
	cfg := config.DefaultConfig()

	// One response satisfies both the token and the certificate read.
	script := exectest.New().Stub(
		[]string{"docker", "exec"},
		exectest.Response{Stdout: "secret-bootstrap-token-12345\n-----BEGIN CERTIFICATE-----\n"})

	s := testSuite(cfg, script, &dockertest.Stub{})
	assert.True(t, s.secrets(context.Background()))

	mounted := false
	for _, line := range script.CallLines() {
		if strings.Contains(line, cfg.Secrets.MountDir+":ro") {
			mounted = true
		}
	}
	assert.True(t, mounted, "secrets must be mounted read-only")
}

func TestSecretsFailWhenUnreadable(t *testing.T) {
	defer checkutil.StubSettle()()
	cfg := config.DefaultConfig()

	script := exectest.New().
		StubFail([]string{"docker", "exec"}, "cat: permission denied")
	s := testSuite(cfg, script, &dockertest.Stub{})

	assert.False(t, s.secrets(context.Background()))
}

func TestMultiRobot(t *testing.T) {
	defer checkutil.StubSettle()()
	cfg := config.DefaultConfig()

	script := exectest.New()
	s := testSuite(cfg, script, &dockertest.Stub{RunningDefault: true})

	assert.True(t, s.multiRobot(context.Background()))

	lines := script.CallLines()
	for _, id := range []string{"robot-001", "robot-002", "robot-003"} {
		found := false
		for _, line := range lines {
			if strings.Contains(line, "ROBOT_ID="+id) {
				found = true
			}
		}
		assert.True(t, found, "expected a run for %s", id)
	}
}

func TestMultiRobotFailsWhenOneDies(t *testing.T) {
	defer checkutil.StubSettle()()
	cfg := config.DefaultConfig()
	s := testSuite(cfg, exectest.New(), &dockertest.Stub{RunningDefault: false})

	assert.False(t, s.multiRobot(context.Background()))
}

func TestResourceProfiles(t *testing.T) {
	defer checkutil.StubSettle()()
	cfg := config.DefaultConfig()

	script := exectest.New().
		Stub([]string{"docker", "stats"},
			exectest.Response{Stdout: `{"MemUsage":"48MiB / 512MiB"}` + "\n"})
	s := testSuite(cfg, script, &dockertest.Stub{RunningDefault: true})

	assert.True(t, s.resourceProfiles(context.Background()))

	// Every configured profile gets its own constrained run.
	lines := strings.Join(script.CallLines(), "\n")
	for _, profile := range cfg.Resources {
		assert.Contains(t, lines, "--memory "+profile.Memory)
	}
}

func TestResourceProfilesFailWithoutStats(t *testing.T) {
	defer checkutil.StubSettle()()
	cfg := config.DefaultConfig()

	script := exectest.New().
		Stub([]string{"docker", "stats"}, exectest.Response{Stdout: "no fields here\n"})
	s := testSuite(cfg, script, &dockertest.Stub{RunningDefault: true})

	assert.False(t, s.resourceProfiles(context.Background()))
}
