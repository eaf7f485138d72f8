package exec_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamdeploy/fleetcheck/internal/harness/exec"
	"github.com/streamdeploy/fleetcheck/internal/iostreams/iostreamstest"
	"github.com/streamdeploy/fleetcheck/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Init(false)
	os.Exit(m.Run())
}

func TestRunnerCapturesStdout(t *testing.T) {
	ios := iostreamstest.New()
	r := exec.NewRunner(ios.IOStreams, false, "")

	res := r.Run(context.Background(), "Echoing", "sh", "-c", "echo hello")
	require.True(t, res.Success())
	assert.Equal(t, "hello\n", res.Stdout)
	assert.Empty(t, res.Stderr)
	assert.Contains(t, ios.OutBuf.String(), "✓ Echoing")
}

func TestRunnerCapturesExitCodeAndStderr(t *testing.T) {
	ios := iostreamstest.New()
	r := exec.NewRunner(ios.IOStreams, false, "")

	res := r.Run(context.Background(), "Failing", "sh", "-c", "echo oops >&2; exit 3")
	assert.False(t, res.Success())
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "oops\n", res.Stderr)
	assert.NoError(t, res.Err)

	// Failed commands echo their captured output even without verbose.
	out := ios.OutBuf.String()
	assert.Contains(t, out, "✗ Failing (exit 3)")
	assert.Contains(t, out, "stderr: oops")
}

func TestRunnerInvocationFault(t *testing.T) {
	ios := iostreamstest.New()
	r := exec.NewRunner(ios.IOStreams, false, "")

	res := r.Run(context.Background(), "Missing binary", "/no/such/binary")
	assert.False(t, res.Success())
	assert.Equal(t, -1, res.ExitCode)
	assert.Error(t, res.Err)
}

func TestRunnerWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	ios := iostreamstest.New()
	r := exec.NewRunner(ios.IOStreams, false, dir)

	res := r.Run(context.Background(), "Reading cwd", "pwd")
	require.True(t, res.Success())
	assert.Contains(t, res.Stdout, dir)
}

func TestRunnerVerboseEchoesCommandLine(t *testing.T) {
	ios := iostreamstest.New()
	r := exec.NewRunner(ios.IOStreams, true, "")

	res := r.Run(context.Background(), "Echoing", "sh", "-c", "echo visible")
	require.True(t, res.Success())

	out := ios.OutBuf.String()
	assert.Contains(t, out, "sh -c echo visible")
	assert.Contains(t, out, "stdout: visible")
}

func TestRunnerContextCancelKillsProcess(t *testing.T) {
	ios := iostreamstest.New()
	r := exec.NewRunner(ios.IOStreams, false, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := r.Run(ctx, "Sleeping", "sleep", "10")
	assert.False(t, res.Success())
}

func TestResultOutput(t *testing.T) {
	res := &exec.Result{Stdout: "out", Stderr: "err"}
	assert.Equal(t, "outerr", res.Output())
}
