package harness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamdeploy/fleetcheck/internal/iostreams/iostreamstest"
)

func TestRenderSummary(t *testing.T) {
	ios := iostreamstest.New()
	r := NewRunReport()
	require.NoError(t, r.Record("docker_build", true))
	require.NoError(t, r.Record("streamdeploy_integration", false))
	require.NoError(t, r.Record("cleanup", true))

	Render(ios.IOStreams, r, false, 90*time.Second)
	out := ios.OutBuf.String()

	assert.Contains(t, out, "TEST RESULTS SUMMARY")
	assert.Contains(t, out, "Docker Build")
	assert.Contains(t, out, "Streamdeploy Integration")
	assert.Contains(t, out, "PASS")
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "Total: 3 | Passed: 2 | Failed: 1")
	assert.Contains(t, out, "Duration: 1m30s")
	assert.Contains(t, out, "1 stage(s) failed")
	assert.NotContains(t, out, "ready for fleet deployment")
}

func TestRenderAllPassed(t *testing.T) {
	ios := iostreamstest.New()
	r := NewRunReport()
	require.NoError(t, r.Record("smoke_test", true))

	Render(ios.IOStreams, r, false, time.Second)
	out := ios.OutBuf.String()

	assert.Contains(t, out, "Total: 1 | Passed: 1 | Failed: 0")
	assert.Contains(t, out, "ready for fleet deployment")
}

func TestRenderInterrupted(t *testing.T) {
	ios := iostreamstest.New()
	r := NewRunReport()
	require.NoError(t, r.Record("docker_build", true))

	Render(ios.IOStreams, r, true, time.Second)
	out := ios.OutBuf.String()

	// The interrupt banner wins even when every recorded stage passed.
	assert.Contains(t, out, "Run interrupted")
	assert.NotContains(t, out, "ready for fleet deployment")
}

func TestRenderEmptyReport(t *testing.T) {
	ios := iostreamstest.New()
	Render(ios.IOStreams, NewRunReport(), false, 0)
	out := ios.OutBuf.String()

	assert.Contains(t, out, "Total: 0 | Passed: 0 | Failed: 0")
	assert.NotContains(t, out, "ready for fleet deployment")
	assert.NotContains(t, out, "Duration:")
}
