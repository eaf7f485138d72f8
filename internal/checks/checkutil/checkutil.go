// Package checkutil provides helpers shared by the check suites: unique
// container naming, free-port allocation, sub-check orchestration, and
// best-effort container teardown.
package checkutil

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/streamdeploy/fleetcheck/internal/harness/exec"
	"github.com/streamdeploy/fleetcheck/internal/iostreams"
	"github.com/streamdeploy/fleetcheck/internal/logger"
)

// NamePrefix is the prefix for every container the harness creates.
// Cleanup removes containers by this prefix.
const NamePrefix = "fleetcheck-"

// ContainerName generates a unique container name for one check.
func ContainerName(purpose string) string {
	return NamePrefix + purpose + "-" + uuid.NewString()[:8]
}

// FreePort asks the kernel for a free TCP port.
func FreePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// PortReachable dials the TCP port on localhost with a short timeout.
func PortReachable(port int, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)), timeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Settle blocks for the given duration unless the context is canceled
// first. Checks use it to give a freshly started container time to come up.
func Settle(ctx context.Context, d time.Duration) {
	settle(ctx, d)
}

var settle = func(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

// StubSettle makes Settle return immediately and returns a restore func.
// For tests only.
func StubSettle() func() {
	prev := settle
	settle = func(context.Context, time.Duration) {}
	return func() { settle = prev }
}

// RemoveContainer stops and removes a container, best effort. Faults are
// logged and swallowed; teardown never affects a check verdict.
func RemoveContainer(ctx context.Context, execer exec.Execer, name string) {
	// Teardown must proceed even when the run context was canceled.
	if ctx.Err() != nil {
		ctx = context.Background()
	}
	if res := execer.Run(ctx, "Stopping "+name, "docker", "stop", name); !res.Success() {
		logger.Debug().Str("container", name).Msg("teardown: stop failed")
	}
	if res := execer.Run(ctx, "Removing "+name, "docker", "rm", name); !res.Success() {
		logger.Debug().Str("container", name).Msg("teardown: rm failed")
	}
}

// Check is one named sub-check within a stage.
type Check struct {
	Name string
	Fn   func(ctx context.Context) bool
}

// RunAll executes the checks sequentially and returns the conjunction of
// their verdicts. A failing check never stops its siblings; a canceled
// context does.
func RunAll(ctx context.Context, ios *iostreams.IOStreams, checks []Check) bool {
	cs := ios.ColorScheme()
	passed := true

	for _, c := range checks {
		if ctx.Err() != nil {
			return false
		}

		ok := c.Fn(ctx)
		if ctx.Err() != nil {
			return false
		}

		icon := cs.SuccessIcon()
		if !ok {
			icon = cs.FailureIcon()
			passed = false
		}
		fmt.Fprintf(ios.Out, "  %s %s\n", icon, c.Name)
	}

	return passed
}
