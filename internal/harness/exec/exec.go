// Package exec runs external commands for the harness stages and captures
// their output. Every invocation is blocking and sequential; there is no
// retry and no timeout, and cancellation of the context kills the process.
package exec

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/streamdeploy/fleetcheck/internal/iostreams"
	"github.com/streamdeploy/fleetcheck/internal/logger"
)

// Execer invokes an external command described by argv and reports the
// captured outcome. Implementations never return a Go error: invocation
// faults are folded into the Result so stages treat them as failures.
type Execer interface {
	Run(ctx context.Context, description string, argv ...string) *Result
}

// Result is the outcome of one external command invocation.
// Read-only once produced.
type Result struct {
	Argv     []string
	Stdout   string
	Stderr   string
	ExitCode int
	// Err is set when the process could not be started at all
	// (e.g. executable not found).
	Err error
}

// Success reports whether the command ran and exited zero.
func (r *Result) Success() bool {
	return r.Err == nil && r.ExitCode == 0
}

// Output returns stdout and stderr concatenated, for substring assertions
// that don't care which stream a marker was written to.
func (r *Result) Output() string {
	return r.Stdout + r.Stderr
}

// Runner is the real Execer backed by os/exec.
type Runner struct {
	ios     *iostreams.IOStreams
	verbose bool
	dir     string // working directory for invocations; "" = inherit
}

// NewRunner creates a Runner. When verbose is true each command line and its
// captured output are echoed through ios.
func NewRunner(ios *iostreams.IOStreams, verbose bool, dir string) *Runner {
	return &Runner{ios: ios, verbose: verbose, dir: dir}
}

// Run invokes argv, blocks until completion, and returns the captured result.
// The per-invocation pass/fail line is printed to ios with the description.
func (r *Runner) Run(ctx context.Context, description string, argv ...string) *Result {
	cs := r.ios.ColorScheme()

	if r.verbose {
		fmt.Fprintf(r.ios.Out, "%s %s\n", cs.Cyan("→"), description)
		fmt.Fprintf(r.ios.Out, "  %s\n", cs.Muted(strings.Join(argv, " ")))
	}

	res := &Result{Argv: argv}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = r.dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()

	switch e := err.(type) {
	case nil:
		res.ExitCode = 0
	case *exec.ExitError:
		res.ExitCode = e.ExitCode()
	default:
		// Start failure: executable missing, permission denied, canceled
		// before start. Recorded, never propagated.
		res.ExitCode = -1
		res.Err = err
		logger.Error().Err(err).Strs("argv", argv).Msg("command invocation fault")
	}

	r.echo(description, res)
	return res
}

func (r *Runner) echo(description string, res *Result) {
	cs := r.ios.ColorScheme()

	if res.Success() {
		fmt.Fprintf(r.ios.Out, "%s %s\n", cs.SuccessIcon(), description)
	} else if res.Err != nil {
		fmt.Fprintf(r.ios.Out, "%s %s: %v\n", cs.FailureIcon(), description, res.Err)
	} else {
		fmt.Fprintf(r.ios.Out, "%s %s (exit %d)\n", cs.FailureIcon(), description, res.ExitCode)
	}

	if r.verbose || !res.Success() {
		if res.Stdout != "" {
			fmt.Fprintf(r.ios.Out, "  stdout: %s\n", strings.TrimSpace(res.Stdout))
		}
		if res.Stderr != "" {
			fmt.Fprintf(r.ios.Out, "  stderr: %s\n", strings.TrimSpace(res.Stderr))
		}
	}
}
