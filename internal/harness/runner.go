package harness

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/streamdeploy/fleetcheck/internal/iostreams"
	"github.com/streamdeploy/fleetcheck/internal/logger"
)

// ErrInterrupted is returned by Runner.Run when the context was canceled
// (user interrupt) before the stage sequence completed. The partial report
// is still valid for stages completed strictly before the interrupt.
var ErrInterrupted = errors.New("run interrupted")

// Runner executes a fixed ordered list of stages sequentially. A stage
// failure is recorded and the run continues; an interrupt aborts the
// remaining sequence.
type Runner struct {
	ios    *iostreams.IOStreams
	quick  bool
	stages []Stage
}

// NewRunner creates a Runner over the given stages. When quick is true,
// Skippable stages are not executed and are recorded as passed.
func NewRunner(ios *iostreams.IOStreams, quick bool, stages ...Stage) *Runner {
	return &Runner{ios: ios, quick: quick, stages: stages}
}

// Run executes the stages in declaration order and returns the report.
// The report contains one entry per executed (or quick-skipped) stage; a
// stage aborted mid-flight by the interrupt is not recorded.
func (r *Runner) Run(ctx context.Context) (*RunReport, error) {
	cs := r.ios.ColorScheme()
	report := NewRunReport()

	for _, stage := range r.stages {
		if ctx.Err() != nil {
			return report, ErrInterrupted
		}

		if r.quick && stage.Skippable {
			fmt.Fprintf(r.ios.Out, "\n%s %s\n", cs.Muted("»"),
				cs.Muted(fmt.Sprintf("Skipping %s (quick mode)", titleCase(stage.Name))))
			r.record(report, stage.Name, true)
			continue
		}

		fmt.Fprintf(r.ios.Out, "\n%s %s\n", cs.Cyan("»"), cs.Bold(titleCase(stage.Name)))
		logger.Debug().Str("stage", stage.Name).Msg("stage starting")

		passed := stage.Run(ctx)

		// A stage whose commands were killed by the interrupt did not
		// complete; it gets no entry.
		if ctx.Err() != nil {
			return report, ErrInterrupted
		}

		logger.Debug().Str("stage", stage.Name).Bool("passed", passed).Msg("stage finished")
		r.record(report, stage.Name, passed)
	}

	return report, nil
}

func (r *Runner) record(report *RunReport, stage string, passed bool) {
	if err := report.Record(stage, passed); err != nil {
		// Duplicate stage names are a wiring bug, not a runtime condition.
		logger.Error().Err(err).Msg("duplicate stage result dropped")
	}
}

// titleCase renders a stage name for display: "docker_build" → "Docker Build".
func titleCase(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
