// Package harness contains the stage runner, run report, and reporter that
// orchestrate a fleetcheck run: a fixed ordered list of independent stages,
// each producing one boolean verdict, aggregated into a final summary.
package harness

import "context"

// Stage is one named step of a run. Stages are created at process start
// from a fixed list and are immutable during a run.
type Stage struct {
	// Name identifies the stage in the run report (e.g. "docker_build").
	Name string

	// Skippable marks long-running stages that quick mode skips,
	// recording them as trivially successful.
	Skippable bool

	// Run executes the stage and derives its verdict. Stage failure is
	// non-fatal to the run; implementations must not panic and must not
	// return before their own best-effort cleanup.
	Run func(ctx context.Context) bool
}
