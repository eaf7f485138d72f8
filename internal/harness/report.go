package harness

import "fmt"

// Entry is one recorded stage outcome.
type Entry struct {
	Stage  string
	Passed bool
}

// RunReport accumulates stage outcomes in declaration order over one run.
// Every executed stage produces exactly one entry; entries are never
// overwritten. Not persisted across runs.
type RunReport struct {
	entries []Entry
	index   map[string]int
}

// NewRunReport creates an empty RunReport.
func NewRunReport() *RunReport {
	return &RunReport{index: make(map[string]int)}
}

// Record appends the outcome for a stage. Recording the same stage twice is
// a programming error and is rejected.
func (r *RunReport) Record(stage string, passed bool) error {
	if _, ok := r.index[stage]; ok {
		return fmt.Errorf("stage %q already recorded", stage)
	}
	r.index[stage] = len(r.entries)
	r.entries = append(r.entries, Entry{Stage: stage, Passed: passed})
	return nil
}

// Entries returns the recorded outcomes in declaration order.
func (r *RunReport) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Result returns the recorded verdict for a stage and whether it exists.
func (r *RunReport) Result(stage string) (bool, bool) {
	i, ok := r.index[stage]
	if !ok {
		return false, false
	}
	return r.entries[i].Passed, true
}

// Summary holds the aggregate counts of a run.
type Summary struct {
	Total  int
	Passed int
	Failed int
}

// Summary computes the aggregate counts.
func (r *RunReport) Summary() Summary {
	s := Summary{Total: len(r.entries)}
	for _, e := range r.entries {
		if e.Passed {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	return s
}

// AllPassed reports whether every recorded stage passed. An empty report
// counts as passed (nothing executed, nothing failed).
func (r *RunReport) AllPassed() bool {
	return r.Summary().Failed == 0
}
