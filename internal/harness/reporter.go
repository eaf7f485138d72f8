package harness

import (
	"fmt"
	"strings"
	"time"

	"github.com/streamdeploy/fleetcheck/internal/iostreams"
)

const summaryWidth = 60

// Render prints the final summary: one line per recorded stage, the
// aggregate counts, and the overall verdict. It is a pure function of the
// report; no side effects beyond writing to ios.
func Render(ios *iostreams.IOStreams, report *RunReport, interrupted bool, elapsed time.Duration) {
	cs := ios.ColorScheme()
	rule := strings.Repeat("=", summaryWidth)

	fmt.Fprintf(ios.Out, "\n%s\n", rule)
	fmt.Fprintf(ios.Out, "%s\n", cs.Bold("TEST RESULTS SUMMARY"))
	fmt.Fprintf(ios.Out, "%s\n", rule)

	for _, e := range report.Entries() {
		status := cs.Green("PASS")
		icon := cs.SuccessIcon()
		if !e.Passed {
			status = cs.Red("FAIL")
			icon = cs.FailureIcon()
		}
		fmt.Fprintf(ios.Out, "%-40s %s %s\n", titleCase(e.Stage), icon, status)
	}

	s := report.Summary()
	fmt.Fprintf(ios.Out, "%s\n", strings.Repeat("-", summaryWidth))
	fmt.Fprintf(ios.Out, "Total: %d | Passed: %d | Failed: %d\n", s.Total, s.Passed, s.Failed)
	if elapsed > 0 {
		fmt.Fprintf(ios.Out, "Duration: %s\n", elapsed.Round(10*time.Millisecond))
	}

	switch {
	case interrupted:
		fmt.Fprintf(ios.Out, "\n%s %s\n", cs.WarningIcon(),
			cs.Yellow("Run interrupted; results above cover completed stages only."))
	case report.AllPassed() && s.Total > 0:
		fmt.Fprintf(ios.Out, "\n%s %s\n", cs.SuccessIcon(),
			cs.Green("All tests passed. Image is ready for fleet deployment."))
	case s.Failed > 0:
		fmt.Fprintf(ios.Out, "\n%s %s\n", cs.FailureIcon(),
			cs.Red(fmt.Sprintf("%d stage(s) failed. Review and fix before deploying.", s.Failed)))
	}
}
