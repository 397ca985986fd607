// Package termgath prints batch progress to the terminal.
package termgath

import (
	"fmt"
	"time"

	"github.com/fatih/color"

	"github.com/programme-lv/benchrunner/api"
)

type TerminalGatherer struct{}

func New() *TerminalGatherer { return &TerminalGatherer{} }

func (t *TerminalGatherer) StartRun(total int) {
	fmt.Printf("== Testing %d benchmarks ==\n", total)
}

func (t *TerminalGatherer) StartProject(name string) {
	fmt.Printf("==> %s\n", name)
}

func (t *TerminalGatherer) FinishProject(o api.ProjectOutcome) {
	line := fmt.Sprintf("<== %s: compile=%s run=%s", o.Benchmark, colorStatus(o.Compile), colorStatus(o.Run))
	if o.Note != "" {
		line += fmt.Sprintf(" (%s)", o.Note)
	}
	fmt.Println(line)
}

func (t *TerminalGatherer) FinishRun(s api.RunSummary, elapsed time.Duration, resultsDir string) {
	fmt.Printf("\nSummary for %d benchmarks:\n", s.Total)
	fmt.Printf("  PASS both:    %d\n", s.PassedBoth)
	fmt.Printf("  FAIL compile: %d\n", s.FailedCompile)
	fmt.Printf("  FAIL run:     %d\n", s.FailedRun)
	fmt.Printf("  SKIP run:     %d\n", s.SkippedRun)
	fmt.Printf("Logs & results in: %s\n", resultsDir)
	fmt.Printf("Elapsed: %ds\n", int(elapsed.Seconds()))
}

func colorStatus(s api.StageStatus) string {
	switch s {
	case api.StagePass:
		return color.GreenString(string(s))
	case api.StageFail:
		return color.RedString(string(s))
	default:
		return color.YellowString(string(s))
	}
}
