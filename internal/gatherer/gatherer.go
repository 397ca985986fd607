// Package gatherer defines where batch progress events are reported.
package gatherer

import (
	"time"

	"github.com/programme-lv/benchrunner/api"
)

// Gatherer receives progress events for one batch run.
type Gatherer interface {
	StartRun(total int)
	StartProject(name string)
	FinishProject(outcome api.ProjectOutcome)
	FinishRun(summary api.RunSummary, elapsed time.Duration, resultsDir string)
}

// Multi fans every event out to several gatherers.
type Multi []Gatherer

func (m Multi) StartRun(total int) {
	for _, g := range m {
		g.StartRun(total)
	}
}

func (m Multi) StartProject(name string) {
	for _, g := range m {
		g.StartProject(name)
	}
}

func (m Multi) FinishProject(outcome api.ProjectOutcome) {
	for _, g := range m {
		g.FinishProject(outcome)
	}
}

func (m Multi) FinishRun(summary api.RunSummary, elapsed time.Duration, resultsDir string) {
	for _, g := range m {
		g.FinishRun(summary, elapsed, resultsDir)
	}
}
