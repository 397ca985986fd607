// Package report collects per-project outcomes and writes the batch report.
package report

import (
	"sync"

	"github.com/programme-lv/benchrunner/api"
)

// Aggregator collects one outcome per project, keyed by discovery index so
// the report keeps discovery order even when pipelines run on several
// workers. Record is safe for concurrent use.
type Aggregator struct {
	mu    sync.Mutex
	slots []*api.ProjectOutcome
}

// NewAggregator sizes the collection for n discovered projects.
func NewAggregator(n int) *Aggregator {
	return &Aggregator{slots: make([]*api.ProjectOutcome, n)}
}

// Record stores the outcome of the project at discovery index i.
func (a *Aggregator) Record(i int, outcome api.ProjectOutcome) {
	a.mu.Lock()
	defer a.mu.Unlock()
	o := outcome
	a.slots[i] = &o
}

// Outcomes returns the recorded outcomes in discovery order. Projects that
// never completed (interrupted mid-flight) are absent.
func (a *Aggregator) Outcomes() []api.ProjectOutcome {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]api.ProjectOutcome, 0, len(a.slots))
	for _, slot := range a.slots {
		if slot != nil {
			out = append(out, *slot)
		}
	}
	return out
}

// Finalize computes the run-wide counters. It is a pure function of the
// recorded collection: calling it twice without intervening Record calls
// yields identical summaries.
func (a *Aggregator) Finalize() api.RunSummary {
	outcomes := a.Outcomes()

	summary := api.RunSummary{Total: len(outcomes)}
	for _, o := range outcomes {
		if o.Compile == api.StagePass && o.Run == api.StagePass {
			summary.PassedBoth++
		}
		if o.Compile == api.StageFail {
			summary.FailedCompile++
		}
		if o.Compile == api.StagePass && o.Run == api.StageFail {
			summary.FailedRun++
		}
		if o.Run == api.StageSkip {
			summary.SkippedRun++
		}
	}
	return summary
}
