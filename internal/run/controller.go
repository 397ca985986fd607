// Package run drives a whole batch across the discovered projects.
package run

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sync/errgroup"

	"github.com/programme-lv/benchrunner/api"
	"github.com/programme-lv/benchrunner/internal/config"
	"github.com/programme-lv/benchrunner/internal/discover"
	"github.com/programme-lv/benchrunner/internal/gatherer"
	"github.com/programme-lv/benchrunner/internal/pipeline"
	"github.com/programme-lv/benchrunner/internal/proc"
	"github.com/programme-lv/benchrunner/internal/report"
)

// ErrInterrupted reports that the batch stopped on a user interrupt. By then
// every live subprocess group has been killed and the report covers the
// projects that completed.
var ErrInterrupted = errors.New("interrupted by user")

// Controller owns one batch run.
type Controller struct {
	Cfg      config.Config
	Log      *slog.Logger
	Gatherer gatherer.Gatherer

	// serializes gatherer events emitted from worker goroutines
	gathMu sync.Mutex
}

func (c *Controller) startProject(name string) {
	c.gathMu.Lock()
	defer c.gathMu.Unlock()
	c.Gatherer.StartProject(name)
}

func (c *Controller) finishProject(outcome api.ProjectOutcome) {
	c.gathMu.Lock()
	defer c.gathMu.Unlock()
	c.Gatherer.FinishProject(outcome)
}

// Batch builds and runs every project and writes the report. Projects run
// strictly sequentially unless Cfg.Workers raises the limit; the aggregator
// is the only shared mutable state and serializes its own appends. The
// returned summary reflects only completed projects; an in-flight project at
// interrupt time is absent from the report.
func (c *Controller) Batch(ctx context.Context, projects []discover.Project) (api.RunSummary, error) {
	start := time.Now()

	agg := report.NewAggregator(len(projects))
	pipe := pipeline.New(&proc.Runner{}, c.Cfg, c.Log)
	completed := xsync.NewCounter()

	c.Gatherer.StartRun(len(projects))

	workers := c.Cfg.Workers
	if workers < 1 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, proj := range projects {
		if gctx.Err() != nil {
			break // stop launching further projects
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			c.startProject(proj.Name)
			c.Log.Info("benchmark started", "name", proj.Name)

			outcome, err := pipe.Run(gctx, proj)
			if err != nil {
				return err
			}

			agg.Record(i, outcome)
			completed.Inc()
			c.finishProject(outcome)
			c.Log.Info("benchmark finished",
				"name", proj.Name,
				"compile", outcome.Compile,
				"run", outcome.Run,
				"done", completed.Value(),
				"total", len(projects))
			return nil
		})
	}
	waitErr := g.Wait()
	if waitErr == nil && ctx.Err() != nil {
		// interrupted before any project could be launched
		waitErr = ctx.Err()
	}

	summary := agg.Finalize()
	csvPath, jsonPath, reportErr := report.WriteReports(c.Cfg.ResultsDir, agg.Outcomes())
	if reportErr != nil {
		return summary, fmt.Errorf("failed to write reports: %w", reportErr)
	}
	c.Log.Info("report written", "csv", csvPath, "json", jsonPath)

	c.Gatherer.FinishRun(summary, time.Since(start), c.Cfg.ResultsDir)

	if errors.Is(waitErr, context.Canceled) || errors.Is(waitErr, context.DeadlineExceeded) {
		return summary, ErrInterrupted
	}
	return summary, waitErr
}

// Clean invokes the build tool's clean target in every project, bounded by
// the build timeout. Failures are logged and skipped.
func (c *Controller) Clean(ctx context.Context, projects []discover.Project) error {
	runner := &proc.Runner{}
	for _, proj := range projects {
		if ctx.Err() != nil {
			return ErrInterrupted
		}
		c.Log.Info("cleaning", "name", proj.Name)
		res, err := runner.Execute(ctx, []string{c.Cfg.MakeTool, "clean"}, proj.Dir, c.Cfg.BuildTimeout(), nil)
		if err != nil {
			if ctx.Err() != nil {
				return ErrInterrupted
			}
			c.Log.Warn("clean failed", "name", proj.Name, "err", err)
			continue
		}
		if res.ExitCode != 0 {
			c.Log.Warn("clean exited nonzero", "name", proj.Name, "exit", res.ExitCode)
		}
	}
	return nil
}
