// Package pipeline takes one project through its build and run stages and
// derives the project's report row.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/programme-lv/benchrunner/api"
	"github.com/programme-lv/benchrunner/internal/config"
	"github.com/programme-lv/benchrunner/internal/discover"
	"github.com/programme-lv/benchrunner/internal/proc"
)

const makefileName = "Makefile"

// Pipeline executes the build and run stages of single projects.
type Pipeline struct {
	runner *proc.Runner
	cfg    config.Config
	log    *slog.Logger
}

func New(runner *proc.Runner, cfg config.Config, log *slog.Logger) *Pipeline {
	return &Pipeline{runner: runner, cfg: cfg, log: log}
}

// Run drives proj through the stage machine and returns its report row. The
// returned error is non-nil only when ctx was cancelled; every project-level
// failure, timeouts included, is folded into the outcome instead.
//
// A project whose build did not pass never has its run stage attempted; the
// run stage is likewise skipped in build-only mode. Stage logs are written
// for every path, with a skip notice standing in for output when a stage
// never ran.
func (p *Pipeline) Run(ctx context.Context, proj discover.Project) (api.ProjectOutcome, error) {
	logDir := filepath.Join(p.cfg.ResultsDir, proj.Name)
	outcome := api.ProjectOutcome{Benchmark: proj.Name, FailureStage: api.FailureNone}

	if _, err := os.Stat(filepath.Join(proj.Dir, makefileName)); err != nil {
		outcome.Compile = api.StageSkip
		outcome.Run = api.StageSkip
		outcome.FailureStage = api.FailureMakefileMissing
		outcome.Note = "No Makefile"
		p.writeNotice(logDir, buildLogName, "[SKIP] No Makefile found.\n")
		p.writeNotice(logDir, runLogName, "[SKIP] No Makefile found.\n")
		return outcome, nil
	}

	buildArgv := p.buildArgv()
	buildRes, err := p.runner.Execute(ctx, buildArgv, proj.Dir, p.cfg.BuildTimeout(), nil)
	if err != nil {
		if ctx.Err() != nil {
			return outcome, ctx.Err()
		}
		// spawn failure (e.g. make tool missing); the batch goes on
		outcome.Compile = api.StageFail
		outcome.Run = api.StageSkip
		outcome.FailureStage = api.FailureCompile
		outcome.Note = err.Error()
		p.writeNotice(logDir, buildLogName, fmt.Sprintf("[ERROR] %v\n", err))
		p.writeNotice(logDir, runLogName, "[SKIP] Build failed; not running.\n")
		return outcome, nil
	}
	p.writeStageLog(logDir, buildLogName, "", buildArgv, buildRes)

	if buildRes.ExitCode != 0 {
		outcome.Compile = api.StageFail
		outcome.Run = api.StageSkip
		outcome.FailureStage = api.FailureCompile
		outcome.Note = fmt.Sprintf("make exit %d", buildRes.ExitCode)
		p.writeNotice(logDir, runLogName, "[SKIP] Build failed; not running.\n")
		return outcome, nil
	}
	outcome.Compile = api.StagePass

	if p.cfg.BuildOnly {
		outcome.Run = api.StageSkip
		outcome.Note = "run skipped"
		p.writeNotice(logDir, runLogName, "[SKIP] Run skipped (build-only mode).\n")
		return outcome, nil
	}

	runArgv := p.runArgv()
	var runEnv []string
	if p.cfg.DeviceFilter != "" {
		runEnv = []string{"SYCL_DEVICE_FILTER=" + p.cfg.DeviceFilter}
	}
	runRes, err := p.runner.Execute(ctx, runArgv, proj.Dir, p.cfg.RunTimeout(), runEnv)
	if err != nil {
		if ctx.Err() != nil {
			return outcome, ctx.Err()
		}
		outcome.Run = api.StageFail
		outcome.FailureStage = api.FailureRun
		outcome.Note = err.Error()
		p.writeNotice(logDir, runLogName, fmt.Sprintf("[ERROR] %v\n", err))
		return outcome, nil
	}
	p.writeStageLog(logDir, runLogName, "make run", runArgv, runRes)

	if runRes.ExitCode != 0 {
		outcome.Run = api.StageFail
		outcome.FailureStage = api.FailureRun
		outcome.Note = fmt.Sprintf("make run exit %d", runRes.ExitCode)
		return outcome, nil
	}
	outcome.Run = api.StagePass
	return outcome, nil
}

// buildArgv assembles the build invocation: fixed toolchain identity, GPU
// disabled, and one discrete EXTRA_CFLAGS+= argument per extra token so no
// token ever needs shell quoting.
func (p *Pipeline) buildArgv() []string {
	argv := []string{
		p.cfg.MakeTool,
		fmt.Sprintf("-j%d", p.cfg.MakeJobs),
		"CXX=" + p.cfg.Toolchain,
		"USE_GPU=no",
		"VENDOR=" + p.cfg.Vendor,
	}
	for _, tok := range p.cfg.ExtraCflags {
		argv = append(argv, "EXTRA_CFLAGS+="+tok)
	}
	return argv
}

func (p *Pipeline) runArgv() []string {
	argv := []string{p.cfg.MakeTool}
	for _, tok := range p.cfg.ExtraCflags {
		argv = append(argv, "EXTRA_CFLAGS+="+tok)
	}
	return append(argv, "run")
}
