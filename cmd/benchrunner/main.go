package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/urfave/cli/v3"

	"github.com/programme-lv/benchrunner/internal/config"
	"github.com/programme-lv/benchrunner/internal/discover"
	"github.com/programme-lv/benchrunner/internal/gatherer"
	"github.com/programme-lv/benchrunner/internal/gatherer/natsgath"
	"github.com/programme-lv/benchrunner/internal/gatherer/termgath"
	"github.com/programme-lv/benchrunner/internal/logging"
	"github.com/programme-lv/benchrunner/internal/mkpatch"
	"github.com/programme-lv/benchrunner/internal/run"
)

const progressSubject = "benchrunner.events"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "benchrunner",
		Usage: "compile and test a tree of benchmark projects",
		Commands: []*cli.Command{
			runCommand(),
			cleanCommand(),
			patchCommand(),
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		if errors.Is(err, run.ErrInterrupted) {
			fmt.Fprintln(os.Stderr, "Interrupted by user.")
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func sharedFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Usage: "TOML config file"},
		&cli.StringFlag{Name: "root", Usage: "root directory containing benchmark projects"},
		&cli.StringFlag{Name: "pattern", Usage: "glob to pick projects"},
		&cli.StringFlag{Name: "make", Usage: "make tool"},
	}
}

func runCommand() *cli.Command {
	flags := append(sharedFlags(),
		&cli.IntFlag{Name: "jobs", Aliases: []string{"j"}, Usage: "parallel jobs for make"},
		&cli.StringFlag{Name: "toolchain", Usage: "compiler passed to make as CXX"},
		&cli.StringFlag{Name: "vendor", Usage: "vendor identity passed to make"},
		&cli.IntFlag{Name: "timeout-build", Usage: "build timeout per project in seconds"},
		&cli.IntFlag{Name: "timeout-run", Usage: "run timeout per project in seconds"},
		&cli.BoolFlag{Name: "build-only", Usage: "only compile, skip the run stage"},
		&cli.StringFlag{Name: "device-filter", Usage: "value for SYCL_DEVICE_FILTER during the run stage"},
		&cli.StringFlag{Name: "cflags-plus", Usage: "extra tokens appended to EXTRA_CFLAGS"},
		&cli.StringFlag{Name: "results-dir", Usage: "where to store logs and results"},
		&cli.IntFlag{Name: "workers", Usage: "projects tested concurrently"},
		&cli.BoolFlag{Name: "compress-logs", Usage: "zstd-compress per-stage logs"},
		&cli.StringFlag{Name: "nats-url", Usage: "stream progress events to this NATS server"},
	)
	return &cli.Command{
		Name:   "run",
		Usage:  "build and run every project, then write the report",
		Flags:  flags,
		Action: runAction,
	}
}

func cleanCommand() *cli.Command {
	return &cli.Command{
		Name:   "clean",
		Usage:  "invoke the clean target in every project",
		Flags:  sharedFlags(),
		Action: cleanAction,
	}
}

func patchCommand() *cli.Command {
	flags := append(sharedFlags(),
		&cli.StringFlag{Name: "old-compiler", Value: "clang++", Usage: "compiler reference to replace with $(CXX)"},
	)
	return &cli.Command{
		Name:   "patch",
		Usage:  "replace a hard-coded compiler in every project's Makefile",
		Flags:  flags,
		Action: patchAction,
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.ResultsDir, 0755); err != nil {
		return fmt.Errorf("failed to create results dir: %w", err)
	}
	runLog, err := os.Create(filepath.Join(cfg.ResultsDir, "run.log"))
	if err != nil {
		return fmt.Errorf("failed to create run log: %w", err)
	}
	defer runLog.Close()

	runID := uuid.NewString()
	log := logging.Setup(runLog).With("run_id", runID)
	slog.SetDefault(log)

	projects, err := discover.Projects(cfg.Root, cfg.Pattern)
	if err != nil {
		return err
	}

	gath := gatherer.Multi{termgath.New()}
	if cfg.NatsURL != "" {
		nc, err := nats.Connect(cfg.NatsURL)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NatsURL, err)
		}
		defer nc.Close()
		gath = append(gath, natsgath.New(nc, runID, progressSubject))
	}

	ctrl := &run.Controller{Cfg: cfg, Log: log, Gatherer: gath}
	_, err = ctrl.Batch(ctx, projects)
	return err
}

func cleanAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	log := logging.Setup(nil)

	projects, err := discover.Projects(cfg.Root, cfg.Pattern)
	if err != nil {
		return err
	}

	ctrl := &run.Controller{Cfg: cfg, Log: log, Gatherer: gatherer.Multi{}}
	return ctrl.Clean(ctx, projects)
}

func patchAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	log := logging.Setup(nil)

	projects, err := discover.Projects(cfg.Root, cfg.Pattern)
	if err != nil {
		return err
	}

	oldCompiler := cmd.String("old-compiler")
	var patched, unchanged, missing int
	for _, proj := range projects {
		if ctx.Err() != nil {
			return run.ErrInterrupted
		}
		res, err := mkpatch.ReplaceCompiler(filepath.Join(proj.Dir, "Makefile"), oldCompiler)
		if err != nil {
			return err
		}
		switch res {
		case mkpatch.Patched:
			log.Info("patched", "name", proj.Name)
			patched++
		case mkpatch.Unchanged:
			log.Info("unchanged", "name", proj.Name)
			unchanged++
		case mkpatch.FileMissing:
			log.Warn("no Makefile", "name", proj.Name)
			missing++
		}
	}
	log.Info("patch pass finished", "patched", patched, "unchanged", unchanged, "missing", missing)
	return nil
}

// buildConfig layers defaults, the optional TOML file, the environment, and
// finally the flags the user actually set.
func buildConfig(cmd *cli.Command) (config.Config, error) {
	cfg := config.Default()
	if path := cmd.String("config"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return cfg, err
		}
	}
	cfg.LoadEnv()

	if cmd.IsSet("root") {
		cfg.Root = cmd.String("root")
	}
	if cmd.IsSet("pattern") {
		cfg.Pattern = cmd.String("pattern")
	}
	if cmd.IsSet("make") {
		cfg.MakeTool = cmd.String("make")
	}
	if cmd.IsSet("jobs") {
		cfg.MakeJobs = int(cmd.Int("jobs"))
	}
	if cmd.IsSet("toolchain") {
		cfg.Toolchain = cmd.String("toolchain")
	}
	if cmd.IsSet("vendor") {
		cfg.Vendor = cmd.String("vendor")
	}
	if cmd.IsSet("timeout-build") {
		cfg.BuildTimeoutSec = int(cmd.Int("timeout-build"))
	}
	if cmd.IsSet("timeout-run") {
		cfg.RunTimeoutSec = int(cmd.Int("timeout-run"))
	}
	if cmd.IsSet("build-only") {
		cfg.BuildOnly = cmd.Bool("build-only")
	}
	if cmd.IsSet("device-filter") {
		cfg.DeviceFilter = cmd.String("device-filter")
	}
	if cmd.IsSet("cflags-plus") {
		cfg.ExtraCflags = config.SplitCflags(cmd.String("cflags-plus"))
	}
	if cmd.IsSet("results-dir") {
		cfg.ResultsDir = cmd.String("results-dir")
	}
	if cmd.IsSet("workers") {
		cfg.Workers = int(cmd.Int("workers"))
	}
	if cmd.IsSet("compress-logs") {
		cfg.CompressLogs = cmd.Bool("compress-logs")
	}
	if cmd.IsSet("nats-url") {
		cfg.NatsURL = cmd.String("nats-url")
	}

	var err error
	if cfg.Root, err = filepath.Abs(cfg.Root); err != nil {
		return cfg, fmt.Errorf("failed to resolve root: %w", err)
	}
	if cfg.ResultsDir, err = filepath.Abs(cfg.ResultsDir); err != nil {
		return cfg, fmt.Errorf("failed to resolve results dir: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
