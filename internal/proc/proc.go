// Package proc executes external commands with a bounded wall-clock lifetime.
// Every command is spawned as a process-group leader so that the whole tree it
// forks can be terminated as a unit on timeout or cancellation.
package proc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

// TimeoutExitCode is the conventional exit code of a command that was killed
// because it exceeded its wall-clock budget. It matches the coreutils
// timeout(1) convention so downstream tooling can tell "failed" from "hung".
const TimeoutExitCode = 124

// TimeoutMarker is appended to captured stderr when a command times out.
const TimeoutMarker = "\n[TIMEOUT]\n"

// Result holds the outcome of one bounded command execution.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
}

// Runner executes commands as process-group leaders.
type Runner struct{}

// Execute runs argv in dir under the given wall-clock timeout. Entries of
// extraEnv ("KEY=VALUE") are appended to the current environment. Stdout and
// stderr are captured independently so neither pipe can stall the other.
//
// On timeout the entire process group is killed with SIGKILL, remaining
// output is drained, and the result carries TimeoutExitCode with
// TimeoutMarker appended to stderr. If ctx is cancelled first, the group is
// killed before the cancellation error is returned; no subprocess outlives
// this call on any path.
func (r *Runner) Execute(ctx context.Context, argv []string, dir string, timeout time.Duration, extraEnv []string) (*Result, error) {
	if len(argv) == 0 {
		return nil, errors.New("empty argv")
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = dir
	if len(extraEnv) > 0 {
		cmd.Env = append(os.Environ(), extraEnv...)
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", argv[0], err)
	}

	group := newGroupHandle(cmd.Process.Pid)
	defer group.Kill()

	var outBytes, errBytes []byte
	readers := new(errgroup.Group)
	readers.Go(func() error {
		b, err := io.ReadAll(stdout)
		outBytes = b
		return err
	})
	readers.Go(func() error {
		b, err := io.ReadAll(stderr)
		errBytes = b
		return err
	})

	// Wait must run after both pipe readers are done with the pipes.
	done := make(chan error, 1)
	go func() {
		readErr := readers.Wait()
		waitErr := cmd.Wait()
		if waitErr == nil {
			waitErr = readErr
		}
		done <- waitErr
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case waitErr := <-done:
		// The leader has been reaped; its pgid is free for reuse, so the
		// deferred kill must not fire.
		group.Disarm()
		res := &Result{Stdout: string(outBytes), Stderr: string(errBytes)}
		if waitErr != nil {
			var exitErr *exec.ExitError
			if !errors.As(waitErr, &exitErr) {
				return nil, fmt.Errorf("failed to wait for %s: %w", argv[0], waitErr)
			}
			res.ExitCode = exitErr.ExitCode()
		}
		return res, nil

	case <-timer.C:
		group.Kill()
		<-done // the group is dead, so the drain finishes promptly
		return &Result{
			ExitCode: TimeoutExitCode,
			Stdout:   string(outBytes),
			Stderr:   string(errBytes) + TimeoutMarker,
			TimedOut: true,
		}, nil

	case <-ctx.Done():
		group.Kill()
		<-done
		return nil, ctx.Err()
	}
}
