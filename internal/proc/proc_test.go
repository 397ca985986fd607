package proc_test

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/programme-lv/benchrunner/internal/proc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteCapturesBothStreams(t *testing.T) {
	runner := &proc.Runner{}

	res, err := runner.Execute(context.Background(),
		[]string{"/bin/sh", "-c", "echo to-out; echo to-err 1>&2"},
		t.TempDir(), 10*time.Second, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "to-out\n", res.Stdout)
	assert.Equal(t, "to-err\n", res.Stderr)
	assert.False(t, res.TimedOut)
}

func TestExecuteReportsExitCode(t *testing.T) {
	runner := &proc.Runner{}

	res, err := runner.Execute(context.Background(),
		[]string{"/bin/sh", "-c", "exit 7"},
		t.TempDir(), 10*time.Second, nil)
	require.NoError(t, err)

	assert.Equal(t, 7, res.ExitCode)
}

func TestExecuteAppendsExtraEnv(t *testing.T) {
	runner := &proc.Runner{}

	res, err := runner.Execute(context.Background(),
		[]string{"/bin/sh", "-c", "echo $BENCH_DEVICE"},
		t.TempDir(), 10*time.Second, []string{"BENCH_DEVICE=cpu"})
	require.NoError(t, err)

	assert.Equal(t, "cpu\n", res.Stdout)
}

func TestExecuteRunsInDir(t *testing.T) {
	runner := &proc.Runner{}
	dir := t.TempDir()

	res, err := runner.Execute(context.Background(),
		[]string{"/bin/sh", "-c", "pwd"},
		dir, 10*time.Second, nil)
	require.NoError(t, err)

	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Equal(t, resolved, strings.TrimSpace(res.Stdout))
}

func TestExecuteTimeoutKillsProcessGroup(t *testing.T) {
	runner := &proc.Runner{}
	dir := t.TempDir()
	pidFile := filepath.Join(dir, "child.pid")

	// The shell forks a grandchild that sleeps far past the timeout. Both
	// shell and grandchild belong to the spawned group.
	script := "sleep 60 & echo $! > child.pid; wait"

	started := time.Now()
	res, err := runner.Execute(context.Background(),
		[]string{"/bin/sh", "-c", script},
		dir, 500*time.Millisecond, nil)
	require.NoError(t, err)

	assert.Equal(t, proc.TimeoutExitCode, res.ExitCode)
	assert.True(t, res.TimedOut)
	assert.Contains(t, res.Stderr, "[TIMEOUT]")
	assert.Less(t, time.Since(started), 10*time.Second)

	pidBytes, err := os.ReadFile(pidFile)
	require.NoError(t, err)
	pid, err := strconv.Atoi(strings.TrimSpace(string(pidBytes)))
	require.NoError(t, err)

	// The grandchild must not survive the runner returning.
	require.Eventually(t, func() bool {
		return syscall.Kill(pid, 0) != nil || isZombie(pid)
	}, 5*time.Second, 50*time.Millisecond, "grandchild still alive after timeout kill")
}

func TestExecuteCancellationKillsGroupFirst(t *testing.T) {
	runner := &proc.Runner{}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(200 * time.Millisecond)
		cancel()
	}()

	started := time.Now()
	_, err := runner.Execute(ctx,
		[]string{"/bin/sh", "-c", "sleep 60"},
		t.TempDir(), time.Minute, nil)

	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(started), 10*time.Second)
}

func TestExecuteEmptyArgv(t *testing.T) {
	runner := &proc.Runner{}

	_, err := runner.Execute(context.Background(), nil, t.TempDir(), time.Second, nil)
	require.Error(t, err)
}

func TestExecuteMissingBinary(t *testing.T) {
	runner := &proc.Runner{}

	_, err := runner.Execute(context.Background(),
		[]string{"/no/such/binary-anywhere"}, t.TempDir(), time.Second, nil)
	require.Error(t, err)
}

// isZombie reports whether pid is a dead process awaiting reaping. A killed
// grandchild may linger as a zombie when nothing reaps it; that still counts
// as terminated for the no-survivors guarantee.
func isZombie(pid int) bool {
	data, err := os.ReadFile(filepath.Join("/proc", strconv.Itoa(pid), "stat"))
	if err != nil {
		return true
	}
	fields := strings.Fields(string(data))
	return len(fields) > 2 && fields[2] == "Z"
}
