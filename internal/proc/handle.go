package proc

import (
	"sync"
	"syscall"
)

// groupHandle owns a spawned process group and performs at most one kill of
// it, no matter how many exit paths reach for it.
type groupHandle struct {
	pgid int
	once sync.Once
}

func newGroupHandle(pid int) *groupHandle {
	// Setpgid makes the child a group leader, so pgid == pid.
	return &groupHandle{pgid: pid}
}

// Kill terminates every process in the group with SIGKILL. An already-dead
// group is not an error.
func (g *groupHandle) Kill() {
	g.once.Do(func() {
		_ = syscall.Kill(-g.pgid, syscall.SIGKILL)
	})
}

// Disarm marks the group as reaped so a later Kill is a no-op. Once the
// leader has been waited on its pgid may be recycled by an unrelated
// process, and that process must not be signalled.
func (g *groupHandle) Disarm() {
	g.once.Do(func() {})
}
