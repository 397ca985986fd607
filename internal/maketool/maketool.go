// Package maketool inspects a project's make database. Like the executable
// locator this is a standalone helper, not part of the primary pipeline.
package maketool

import (
	"context"
	"sort"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/programme-lv/benchrunner/internal/proc"
)

// ListTargets parses `make -qp` output into the sorted list of plain targets
// the project's Makefile declares. Pattern rules, path-like names, and rule
// bodies are dropped. A make invocation that cannot print its database
// yields an empty list rather than an error.
func ListTargets(ctx context.Context, runner *proc.Runner, makeTool, dir string, timeout time.Duration) ([]string, error) {
	res, err := runner.Execute(ctx, []string{makeTool, "-qp"}, dir, timeout, nil)
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, nil
	}

	targets := mapset.NewThreadUnsafeSet[string]()
	for _, line := range strings.Split(res.Stdout, "\n") {
		if strings.HasPrefix(line, "\t") {
			continue
		}
		colon := strings.Index(line, ":")
		if colon < 0 {
			continue
		}
		tgt := strings.TrimSpace(line[:colon])
		if tgt == "" || strings.ContainsAny(tgt, " /%") {
			continue
		}
		targets.Add(tgt)
	}

	out := targets.ToSlice()
	sort.Strings(out)
	return out, nil
}

// HasTarget reports whether name appears in targets.
func HasTarget(targets []string, name string) bool {
	for _, t := range targets {
		if t == name {
			return true
		}
	}
	return false
}
