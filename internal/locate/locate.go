// Package locate guesses the main built artifact of a project. It is a
// standalone helper for pipelines that must invoke a bare binary when a
// project offers no run target; the primary pipeline trusts the project's
// Makefile instead.
package locate

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

var skipSuffixes = []string{".sh", ".py", ".pl", ".o", ".a", ".so", ".dylib"}

type candidate struct {
	path  string
	size  int64
	mtime time.Time
}

// Executable returns the most plausible built binary of the project at dir,
// or "" when none is found. Candidates are collected in priority order:
// files under bin/, executables at the project root (minus scripts and build
// debris), then a shallow recursive sweep of conventional output
// directories. Ties are broken by file size, then modification time, as a
// proxy for "the main built artifact".
func Executable(dir string) string {
	var candidates []candidate
	seen := map[string]bool{}

	add := func(path string) {
		resolved, err := filepath.EvalSymlinks(path)
		if err != nil {
			resolved = path
		}
		if seen[resolved] {
			return
		}
		info, err := os.Stat(resolved)
		if err != nil {
			return
		}
		seen[resolved] = true
		candidates = append(candidates, candidate{path: resolved, size: info.Size(), mtime: info.ModTime()})
	}

	if entries, err := os.ReadDir(filepath.Join(dir, "bin")); err == nil {
		for _, e := range entries {
			p := filepath.Join(dir, "bin", e.Name())
			if isExecutableFile(p) {
				add(p)
			}
		}
	}

	if entries, err := os.ReadDir(dir); err == nil {
		for _, e := range entries {
			p := filepath.Join(dir, e.Name())
			if isExecutableFile(p) && !hasSkippedSuffix(e.Name()) {
				add(p)
			}
		}
	}

	for _, sub := range []string{"build", "out", "bin"} {
		root := filepath.Join(dir, sub)
		_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			if isExecutableFile(p) && !hasSkippedSuffix(d.Name()) {
				add(p)
			}
			return nil
		})
	}

	if len(candidates) == 0 {
		return ""
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].size != candidates[j].size {
			return candidates[i].size > candidates[j].size
		}
		return candidates[i].mtime.After(candidates[j].mtime)
	})
	return candidates[0].path
}

func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return info.Mode().Perm()&0111 != 0
}

func hasSkippedSuffix(name string) bool {
	for _, suffix := range skipSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}
