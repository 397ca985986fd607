// Package discover lists the benchmark projects of a root directory.
package discover

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ErrNoProjects is returned when nothing under the root matches the pattern.
var ErrNoProjects = errors.New("no projects found")

// Project identifies one benchmark project on disk. Immutable after
// discovery.
type Project struct {
	Name string
	Dir  string
}

// Projects returns the subdirectories of root whose base name matches the
// glob pattern, sorted by name so runs are deterministic for the same input
// set. Plain files matching the pattern are ignored.
func Projects(root, pattern string) ([]Project, error) {
	matches, err := filepath.Glob(filepath.Join(root, pattern))
	if err != nil {
		return nil, fmt.Errorf("bad project pattern %q: %w", pattern, err)
	}

	var projects []Project
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || !info.IsDir() {
			continue
		}
		projects = append(projects, Project{Name: filepath.Base(m), Dir: m})
	}

	sort.Slice(projects, func(i, j int) bool { return projects[i].Name < projects[j].Name })

	if len(projects) == 0 {
		return nil, fmt.Errorf("%w under %s matching %s", ErrNoProjects, root, pattern)
	}
	return projects, nil
}
