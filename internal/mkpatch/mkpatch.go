// Package mkpatch rewrites hard-coded compiler references in Makefiles so a
// whole benchmark tree can be pointed at a different toolchain.
package mkpatch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// Result reports what happened to one Makefile.
type Result int

const (
	Patched Result = iota
	Unchanged
	FileMissing
)

// ReplaceCompiler substitutes the first occurrence of oldCompiler in the
// Makefile at path with "$(CXX)". Only the first occurrence is touched;
// later ones typically live in comments or link lines that already expand
// the variable.
func ReplaceCompiler(path, oldCompiler string) (Result, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return FileMissing, nil
	}
	if err != nil {
		return Unchanged, fmt.Errorf("failed to read %s: %w", path, err)
	}

	content := string(data)
	idx := strings.Index(content, oldCompiler)
	if idx < 0 {
		return Unchanged, nil
	}

	patched := content[:idx] + "$(CXX)" + content[idx+len(oldCompiler):]
	if err := os.WriteFile(path, []byte(patched), 0644); err != nil {
		return Unchanged, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return Patched, nil
}
