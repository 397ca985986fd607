package locate_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/programme-lv/benchrunner/internal/locate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, size int, mode os.FileMode) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), mode))
}

func TestExecutablePrefersBinDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bin", "main"), 100, 0755)
	writeFile(t, filepath.Join(dir, "other"), 500, 0644) // not executable

	got := locate.Executable(dir)
	assert.Equal(t, "main", filepath.Base(got))
}

func TestExecutableLargestWins(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "small"), 10, 0755)
	writeFile(t, filepath.Join(dir, "large"), 5000, 0755)

	got := locate.Executable(dir)
	assert.Equal(t, "large", filepath.Base(got))
}

func TestExecutableSkipsScriptsAndDebris(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "helper.sh"), 9000, 0755)
	writeFile(t, filepath.Join(dir, "module.so"), 9000, 0755)
	writeFile(t, filepath.Join(dir, "bench"), 10, 0755)

	got := locate.Executable(dir)
	assert.Equal(t, "bench", filepath.Base(got))
}

func TestExecutableRecursesIntoBuildDirs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "build", "nested", "artifact"), 42, 0755)

	got := locate.Executable(dir)
	assert.Equal(t, "artifact", filepath.Base(got))
}

func TestExecutableEmptyProject(t *testing.T) {
	assert.Equal(t, "", locate.Executable(t.TempDir()))
}
