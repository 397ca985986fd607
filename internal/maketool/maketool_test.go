package maketool_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/programme-lv/benchrunner/internal/maketool"
	"github.com/programme-lv/benchrunner/internal/proc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fakeDatabase = `# GNU Make database
all: main.o util.o
	cc -o bench main.o util.o
run: all
	./bench
%.o: %.c
build/thing: other
foo bar: baz
.PHONY: all run clean
clean:
`

func fakeMake(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "make")
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

func TestListTargets(t *testing.T) {
	tool := fakeMake(t, "#!/bin/sh\ncat <<'EOF'\n"+fakeDatabase+"EOF\n")

	targets, err := maketool.ListTargets(context.Background(), &proc.Runner{}, tool, t.TempDir(), 10*time.Second)
	require.NoError(t, err)

	assert.Equal(t, []string{".PHONY", "all", "clean", "run"}, targets)
	assert.True(t, maketool.HasTarget(targets, "run"))
	assert.False(t, maketool.HasTarget(targets, "bench"))
}

func TestListTargetsDatabaseUnavailable(t *testing.T) {
	tool := fakeMake(t, "#!/bin/sh\nexit 2\n")

	targets, err := maketool.ListTargets(context.Background(), &proc.Runner{}, tool, t.TempDir(), 10*time.Second)
	require.NoError(t, err)
	assert.Empty(t, targets)
}
