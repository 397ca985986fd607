package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/programme-lv/benchrunner/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	cfg.Root = t.TempDir()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "*-sycl", cfg.Pattern)
	assert.Equal(t, "make", cfg.MakeTool)
	assert.Equal(t, 900, cfg.BuildTimeoutSec)
	assert.Equal(t, 180, cfg.RunTimeoutSec)
	assert.Equal(t, 1, cfg.Workers)
}

func TestLoadFileOverlays(t *testing.T) {
	path := filepath.Join(t.TempDir(), "benchrunner.toml")
	content := `
pattern = "*-cuda"
timeout_run = 60
extra_cflags = ["-O2", "-g"]
workers = 4
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := config.Default()
	require.NoError(t, cfg.LoadFile(path))

	assert.Equal(t, "*-cuda", cfg.Pattern)
	assert.Equal(t, 60, cfg.RunTimeoutSec)
	assert.Equal(t, []string{"-O2", "-g"}, cfg.ExtraCflags)
	assert.Equal(t, 4, cfg.Workers)
	// untouched keys keep their defaults
	assert.Equal(t, 900, cfg.BuildTimeoutSec)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := config.Default()
	cfg.Root = t.TempDir()

	cfg.MakeJobs = 0
	assert.Error(t, cfg.Validate())

	cfg = config.Default()
	cfg.Root = filepath.Join(t.TempDir(), "missing")
	assert.Error(t, cfg.Validate())

	cfg = config.Default()
	cfg.Root = t.TempDir()
	cfg.RunTimeoutSec = 0
	assert.Error(t, cfg.Validate())
}

func TestSplitCflags(t *testing.T) {
	assert.Equal(t, []string{"-O2", "-march=native"}, config.SplitCflags(" -O2  -march=native "))
	assert.Empty(t, config.SplitCflags(""))
}
