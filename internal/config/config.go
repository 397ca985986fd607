// Package config holds the harness configuration, layered from defaults, an
// optional TOML file, the environment, and finally CLI flags.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config drives one batch run.
type Config struct {
	Root            string   `toml:"root"`
	Pattern         string   `toml:"pattern"`
	MakeTool        string   `toml:"make"`
	MakeJobs        int      `toml:"jobs"`
	Toolchain       string   `toml:"toolchain"`
	Vendor          string   `toml:"vendor"`
	BuildTimeoutSec int      `toml:"timeout_build"`
	RunTimeoutSec   int      `toml:"timeout_run"`
	BuildOnly       bool     `toml:"build_only"`
	DeviceFilter    string   `toml:"device_filter"`
	ExtraCflags     []string `toml:"extra_cflags"`
	ResultsDir      string   `toml:"results_dir"`
	Workers         int      `toml:"workers"`
	CompressLogs    bool     `toml:"compress_logs"`
	NatsURL         string   `toml:"nats_url"`
}

// Default returns the configuration matching a bare invocation.
func Default() Config {
	jobs := runtime.NumCPU()
	if jobs < 1 {
		jobs = 4
	}
	return Config{
		Root:            ".",
		Pattern:         "*-sycl",
		MakeTool:        "make",
		MakeJobs:        jobs,
		Toolchain:       "acpp",
		Vendor:          "AdaptiveCpp",
		BuildTimeoutSec: 900,
		RunTimeoutSec:   180,
		ResultsDir:      "sycl_test_results",
		Workers:         1,
	}
}

// LoadFile overlays the TOML file at path onto c.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// LoadEnv overlays environment variables onto c. A .env file in the working
// directory is honored when present.
func (c *Config) LoadEnv() {
	_ = godotenv.Load()

	if v := os.Getenv("BENCHRUNNER_NATS_URL"); v != "" {
		c.NatsURL = v
	}
	if v := os.Getenv("BENCHRUNNER_DEVICE_FILTER"); v != "" {
		c.DeviceFilter = v
	}
}

// Validate rejects configurations the harness cannot run with.
func (c *Config) Validate() error {
	if c.Pattern == "" {
		return fmt.Errorf("project pattern must not be empty")
	}
	if c.MakeTool == "" {
		return fmt.Errorf("make tool must not be empty")
	}
	if c.MakeJobs < 1 {
		return fmt.Errorf("jobs must be positive, got %d", c.MakeJobs)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.BuildTimeoutSec < 1 || c.RunTimeoutSec < 1 {
		return fmt.Errorf("timeouts must be positive")
	}
	if info, err := os.Stat(c.Root); err != nil || !info.IsDir() {
		return fmt.Errorf("root %s is not a directory", c.Root)
	}
	return nil
}

func (c Config) BuildTimeout() time.Duration {
	return time.Duration(c.BuildTimeoutSec) * time.Second
}

func (c Config) RunTimeout() time.Duration {
	return time.Duration(c.RunTimeoutSec) * time.Second
}

// SplitCflags splits a --cflags-plus value into discrete tokens. Each token
// reaches make as its own EXTRA_CFLAGS+= argument, never one opaque string.
func SplitCflags(s string) []string {
	return strings.Fields(s)
}
