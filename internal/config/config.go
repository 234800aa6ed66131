// Package config supplies run defaults from EINSIM_* environment
// variables, optionally read from a .env file. Command line flags override
// these values.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	DefaultBurstsPerJob   = 10000
	DefaultMaxOutstanding = 1000000
)

type Config struct {
	Threads        int
	BurstsPerJob   int
	MaxOutstanding int
	LogLevel       string
	// Seed 0 means "pick one at startup".
	Seed        int64
	MetricsAddr string
}

// Load reads envFile when it exists (a missing file is not an error) and
// then the process environment. Malformed numeric values are errors.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}
	c := &Config{
		LogLevel:    getEnvOrDefault("EINSIM_LOG_LEVEL", "info"),
		MetricsAddr: os.Getenv("EINSIM_METRICS_ADDR"),
	}
	var err error
	if c.Threads, err = getEnvInt("EINSIM_THREADS", runtime.NumCPU()); err != nil {
		return nil, err
	}
	if c.BurstsPerJob, err = getEnvInt("EINSIM_BURSTS_PER_JOB", DefaultBurstsPerJob); err != nil {
		return nil, err
	}
	if c.MaxOutstanding, err = getEnvInt("EINSIM_MAX_OUTSTANDING", DefaultMaxOutstanding); err != nil {
		return nil, err
	}
	seed, err := getEnvInt("EINSIM_SEED", 0)
	if err != nil {
		return nil, err
	}
	c.Seed = int64(seed)
	return c, c.Validate()
}

func (c *Config) Validate() error {
	switch {
	case c.Threads <= 0:
		return fmt.Errorf("config: threads must be positive, got %d", c.Threads)
	case c.BurstsPerJob <= 0:
		return fmt.Errorf("config: bursts per job must be positive, got %d", c.BurstsPerJob)
	case c.MaxOutstanding <= 0:
		return fmt.Errorf("config: max outstanding jobs must be positive, got %d", c.MaxOutstanding)
	}
	return nil
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}
