// Package config provides configuration loading for taskweave.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Runtime is the runtime configuration of the agent and its strategies.
type Runtime struct {
	MaxConcurrency int           `koanf:"max_concurrency"`
	MaxDepth       int           `koanf:"max_depth"`
	HistorySize    int           `koanf:"history_size"`
	Timeout        time.Duration `koanf:"timeout"`
}

// Transcript controls execution transcript persistence.
type Transcript struct {
	Enabled  bool   `koanf:"enabled"`
	Dir      string `koanf:"dir"`
	Compress bool   `koanf:"compress"`
}

// Config is the full taskweave configuration.
type Config struct {
	Runtime    Runtime    `koanf:"runtime"`
	Transcript Transcript `koanf:"transcript"`
	Debug      bool       `koanf:"debug"`
}

// Load reads configuration with the following precedence, highest first:
// TASKWEAVE_* environment variables, the YAML file at path (skipped when the
// file does not exist), hardcoded defaults.
//
// Environment variables map section and field with underscores:
//
//	TASKWEAVE_RUNTIME_MAX_CONCURRENCY -> runtime.max_concurrency
//	TASKWEAVE_TRANSCRIPT_DIR          -> transcript.dir
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults plus environment only.
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider("TASKWEAVE_", ".", func(s string) string {
		// TASKWEAVE_RUNTIME_MAX_CONCURRENCY -> runtime.max_concurrency:
		// the first underscore separates section from field, the rest stay.
		lower := strings.ToLower(strings.TrimPrefix(s, "TASKWEAVE_"))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Runtime.MaxConcurrency == 0 {
		cfg.Runtime.MaxConcurrency = 4
	}
	if cfg.Runtime.MaxDepth == 0 {
		cfg.Runtime.MaxDepth = 5
	}
	if cfg.Runtime.HistorySize == 0 {
		cfg.Runtime.HistorySize = 100
	}
	if cfg.Runtime.Timeout == 0 {
		cfg.Runtime.Timeout = 5 * time.Minute
	}
	if cfg.Transcript.Dir == "" {
		cfg.Transcript.Dir = "transcripts"
	}
}

// Validate rejects configurations the runtime cannot honor.
func (c *Config) Validate() error {
	if c.Runtime.MaxConcurrency < 1 {
		return fmt.Errorf("runtime.max_concurrency must be at least 1, got %d", c.Runtime.MaxConcurrency)
	}
	if c.Runtime.MaxDepth < 1 {
		return fmt.Errorf("runtime.max_depth must be at least 1, got %d", c.Runtime.MaxDepth)
	}
	if c.Runtime.HistorySize < 1 {
		return fmt.Errorf("runtime.history_size must be at least 1, got %d", c.Runtime.HistorySize)
	}
	if c.Runtime.Timeout < 0 {
		return fmt.Errorf("runtime.timeout must not be negative, got %s", c.Runtime.Timeout)
	}
	return nil
}
