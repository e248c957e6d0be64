package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied by Load for unset keys.
const (
	DefaultListen            = ":8700"
	DefaultDataDir           = "./data"
	DefaultCanvasWidth       = 800
	DefaultCanvasHeight      = 600
	DefaultDensity           = 0.5
	DefaultFPS               = 30
	DefaultMaxTurnIterations = 5
	DefaultMaxPendingBatches = 8
	DefaultRateLimitWindow   = 10 * time.Second
)

// Load reads a YAML config file, expands environment variables,
// unmarshals, and applies defaults. A missing file is an error; use
// Default() when running without one.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("cannot read config file %q: %w", path, err)
	}

	expanded := ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns a config with all defaults applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir
	}
	if cfg.Canvas.Width <= 0 {
		cfg.Canvas.Width = DefaultCanvasWidth
	}
	if cfg.Canvas.Height <= 0 {
		cfg.Canvas.Height = DefaultCanvasHeight
	}
	if cfg.Canvas.Density <= 0 {
		cfg.Canvas.Density = DefaultDensity
	}
	if cfg.Executor.FPS <= 0 {
		cfg.Executor.FPS = DefaultFPS
	}
	if cfg.Agent.MaxTurnIterations <= 0 {
		cfg.Agent.MaxTurnIterations = DefaultMaxTurnIterations
	}
	if cfg.Agent.MaxPendingBatches <= 0 {
		cfg.Agent.MaxPendingBatches = DefaultMaxPendingBatches
	}
	if cfg.RateLimit.Window.Duration <= 0 {
		cfg.RateLimit.Window.Duration = DefaultRateLimitWindow
	}
	if cfg.RateLimit.Limit < 0 {
		cfg.RateLimit.Limit = 0
	}
}
