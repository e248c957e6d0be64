package config

import (
	"fmt"
	"time"
)

// Config represents an easel.yaml configuration file. Zero values take
// the documented defaults in Load.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`
	// DataDir is the root directory for workspace state and galleries.
	DataDir string `yaml:"data_dir"`

	Canvas    CanvasConfig    `yaml:"canvas"`
	Executor  ExecutorConfig  `yaml:"executor"`
	Agent     AgentConfig     `yaml:"agent"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Adapter   AdapterConfig   `yaml:"adapter"`
}

// CanvasConfig holds canvas geometry settings.
type CanvasConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	// Density is the interpolation sampling density in samples per unit
	// of path length.
	Density float64 `yaml:"density"`
}

// ExecutorConfig holds path playback settings.
type ExecutorConfig struct {
	// FPS is the pen-event frame rate.
	FPS int `yaml:"fps"`
	// StrokeDelay is the pause between strokes, e.g. "150ms".
	StrokeDelay Duration `yaml:"stroke_delay"`
}

// AgentConfig holds agent loop settings.
type AgentConfig struct {
	// MaxTurnIterations bounds a single turn cycle.
	MaxTurnIterations int `yaml:"max_turn_iterations"`
	// MaxPendingBatches caps the pending-stroke queue per workspace.
	MaxPendingBatches int `yaml:"max_pending_batches"`
}

// RateLimitConfig holds the inbound message limiter settings. A zero
// Limit disables rate limiting.
type RateLimitConfig struct {
	Window Duration `yaml:"window"`
	Limit  int      `yaml:"limit"`
}

// AdapterConfig selects and configures the downstream event adapter.
// An empty Type disables downstream notification.
type AdapterConfig struct {
	// Type is "redis", "webhook", or empty.
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "150ms", "5s").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}
