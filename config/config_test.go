package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "easel.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func assertEqual(t *testing.T, field, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("expected %s=%q, got %q", field, want, got)
	}
}

func TestLoad_FullConfig(t *testing.T) {
	yaml := `listen: ":9000"
data_dir: /var/lib/easel

canvas:
  width: 1024
  height: 768
  density: 0.25

executor:
  fps: 60
  stroke_delay: 150ms

agent:
  max_turn_iterations: 3
  max_pending_batches: 4

rate_limit:
  window: 5s
  limit: 20

adapter:
  type: webhook
  url: https://hooks.example.com/easel
  headers:
    Authorization: Bearer token123
  timeout: 10s
  retries: 2
`
	path := writeTemp(t, yaml)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	assertEqual(t, "listen", cfg.Listen, ":9000")
	assertEqual(t, "data_dir", cfg.DataDir, "/var/lib/easel")

	if cfg.Canvas.Width != 1024 || cfg.Canvas.Height != 768 {
		t.Errorf("canvas size: got %dx%d", cfg.Canvas.Width, cfg.Canvas.Height)
	}
	if cfg.Canvas.Density != 0.25 {
		t.Errorf("expected density=0.25, got %v", cfg.Canvas.Density)
	}

	if cfg.Executor.FPS != 60 {
		t.Errorf("expected fps=60, got %d", cfg.Executor.FPS)
	}
	if cfg.Executor.StrokeDelay.Duration != 150*time.Millisecond {
		t.Errorf("expected stroke_delay=150ms, got %v", cfg.Executor.StrokeDelay.Duration)
	}

	if cfg.Agent.MaxTurnIterations != 3 {
		t.Errorf("expected max_turn_iterations=3, got %d", cfg.Agent.MaxTurnIterations)
	}
	if cfg.Agent.MaxPendingBatches != 4 {
		t.Errorf("expected max_pending_batches=4, got %d", cfg.Agent.MaxPendingBatches)
	}

	if cfg.RateLimit.Window.Duration != 5*time.Second || cfg.RateLimit.Limit != 20 {
		t.Errorf("rate limit: got %v/%d", cfg.RateLimit.Window.Duration, cfg.RateLimit.Limit)
	}

	assertEqual(t, "adapter.type", cfg.Adapter.Type, "webhook")
	assertEqual(t, "adapter.url", cfg.Adapter.URL, "https://hooks.example.com/easel")
	if cfg.Adapter.Timeout.Duration != 10*time.Second {
		t.Errorf("expected adapter.timeout=10s, got %v", cfg.Adapter.Timeout.Duration)
	}
	if cfg.Adapter.Retries == nil || *cfg.Adapter.Retries != 2 {
		t.Error("expected adapter.retries=2")
	}
	if cfg.Adapter.Headers["Authorization"] != "Bearer token123" {
		t.Error("expected Authorization header")
	}
}

func TestLoad_EmptyConfigGetsDefaults(t *testing.T) {
	path := writeTemp(t, "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	assertEqual(t, "listen", cfg.Listen, DefaultListen)
	assertEqual(t, "data_dir", cfg.DataDir, DefaultDataDir)
	if cfg.Canvas.Width != DefaultCanvasWidth || cfg.Canvas.Height != DefaultCanvasHeight {
		t.Errorf("canvas defaults: got %dx%d", cfg.Canvas.Width, cfg.Canvas.Height)
	}
	if cfg.Executor.FPS != DefaultFPS {
		t.Errorf("expected default fps, got %d", cfg.Executor.FPS)
	}
	if cfg.Adapter.Type != "" {
		t.Errorf("adapter should default to disabled, got %q", cfg.Adapter.Type)
	}
	if cfg.RateLimit.Limit != 0 {
		t.Errorf("rate limiting should default to disabled, got %d", cfg.RateLimit.Limit)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/easel.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeTemp(t, "{{invalid yaml")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("EASEL_DATA", "/tmp/easel-data")

	path := writeTemp(t, "data_dir: ${EASEL_DATA}\nlisten: ${EASEL_LISTEN:-:8701}\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	assertEqual(t, "data_dir", cfg.DataDir, "/tmp/easel-data")
	assertEqual(t, "listen", cfg.Listen, ":8701")
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Listen != DefaultListen || cfg.Agent.MaxTurnIterations != DefaultMaxTurnIterations {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}
