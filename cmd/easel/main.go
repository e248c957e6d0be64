// Package main provides the easel server entrypoint.
//
// Usage:
//
//	easel serve [--config easel.yaml] [--listen :8700] [--data-dir ./data]
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/inkhaven/easel/adapter"
	redisadapter "github.com/inkhaven/easel/adapter/redis"
	"github.com/inkhaven/easel/adapter/webhook"
	"github.com/inkhaven/easel/agent"
	"github.com/inkhaven/easel/config"
	"github.com/inkhaven/easel/log"
	"github.com/inkhaven/easel/runtime"
	"github.com/inkhaven/easel/server"
	"github.com/inkhaven/easel/types"
)

// Commit is set via ldflags at build time.
var commit = "unknown"

func main() {
	app := &cli.App{
		Name:    "easel",
		Usage:   "Collaborative canvas runtime",
		Version: fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		Commands: []*cli.Command{
			serveCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the canvas server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to easel.yaml",
			},
			&cli.StringFlag{
				Name:  "listen",
				Usage: "Listen address (overrides config)",
			},
			&cli.StringFlag{
				Name:  "data-dir",
				Usage: "Data directory (overrides config)",
			},
		},
		Action: serveAction,
	}
}

func serveAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	logger := log.NewLogger("")
	defer logger.Sync()

	notifier, err := buildNotifier(cfg.Adapter)
	if err != nil {
		return err
	}
	if notifier != nil {
		defer notifier.Close()
	}

	registry, err := runtime.NewRegistry(runtime.RegistryConfig{
		DataDir:           cfg.DataDir,
		CanvasWidth:       cfg.Canvas.Width,
		CanvasHeight:      cfg.Canvas.Height,
		Density:           cfg.Canvas.Density,
		MaxPendingBatches: cfg.Agent.MaxPendingBatches,
		FPS:               cfg.Executor.FPS,
		StrokeDelay:       cfg.Executor.StrokeDelay.Duration,
		MaxTurnIterations: cfg.Agent.MaxTurnIterations,
		RunnerFactory: func(userID string) agent.Runner {
			return agent.NewSketcher(userID)
		},
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("build registry: %w", err)
	}

	var limiter *server.RateLimiter
	if cfg.RateLimit.Limit > 0 {
		limiter = server.NewRateLimiter(cfg.RateLimit.Window.Duration, cfg.RateLimit.Limit)
	}

	srv, err := server.New(server.Config{
		Addr:     cfg.Listen,
		Registry: registry,
		Notifier: notifier,
		Limiter:  limiter,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	var cfg *config.Config
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	if listen := c.String("listen"); listen != "" {
		cfg.Listen = listen
	}
	if dir := c.String("data-dir"); dir != "" {
		cfg.DataDir = dir
	}
	return cfg, nil
}

// buildNotifier constructs the configured downstream adapter, or nil
// when no adapter type is set.
func buildNotifier(cfg config.AdapterConfig) (adapter.Adapter, error) {
	retries := func(def int) int {
		if cfg.Retries != nil {
			return *cfg.Retries
		}
		return def
	}

	switch cfg.Type {
	case "":
		return nil, nil
	case "redis":
		return redisadapter.New(redisadapter.Config{
			URL:     cfg.URL,
			Channel: cfg.Channel,
			Timeout: cfg.Timeout.Duration,
			Retries: retries(redisadapter.DefaultRetries),
		})
	case "webhook":
		return webhook.New(webhook.Config{
			URL:     cfg.URL,
			Headers: cfg.Headers,
			Timeout: cfg.Timeout.Duration,
			Retries: retries(webhook.DefaultRetries),
		})
	default:
		return nil, fmt.Errorf("unknown adapter type %q", cfg.Type)
	}
}
