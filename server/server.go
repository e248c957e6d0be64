// Package server exposes the websocket endpoint and owns the HTTP
// listener lifecycle. One process serves many users; each connection
// binds to its user's workspace through the registry.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/inkhaven/easel/adapter"
	"github.com/inkhaven/easel/log"
	"github.com/inkhaven/easel/router"
	"github.com/inkhaven/easel/runtime"
	"github.com/inkhaven/easel/types"
)

// Config configures the HTTP server.
type Config struct {
	// Addr is the listen address, e.g. ":8700".
	Addr string
	// Registry provides per-user workspaces. Required.
	Registry *runtime.Registry
	// Notifier receives piece_archived events. Optional.
	Notifier adapter.Adapter
	// Limiter throttles inbound messages per user. Optional.
	Limiter *RateLimiter
	// Logger is required.
	Logger *log.Logger
}

// Server is the websocket front end.
type Server struct {
	registry *runtime.Registry
	router   *router.Router
	notifier adapter.Adapter
	limiter  *RateLimiter
	logger   *log.Logger

	httpServer *http.Server
	// baseCtx parents every workspace's agent loop; canceled on shutdown.
	baseCtx context.Context
}

// New creates a server from the given config.
func New(cfg Config) (*Server, error) {
	if cfg.Registry == nil {
		return nil, errors.New("server requires a registry")
	}
	if cfg.Logger == nil {
		return nil, errors.New("server requires a logger")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8700"
	}

	s := &Server{
		registry: cfg.Registry,
		router:   router.New(cfg.Logger),
		notifier: cfg.Notifier,
		limiter:  cfg.Limiter,
		logger:   cfg.Logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", handleHealth)
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Run serves until ctx is canceled, then drains: agent loops stopped,
// connections closed, listener shut down.
func (s *Server) Run(ctx context.Context) error {
	s.baseCtx = ctx

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", map[string]any{"addr": s.httpServer.Addr})
		if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", nil)
	s.registry.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"ok","version":%q}`, types.Version)
}
