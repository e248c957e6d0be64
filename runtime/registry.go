package runtime

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/inkhaven/easel/agent"
	"github.com/inkhaven/easel/broadcast"
	"github.com/inkhaven/easel/canvas"
	"github.com/inkhaven/easel/log"
)

// RegistryConfig configures workspace construction.
type RegistryConfig struct {
	// DataDir is the root directory; each user's workspace lives under
	// DataDir/users/<user_id>/.
	DataDir string
	// CanvasWidth and CanvasHeight are the canvas dimensions.
	CanvasWidth, CanvasHeight int
	// Density is the interpolation sampling density.
	Density float64
	// MaxPendingBatches caps the pending-stroke queue per workspace.
	MaxPendingBatches int
	// FPS is the executor frame rate.
	FPS int
	// StrokeDelay is the pause between executed strokes.
	StrokeDelay time.Duration
	// MaxTurnIterations bounds the agent turn cycle.
	MaxTurnIterations int
	// RunnerFactory builds the agent runner for a user. Required.
	RunnerFactory agent.RunnerFactory
	// Clock overrides executor pacing for tests.
	Clock Clock
	// Logger is required.
	Logger *log.Logger
}

// ActiveWorkspace is the live runtime triple for one user: durable state,
// the connection hub, and the orchestrator with its background task.
type ActiveWorkspace struct {
	State *canvas.Workspace
	Hub   *broadcast.Hub
	Orch  *Orchestrator

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Registry is the process-wide directory of active per-user workspaces.
// No shared mutable canvas state crosses user boundaries: isolation is
// per-user by construction of the registry key.
type Registry struct {
	config RegistryConfig

	mu         sync.Mutex
	workspaces map[string]*ActiveWorkspace
}

// NewRegistry creates an empty registry.
func NewRegistry(config RegistryConfig) (*Registry, error) {
	if config.RunnerFactory == nil {
		return nil, fmt.Errorf("registry requires a runner factory")
	}
	if config.Logger == nil {
		return nil, fmt.Errorf("registry requires a logger")
	}
	return &Registry{
		config:     config,
		workspaces: make(map[string]*ActiveWorkspace),
	}, nil
}

// GetOrCreate returns the active workspace for a user, lazily
// constructing state, hub, runner, and orchestrator on first access.
// Idempotent thereafter.
func (r *Registry) GetOrCreate(userID string) (*ActiveWorkspace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if aw, exists := r.workspaces[userID]; exists {
		return aw, nil
	}

	logger := log.NewLogger(userID)
	ws, err := canvas.Open(canvas.Options{
		UserID:            userID,
		Dir:               filepath.Join(r.config.DataDir, "users", userID),
		Width:             r.config.CanvasWidth,
		Height:            r.config.CanvasHeight,
		Density:           r.config.Density,
		MaxPendingBatches: r.config.MaxPendingBatches,
		Logger:            logger,
	})
	if err != nil {
		return nil, fmt.Errorf("open workspace for %s: %w", userID, err)
	}

	hub := broadcast.NewHub(logger)
	exec := NewPathExecutor(ExecutorConfig{
		FPS:         r.config.FPS,
		StrokeDelay: r.config.StrokeDelay,
		Clock:       r.config.Clock,
		Logger:      logger,
	}, ws, hub)
	orch := NewOrchestrator(OrchestratorConfig{
		MaxTurnIterations: r.config.MaxTurnIterations,
		Logger:            logger,
	}, ws, hub, r.config.RunnerFactory(userID), exec)

	aw := &ActiveWorkspace{State: ws, Hub: hub, Orch: orch}
	r.workspaces[userID] = aw
	return aw, nil
}

// StartAgentLoop spawns the orchestrator's run loop as a background task.
// If the prior task is still running this is a no-op; if it has finished
// (normally or via error) the task reference is replaced — loops restart
// safely and never stack.
func (r *Registry) StartAgentLoop(ctx context.Context, aw *ActiveWorkspace) {
	aw.mu.Lock()
	defer aw.mu.Unlock()

	if aw.done != nil {
		select {
		case <-aw.done:
			// Previous loop finished; fall through and replace it.
		default:
			return
		}
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	aw.cancel = cancel
	aw.done = done

	go func() {
		defer close(done)
		aw.Orch.Run(loopCtx)
	}()
}

// StopAgentLoop cancels the workspace's background task and waits for it
// to exit.
func (r *Registry) StopAgentLoop(aw *ActiveWorkspace) {
	aw.mu.Lock()
	cancel := aw.cancel
	done := aw.done
	aw.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Shutdown stops every workspace's background task and closes all
// connections.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	workspaces := make([]*ActiveWorkspace, 0, len(r.workspaces))
	for _, aw := range r.workspaces {
		workspaces = append(workspaces, aw)
	}
	r.mu.Unlock()

	for _, aw := range workspaces {
		r.StopAgentLoop(aw)
		aw.Hub.CloseAll()
	}
}
