package runtime

import (
	"context"
	"fmt"

	"github.com/inkhaven/easel/agent"
	"github.com/inkhaven/easel/broadcast"
	"github.com/inkhaven/easel/canvas"
	"github.com/inkhaven/easel/log"
	"github.com/inkhaven/easel/types"
)

// OrchestratorConfig configures the agent-turn loop.
type OrchestratorConfig struct {
	// MaxTurnIterations bounds the turn cycle per wake (default 5).
	MaxTurnIterations int
	// Logger is required.
	Logger *log.Logger
}

// Orchestrator is the event-driven scheduling loop for one workspace's
// agent. It blocks on a wake signal rather than polling, checks the
// connection-presence and pause gates, runs a bounded turn cycle, and
// hands resulting paths to the path executor.
type Orchestrator struct {
	config OrchestratorConfig
	ws     *canvas.Workspace
	hub    *broadcast.Hub
	runner agent.Runner
	exec   *PathExecutor

	// wake carries at most one pending signal: repeated wakes before
	// consumption collapse to one (signal state, not a count).
	wake chan struct{}
}

// NewOrchestrator wires an orchestrator for one workspace.
func NewOrchestrator(config OrchestratorConfig, ws *canvas.Workspace, hub *broadcast.Hub, runner agent.Runner, exec *PathExecutor) *Orchestrator {
	if config.MaxTurnIterations <= 0 {
		config.MaxTurnIterations = 5
	}
	return &Orchestrator{
		config: config,
		ws:     ws,
		hub:    hub,
		runner: runner,
		exec:   exec,
		wake:   make(chan struct{}, 1),
	}
}

// Wake sets the wake signal. Idempotent: multiple calls before the loop
// consumes the signal are equivalent to one.
func (o *Orchestrator) Wake() {
	select {
	case o.wake <- struct{}{}:
	default:
	}
}

// Run executes the scheduling loop until ctx is canceled. A failing turn
// is reported as an error broadcast and never crashes the loop.
func (o *Orchestrator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-o.wake:
		}

		// Gates: someone must be watching, and the agent must not be
		// paused. A failed gate consumes the signal with no side effects.
		if o.hub.Count() == 0 || o.ws.Paused() {
			continue
		}

		o.runTurnCycle(ctx)
	}
}

// runTurnCycle executes up to MaxTurnIterations agent turns, draining the
// pending queue through the executor after each producing turn.
func (o *Orchestrator) runTurnCycle(ctx context.Context) {
	if err := o.setStatus(types.StatusThinking); err != nil {
		o.config.Logger.Error("status transition failed", map[string]any{"error": err.Error()})
		return
	}

	for iteration := 1; iteration <= o.config.MaxTurnIterations; iteration++ {
		if ctx.Err() != nil {
			return
		}
		// The gates are re-checked every iteration: a pause or the last
		// viewer leaving mid-cycle stops further turns, not just the
		// next wake.
		if o.ws.Paused() || o.hub.Count() == 0 {
			break
		}

		width, height := o.ws.Size()
		input := agent.TurnInput{
			Canvas:       o.ws.Strokes(),
			Width:        width,
			Height:       height,
			Nudges:       o.ws.DrainNudges(),
			DrawingStyle: o.ws.DrawingStyle(),
			PieceNumber:  o.ws.PieceNumber(),
			Iteration:    iteration,
		}

		output, err := o.safeRunTurn(ctx, input)
		if err != nil {
			o.reportTurnError(err)
			return
		}

		if output.Commentary != "" {
			if err := o.ws.AppendMonologue(output.Commentary); err != nil {
				o.config.Logger.Error("monologue persist failed", map[string]any{"error": err.Error()})
			}
			if err := o.hub.Broadcast(types.NewMonologueMessage(output.Commentary)); err != nil {
				o.config.Logger.Warn("monologue broadcast failed", map[string]any{"error": err.Error()})
			}
		}

		if len(output.Paths) > 0 {
			if _, _, err := o.ws.QueueStrokes(output.Paths); err != nil {
				o.reportTurnError(err)
				return
			}
			if err := o.drainPending(ctx); err != nil {
				o.reportTurnError(err)
				return
			}
		}

		if output.Done {
			break
		}
	}

	if o.ws.Paused() {
		// SetPaused already parked the status; leave it alone.
		return
	}
	if err := o.setStatus(types.StatusIdle); err != nil {
		o.config.Logger.Error("status transition failed", map[string]any{"error": err.Error()})
	}
}

// drainPending executes queued batches until the queue is empty, so
// strokes queued while the executor was running are picked up in FIFO
// order before the cycle continues. The workspace is executing while a
// batch is dispatched; the executor transitions it to drawing once the
// pen starts moving.
func (o *Orchestrator) drainPending(ctx context.Context) error {
	for {
		strokes := o.ws.PopStrokes()
		if len(strokes) == 0 {
			return nil
		}
		if err := o.setStatus(types.StatusExecuting); err != nil {
			return err
		}
		if _, err := o.exec.Execute(ctx, strokes); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// safeRunTurn invokes the runner, converting a panic inside the turn into
// an error so one misbehaving turn cannot take down the loop.
func (o *Orchestrator) safeRunTurn(ctx context.Context, input agent.TurnInput) (output *agent.TurnOutput, err error) {
	defer func() {
		if r := recover(); r != nil {
			output = nil
			err = fmt.Errorf("agent turn panicked: %v", r)
		}
	}()

	output, err = o.runner.RunTurn(ctx, input)
	if err != nil {
		return nil, err
	}
	if output == nil {
		return nil, fmt.Errorf("agent turn returned no output")
	}
	return output, nil
}

// reportTurnError surfaces a failed turn as an error broadcast and parks
// the agent in the error status. The loop keeps waiting for wakes.
func (o *Orchestrator) reportTurnError(err error) {
	o.config.Logger.Error("agent turn failed", map[string]any{"error": err.Error()})
	if serr := o.ws.SetStatus(types.StatusError); serr != nil {
		o.config.Logger.Error("status persist failed", map[string]any{"error": serr.Error()})
	}
	if berr := o.hub.Broadcast(types.NewErrorMessage("agent turn failed", err.Error())); berr != nil {
		o.config.Logger.Warn("error broadcast failed", map[string]any{"error": berr.Error()})
	}
	if berr := o.hub.Broadcast(types.NewStatusMessage(types.StatusError)); berr != nil {
		o.config.Logger.Warn("status broadcast failed", map[string]any{"error": berr.Error()})
	}
}

// setStatus persists a status transition and broadcasts it.
func (o *Orchestrator) setStatus(s types.AgentStatus) error {
	if err := o.ws.SetStatus(s); err != nil {
		return err
	}
	if err := o.hub.Broadcast(types.NewStatusMessage(s)); err != nil {
		o.config.Logger.Warn("status broadcast failed", map[string]any{"error": err.Error()})
	}
	return nil
}
