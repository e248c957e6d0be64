// Package runtime hosts the real-time machinery of a workspace: the path
// executor that plays strokes back as timed pen events, the agent-turn
// orchestrator, and the process-wide workspace registry.
package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/inkhaven/easel/broadcast"
	"github.com/inkhaven/easel/canvas"
	"github.com/inkhaven/easel/log"
	"github.com/inkhaven/easel/types"
)

// Clock abstracts frame pacing for testing.
type Clock interface {
	// Sleep blocks for d.
	Sleep(d time.Duration)
}

// realClock paces against the wall clock.
type realClock struct{}

func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// ExecutorConfig configures path playback.
type ExecutorConfig struct {
	// FPS is the pen-event frame rate (default 30).
	FPS int
	// StrokeDelay is the fixed pause between strokes (default none).
	StrokeDelay time.Duration
	// Clock overrides pacing for tests. If nil, the wall clock is used.
	Clock Clock
	// Logger is required.
	Logger *log.Logger
}

// PathExecutor plays pending strokes back as timed pen events: for each
// stroke, a pen-up move to the first point, pen-down samples at 1/fps
// spacing, a pen-up at the last point, then a canvas commit. Cancellation
// is cooperative at stroke boundaries and never interrupts a stroke
// mid-point.
type PathExecutor struct {
	config ExecutorConfig
	ws     *canvas.Workspace
	hub    *broadcast.Hub
}

// NewPathExecutor creates an executor bound to a workspace and its hub.
func NewPathExecutor(config ExecutorConfig, ws *canvas.Workspace, hub *broadcast.Hub) *PathExecutor {
	if config.FPS <= 0 {
		config.FPS = 30
	}
	if config.Clock == nil {
		config.Clock = realClock{}
	}
	return &PathExecutor{config: config, ws: ws, hub: hub}
}

// Execute plays the given strokes in order. Returns the number of strokes
// fully executed; the remainder were skipped due to cancellation. The
// workspace is drawing while the pen moves; on completion it transitions
// to idle and persists exactly once.
func (e *PathExecutor) Execute(ctx context.Context, strokes []types.PendingStroke) (int, error) {
	if err := e.ws.SetStatus(types.StatusDrawing); err != nil {
		return 0, fmt.Errorf("status transition: %w", err)
	}
	if err := e.hub.Broadcast(types.NewStatusMessage(types.StatusDrawing)); err != nil {
		e.config.Logger.Warn("status broadcast failed", map[string]any{"error": err.Error()})
	}

	frame := time.Second / time.Duration(e.config.FPS)
	executed := 0

	for _, stroke := range strokes {
		// Cancellation checkpoint: between strokes, never within one.
		if err := ctx.Err(); err != nil {
			break
		}

		if err := e.playStroke(stroke, frame); err != nil {
			return executed, err
		}
		executed++

		if e.config.StrokeDelay > 0 {
			e.config.Clock.Sleep(e.config.StrokeDelay)
		}
	}

	if err := e.ws.FinishDrawing(); err != nil {
		return executed, fmt.Errorf("finish drawing: %w", err)
	}
	if err := e.hub.Broadcast(types.NewStatusMessage(e.ws.Status())); err != nil {
		e.config.Logger.Warn("status broadcast failed", map[string]any{"error": err.Error()})
	}
	return executed, nil
}

// playStroke emits the pen-event sequence for one stroke and commits it.
func (e *PathExecutor) playStroke(stroke types.PendingStroke, frame time.Duration) error {
	pts := stroke.Points
	if len(pts) == 0 {
		// Degenerate stroke: commit without motion.
		e.ws.CommitStroke(stroke.Path)
		return e.hub.Broadcast(types.NewStrokeCompleteMessage(stroke.Path))
	}

	style := stroke.Path

	// Move with pen up to the start of the stroke.
	e.emit(pts[0], false, style)

	for i, pt := range pts {
		if i > 0 {
			e.config.Clock.Sleep(frame)
		}
		e.emit(pt, true, style)
	}

	// Lift the pen at the final point.
	e.emit(pts[len(pts)-1], false, style)

	e.ws.CommitStroke(stroke.Path)
	return e.hub.Broadcast(types.NewStrokeCompleteMessage(stroke.Path))
}

// emit broadcasts one pen event carrying the stroke's style overrides.
func (e *PathExecutor) emit(pt types.Point, down bool, style types.Path) {
	err := e.hub.Broadcast(types.NewPenMessage(types.PenEvent{
		X:       pt.X,
		Y:       pt.Y,
		Down:    down,
		Color:   style.Color,
		Width:   style.Width,
		Opacity: style.Opacity,
	}))
	if err != nil {
		e.config.Logger.Warn("pen broadcast failed", map[string]any{"error": err.Error()})
	}
}
