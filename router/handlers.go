package router

import (
	"fmt"

	"github.com/inkhaven/easel/types"
)

// handleStroke records a human-drawn stroke. Client strokes arrive as
// pre-sampled point lists, so they enter the canvas as polylines with no
// further interpolation.
func handleStroke(rc *Context, msg types.ClientMessage) error {
	if len(msg.Points) < 2 {
		return fmt.Errorf("stroke needs at least 2 points, got %d", len(msg.Points))
	}

	path := types.Path{
		Kind:   types.PathPolyline,
		Points: msg.Points,
		Author: types.AuthorHuman,
		Color:  msg.Color,
		Width:  msg.Width,
	}
	if err := rc.Workspace.AddStroke(path); err != nil {
		return fmt.Errorf("add stroke: %w", err)
	}

	// Echo to every device on this workspace, the sender included, so
	// all clients converge on the same canvas.
	return rc.Hub.Broadcast(types.NewStrokeCompleteMessage(path))
}

// handleNudge queues nudge text for the next agent turn and wakes the
// orchestrator.
func handleNudge(rc *Context, msg types.ClientMessage) error {
	if msg.Text == "" {
		return fmt.Errorf("nudge requires text")
	}
	rc.Workspace.AddNudge(msg.Text)
	rc.Waker.Wake()
	return nil
}

// handleClear empties the canvas.
func handleClear(rc *Context, msg types.ClientMessage) error {
	if err := rc.Workspace.ClearCanvas(); err != nil {
		return fmt.Errorf("clear canvas: %w", err)
	}
	return rc.Hub.Broadcast(types.NewClearMessage())
}

// handlePause suspends the agent. A turn already drawing finishes its
// current stroke; the pending queue survives the pause.
func handlePause(rc *Context, msg types.ClientMessage) error {
	if err := rc.Workspace.SetPaused(true); err != nil {
		return fmt.Errorf("pause: %w", err)
	}
	return rc.Hub.Broadcast(types.NewStatusMessage(rc.Workspace.Status()))
}

// handleResume unpauses the agent and wakes it. An optional direction
// string becomes the drawing-style hint for subsequent turns.
func handleResume(rc *Context, msg types.ClientMessage) error {
	if msg.Direction != "" {
		if err := rc.Workspace.SetDrawingStyle(msg.Direction); err != nil {
			return fmt.Errorf("set style: %w", err)
		}
	}
	if err := rc.Workspace.SetPaused(false); err != nil {
		return fmt.Errorf("resume: %w", err)
	}
	if err := rc.Hub.Broadcast(types.NewStatusMessage(rc.Workspace.Status())); err != nil {
		return err
	}
	rc.Waker.Wake()
	return nil
}

// handleNewCanvas archives the current canvas to the gallery, resets,
// auto-resumes a paused agent, and wakes it onto the blank canvas. The
// archived piece id is empty when the canvas had nothing to archive.
func handleNewCanvas(rc *Context, msg types.ClientMessage) error {
	strokeCount := rc.Workspace.StrokeCount()
	pieceNumber := rc.Workspace.PieceNumber()

	savedID, err := rc.Workspace.NewCanvas(msg.Text)
	if err != nil {
		return fmt.Errorf("new canvas: %w", err)
	}

	if msg.Direction != "" {
		if err := rc.Workspace.SetDrawingStyle(msg.Direction); err != nil {
			return fmt.Errorf("set style: %w", err)
		}
	}
	if rc.Workspace.Paused() {
		if err := rc.Workspace.SetPaused(false); err != nil {
			return fmt.Errorf("resume: %w", err)
		}
		if err := rc.Hub.Broadcast(types.NewStatusMessage(rc.Workspace.Status())); err != nil {
			return err
		}
	}

	if err := rc.Hub.Broadcast(types.NewNewCanvasMessage(savedID, rc.Workspace.PieceNumber())); err != nil {
		return err
	}
	if savedID != "" {
		if err := rc.Hub.Broadcast(types.NewGalleryUpdateMessage(rc.Workspace.Gallery().List())); err != nil {
			return err
		}
		notifyArchived(rc, savedID, pieceNumber, strokeCount, msg.Text)
	}

	rc.Waker.Wake()
	return nil
}

// handleLoadCanvas restores an archived piece onto the canvas. A missing
// piece id is an error reply to the requesting connection only; the
// canvas is untouched.
func handleLoadCanvas(rc *Context, msg types.ClientMessage) error {
	piece, err := rc.Workspace.Gallery().Load(msg.CanvasID)
	if err != nil {
		return fmt.Errorf("load %q: %w", msg.CanvasID, err)
	}
	if err := rc.Workspace.RestoreCanvas(piece.Strokes); err != nil {
		return fmt.Errorf("restore canvas: %w", err)
	}
	return rc.Hub.Broadcast(types.NewLoadCanvasMessage(piece.Strokes, piece.PieceNumber))
}

// handleSetStyle updates the drawing-style hint passed to agent turns.
func handleSetStyle(rc *Context, msg types.ClientMessage) error {
	if err := rc.Workspace.SetDrawingStyle(msg.DrawingStyle); err != nil {
		return fmt.Errorf("set style: %w", err)
	}
	return rc.Hub.Broadcast(types.NewStatusMessage(rc.Workspace.Status()))
}
