// Package router dispatches decoded client messages to their workspace
// handlers. Dispatch is a type-tag table: one handler per inbound message
// type, unknown types logged and reported unhandled, never fatal to the
// connection.
package router

import (
	"context"

	"github.com/inkhaven/easel/adapter"
	"github.com/inkhaven/easel/broadcast"
	"github.com/inkhaven/easel/canvas"
	"github.com/inkhaven/easel/log"
	"github.com/inkhaven/easel/types"
)

// Waker is the orchestrator's wake signal.
type Waker interface {
	Wake()
}

// Context carries the per-connection handler dependencies: the sender's
// workspace, its hub, the agent waker, the originating connection for
// direct replies, and an optional downstream notifier.
type Context struct {
	Workspace *canvas.Workspace
	Hub       *broadcast.Hub
	Waker     Waker
	Conn      broadcast.Conn
	// Notifier receives piece_archived events. Optional; nil disables
	// downstream notification.
	Notifier adapter.Adapter
	Logger   *log.Logger
}

// HandlerFunc processes one inbound message.
type HandlerFunc func(rc *Context, msg types.ClientMessage) error

// Router maps inbound message types to handlers.
type Router struct {
	handlers map[types.MessageType]HandlerFunc
	logger   *log.Logger
}

// New creates a router with the full inbound handler set registered.
func New(logger *log.Logger) *Router {
	r := &Router{
		handlers: make(map[types.MessageType]HandlerFunc),
		logger:   logger,
	}
	r.handlers[types.MsgStroke] = handleStroke
	r.handlers[types.MsgNudge] = handleNudge
	r.handlers[types.MsgClear] = handleClear
	r.handlers[types.MsgPause] = handlePause
	r.handlers[types.MsgResume] = handleResume
	r.handlers[types.MsgNewCanvas] = handleNewCanvas
	r.handlers[types.MsgLoadCanvas] = handleLoadCanvas
	r.handlers[types.MsgSetStyle] = handleSetStyle
	return r
}

// Route dispatches one message. Returns false when the type is unknown.
// A handler error is reported back to the originating connection as an
// error message; the connection stays open either way.
func (r *Router) Route(rc *Context, msg types.ClientMessage) bool {
	handler, ok := r.handlers[msg.Type]
	if !ok {
		r.logger.Warn("unknown message type", map[string]any{"type": string(msg.Type)})
		return false
	}

	if err := handler(rc, msg); err != nil {
		r.logger.Error("message handler failed", map[string]any{
			"type":  string(msg.Type),
			"error": err.Error(),
		})
		if serr := rc.Hub.SendTo(rc.Conn, types.NewErrorMessage("request failed", err.Error())); serr != nil {
			r.logger.Warn("error reply failed", map[string]any{"error": serr.Error()})
		}
	}
	return true
}

// notifyArchived publishes a piece_archived event if a notifier is
// configured. Fire-and-forget: failures are logged, never surfaced to
// the handler that archived the piece.
func notifyArchived(rc *Context, pieceID string, pieceNumber, strokeCount int, title string) {
	if rc.Notifier == nil || pieceID == "" {
		return
	}
	event := adapter.NewPieceArchivedEvent(rc.Workspace.UserID(), pieceID, pieceNumber, strokeCount, title)
	go func() {
		if err := rc.Notifier.Publish(context.Background(), event); err != nil {
			rc.Logger.Warn("piece event publish failed", map[string]any{
				"piece_id": pieceID,
				"error":    err.Error(),
			})
		}
	}()
}
