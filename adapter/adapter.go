// Package adapter publishes workspace lifecycle events to external
// systems. Adapters are fire-and-forget from the workspace's point of
// view: a failed publish is logged by the caller and never blocks or
// fails the canvas operation that produced the event.
package adapter

import (
	"context"
	"time"
)

// EventPieceArchived is the event type emitted when a canvas is archived
// to the gallery.
const EventPieceArchived = "piece_archived"

// PieceArchivedEvent describes one archived gallery piece.
type PieceArchivedEvent struct {
	EventType   string `json:"event_type"`
	UserID      string `json:"user_id"`
	PieceID     string `json:"piece_id"`
	PieceNumber int    `json:"piece_number"`
	StrokeCount int    `json:"stroke_count"`
	Title       string `json:"title,omitempty"`
	Timestamp   string `json:"timestamp"`
}

// NewPieceArchivedEvent builds a timestamped piece_archived event.
func NewPieceArchivedEvent(userID, pieceID string, pieceNumber, strokeCount int, title string) PieceArchivedEvent {
	return PieceArchivedEvent{
		EventType:   EventPieceArchived,
		UserID:      userID,
		PieceID:     pieceID,
		PieceNumber: pieceNumber,
		StrokeCount: strokeCount,
		Title:       title,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
}

// Adapter delivers events to an external sink.
type Adapter interface {
	// Publish delivers one event, retrying transient failures internally.
	Publish(ctx context.Context, event PieceArchivedEvent) error
	// Close releases the adapter's resources.
	Close() error
}
