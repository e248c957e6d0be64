package types

// MessageType is the wire message discriminator for the duplex channel.
type MessageType string

// Inbound message types.
const (
	MsgStroke     MessageType = "stroke"
	MsgNudge      MessageType = "nudge"
	MsgClear      MessageType = "clear"
	MsgPause      MessageType = "pause"
	MsgResume     MessageType = "resume"
	MsgNewCanvas  MessageType = "new_canvas"
	MsgLoadCanvas MessageType = "load_canvas"
	MsgSetStyle   MessageType = "set_style"
)

// Outbound message types.
const (
	MsgPen            MessageType = "pen"
	MsgStrokeComplete MessageType = "stroke_complete"
	MsgStatus         MessageType = "status"
	MsgGalleryUpdate  MessageType = "gallery_update"
	MsgMonologue      MessageType = "monologue"
	MsgError          MessageType = "error"
)

// ClientMessage is the decoded inbound message. All type-specific fields
// share one struct; handlers read only the fields their type requires and
// unknown JSON fields are dropped by the decoder, never fatal.
type ClientMessage struct {
	// Type is the message discriminator.
	Type MessageType `json:"type"`
	// Points is the stroke geometry for "stroke".
	Points []Point `json:"points,omitempty"`
	// Color and Width are optional style overrides for "stroke".
	Color string  `json:"color,omitempty"`
	Width float64 `json:"width,omitempty"`
	// Text is the nudge text for "nudge".
	Text string `json:"text,omitempty"`
	// Direction is the optional style hint for "resume" and "new_canvas".
	Direction string `json:"direction,omitempty"`
	// CanvasID is the gallery piece identifier for "load_canvas".
	CanvasID string `json:"canvas_id,omitempty"`
	// DrawingStyle is the style name for "set_style".
	DrawingStyle string `json:"drawing_style,omitempty"`
}

// Outbound messages are closed struct variants, one per type, each
// carrying its own discriminator. Constructors set the tag so call sites
// cannot emit a mistagged message.

// PenMessage streams one pen-position sample.
type PenMessage struct {
	Type MessageType `json:"type"`
	PenEvent
}

// NewPenMessage wraps a pen event for the wire.
func NewPenMessage(ev PenEvent) PenMessage {
	return PenMessage{Type: MsgPen, PenEvent: ev}
}

// StrokeCompleteMessage announces a committed path.
type StrokeCompleteMessage struct {
	Type MessageType `json:"type"`
	Path Path        `json:"path"`
}

// NewStrokeCompleteMessage builds a stroke_complete message.
func NewStrokeCompleteMessage(p Path) StrokeCompleteMessage {
	return StrokeCompleteMessage{Type: MsgStrokeComplete, Path: p}
}

// StatusMessage announces an agent status transition.
type StatusMessage struct {
	Type   MessageType `json:"type"`
	Status AgentStatus `json:"status"`
}

// NewStatusMessage builds a status message.
func NewStatusMessage(s AgentStatus) StatusMessage {
	return StatusMessage{Type: MsgStatus, Status: s}
}

// ClearMessage tells clients to empty the canvas.
type ClearMessage struct {
	Type MessageType `json:"type"`
}

// NewClearMessage builds a clear message.
func NewClearMessage() ClearMessage {
	return ClearMessage{Type: MsgClear}
}

// NewCanvasMessage announces an archive-and-reset. SavedID is empty when
// the previous canvas was empty and nothing was archived; PieceNumber is
// the counter for the piece now being started.
type NewCanvasMessage struct {
	Type        MessageType `json:"type"`
	SavedID     string      `json:"saved_id,omitempty"`
	PieceNumber int         `json:"piece_number"`
}

// NewNewCanvasMessage builds a new_canvas message.
func NewNewCanvasMessage(savedID string, pieceNumber int) NewCanvasMessage {
	return NewCanvasMessage{Type: MsgNewCanvas, SavedID: savedID, PieceNumber: pieceNumber}
}

// GalleryUpdateMessage carries the metadata-only gallery listing.
type GalleryUpdateMessage struct {
	Type     MessageType `json:"type"`
	Canvases []PieceMeta `json:"canvases"`
}

// NewGalleryUpdateMessage builds a gallery_update message.
func NewGalleryUpdateMessage(metas []PieceMeta) GalleryUpdateMessage {
	return GalleryUpdateMessage{Type: MsgGalleryUpdate, Canvases: metas}
}

// LoadCanvasMessage carries a full canvas for client sync.
type LoadCanvasMessage struct {
	Type        MessageType `json:"type"`
	Strokes     []Path      `json:"strokes"`
	PieceNumber int         `json:"piece_number"`
}

// NewLoadCanvasMessage builds a load_canvas message.
func NewLoadCanvasMessage(strokes []Path, pieceNumber int) LoadCanvasMessage {
	return LoadCanvasMessage{Type: MsgLoadCanvas, Strokes: strokes, PieceNumber: pieceNumber}
}

// MonologueMessage carries an agent commentary delta.
type MonologueMessage struct {
	Type MessageType `json:"type"`
	Text string      `json:"text"`
}

// NewMonologueMessage builds a monologue message.
func NewMonologueMessage(text string) MonologueMessage {
	return MonologueMessage{Type: MsgMonologue, Text: text}
}

// ErrorMessage reports a failure to clients without closing the channel.
type ErrorMessage struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
	Details string      `json:"details,omitempty"`
}

// NewErrorMessage builds an error message.
func NewErrorMessage(message, details string) ErrorMessage {
	return ErrorMessage{Type: MsgError, Message: message, Details: details}
}
