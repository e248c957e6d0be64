package types

// PendingStroke is a queued agent stroke awaiting timed execution.
// Points holds the already-interpolated sample sequence so the executor
// never re-computes geometry.
type PendingStroke struct {
	// BatchID groups strokes queued together into one atomic unit.
	BatchID int `json:"batch_id" msgpack:"batch_id"`
	// Path is the declarative stroke description.
	Path Path `json:"path" msgpack:"path"`
	// Points is the interpolated sample sequence.
	Points []Point `json:"points" msgpack:"points"`
}

// AgentStatus is the agent lifecycle state for a workspace.
type AgentStatus string

// Agent status constants.
const (
	StatusIdle      AgentStatus = "idle"
	StatusThinking  AgentStatus = "thinking"
	StatusExecuting AgentStatus = "executing"
	StatusDrawing   AgentStatus = "drawing"
	StatusPaused    AgentStatus = "paused"
	StatusError     AgentStatus = "error"
)

// PenEvent is one timed pen-position sample emitted by the path executor.
type PenEvent struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Down bool    `json:"down"`
	// Color, Width, Opacity carry the stroke style for rendering clients.
	Color   string  `json:"color,omitempty"`
	Width   float64 `json:"stroke_width,omitempty"`
	Opacity float64 `json:"opacity,omitempty"`
}
