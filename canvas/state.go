// Package canvas owns per-user workspace state: committed strokes, agent
// status and monologue, the bounded pending-stroke queue, and filesystem
// persistence. Every externally visible mutation persists synchronously
// with atomic write semantics before the call returns, and all mutations
// for one workspace serialize behind a single mutex.
package canvas

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/inkhaven/easel/geometry"
	"github.com/inkhaven/easel/log"
	"github.com/inkhaven/easel/types"
)

// stateFile is the workspace snapshot filename within the workspace dir.
const stateFile = "state.bin"

// Options configures a workspace.
type Options struct {
	// UserID is the owning user identifier.
	UserID string
	// Dir is the workspace directory; the snapshot and gallery live here.
	Dir string
	// Width and Height are the canvas dimensions.
	Width, Height int
	// Density is the interpolation sampling density (samples per unit).
	Density float64
	// MaxPendingBatches caps the pending-stroke queue, in whole batches.
	MaxPendingBatches int
	// Logger is required.
	Logger *log.Logger
}

// snapshot is the durable workspace state. Encoded with msgpack: the file
// is internal and rewritten after every mutation, so a compact binary
// format wins over readability here (gallery pieces stay JSON — they are
// a web-facing contract).
type snapshot struct {
	Width        int                   `msgpack:"width"`
	Height       int                   `msgpack:"height"`
	Strokes      []types.Path          `msgpack:"strokes"`
	Status       string                `msgpack:"status"`
	Monologue    string                `msgpack:"monologue"`
	PieceNumber  int                   `msgpack:"piece_number"`
	DrawingStyle string                `msgpack:"drawing_style"`
	Paused       bool                  `msgpack:"paused"`
	Pending      []types.PendingStroke `msgpack:"pending"`
	NextBatch    int                   `msgpack:"next_batch"`
}

// Workspace is one user's canvas state. Exclusively owned by that user's
// session; safe for concurrent use by multiple connections.
type Workspace struct {
	userID  string
	dir     string
	logger  *log.Logger
	density float64
	gallery *Gallery

	mu           sync.Mutex
	width        int
	height       int
	strokes      []types.Path
	status       types.AgentStatus
	monologue    string
	pieceNumber  int
	drawingStyle string
	paused       bool
	nudges       []string
	queue        *pendingQueue
}

// Open loads the workspace snapshot from disk, or creates a fresh
// workspace when no snapshot exists.
func Open(opts Options) (*Workspace, error) {
	if opts.UserID == "" {
		return nil, fmt.Errorf("workspace requires a user id")
	}
	if opts.Logger == nil {
		return nil, fmt.Errorf("workspace requires a logger")
	}
	if opts.Width <= 0 {
		opts.Width = 800
	}
	if opts.Height <= 0 {
		opts.Height = 600
	}
	if opts.Density <= 0 {
		opts.Density = 0.5
	}
	if opts.MaxPendingBatches <= 0 {
		opts.MaxPendingBatches = 8
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace dir: %w", err)
	}

	gallery, err := NewGallery(filepath.Join(opts.Dir, "gallery"), opts.Logger)
	if err != nil {
		return nil, err
	}

	ws := &Workspace{
		userID:      opts.UserID,
		dir:         opts.Dir,
		logger:      opts.Logger,
		density:     opts.Density,
		gallery:     gallery,
		width:       opts.Width,
		height:      opts.Height,
		status:      types.StatusIdle,
		pieceNumber: 1,
		queue:       newPendingQueue(opts.MaxPendingBatches),
	}

	data, err := os.ReadFile(filepath.Join(opts.Dir, stateFile))
	if err != nil {
		if os.IsNotExist(err) {
			return ws, nil
		}
		return nil, fmt.Errorf("read workspace snapshot: %w", err)
	}

	var snap snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		// A corrupt snapshot loses session state, not the gallery.
		opts.Logger.Warn("corrupt workspace snapshot, starting fresh", map[string]any{
			"error": err.Error(),
		})
		return ws, nil
	}

	ws.width = snap.Width
	ws.height = snap.Height
	ws.strokes = snap.Strokes
	ws.monologue = snap.Monologue
	ws.pieceNumber = snap.PieceNumber
	ws.drawingStyle = snap.DrawingStyle
	ws.paused = snap.Paused
	// Queued strokes survive a restart; they drain on the next wake.
	ws.queue.restore(snap.Pending, snap.NextBatch)
	// A process restart always resumes at idle; transient statuses like
	// drawing/executing would otherwise stick with no task behind them.
	ws.status = types.StatusIdle
	if ws.paused {
		ws.status = types.StatusPaused
	}
	if ws.pieceNumber < 1 {
		ws.pieceNumber = 1
	}
	return ws, nil
}

// persistLocked writes the snapshot atomically. Caller must hold mu.
func (w *Workspace) persistLocked() error {
	snap := snapshot{
		Width:        w.width,
		Height:       w.height,
		Strokes:      w.strokes,
		Status:       string(w.status),
		Monologue:    w.monologue,
		PieceNumber:  w.pieceNumber,
		DrawingStyle: w.drawingStyle,
		Paused:       w.paused,
		Pending:      w.queue.entries,
		NextBatch:    w.queue.nextBatch,
	}
	data, err := msgpack.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("encode workspace snapshot: %w", err)
	}
	if err := WriteFileAtomic(filepath.Join(w.dir, stateFile), data, 0o644); err != nil {
		return fmt.Errorf("persist workspace: %w", err)
	}
	return nil
}

// UserID returns the owning user identifier.
func (w *Workspace) UserID() string { return w.userID }

// Gallery returns the workspace's piece archive.
func (w *Workspace) Gallery() *Gallery { return w.gallery }

// Size returns the canvas dimensions.
func (w *Workspace) Size() (width, height int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width, w.height
}

// Strokes returns a copy of the committed stroke list in draw order.
func (w *Workspace) Strokes() []types.Path {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]types.Path, len(w.strokes))
	copy(out, w.strokes)
	return out
}

// StrokeCount returns the number of committed strokes.
func (w *Workspace) StrokeCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.strokes)
}

// Status returns the agent status.
func (w *Workspace) Status() types.AgentStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// SetStatus transitions the agent status and persists.
func (w *Workspace) SetStatus(s types.AgentStatus) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = s
	return w.persistLocked()
}

// Paused reports whether the agent is paused.
func (w *Workspace) Paused() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.paused
}

// SetPaused toggles the agent pause state and persists.
func (w *Workspace) SetPaused(paused bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.paused = paused
	if paused {
		w.status = types.StatusPaused
	} else if w.status == types.StatusPaused {
		w.status = types.StatusIdle
	}
	return w.persistLocked()
}

// DrawingStyle returns the current drawing style hint.
func (w *Workspace) DrawingStyle() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.drawingStyle
}

// SetDrawingStyle updates the drawing style hint and persists.
func (w *Workspace) SetDrawingStyle(style string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.drawingStyle = style
	return w.persistLocked()
}

// PieceNumber returns the current piece counter.
func (w *Workspace) PieceNumber() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pieceNumber
}

// Monologue returns the accumulated agent monologue.
func (w *Workspace) Monologue() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.monologue
}

// AppendMonologue appends a commentary delta and persists.
func (w *Workspace) AppendMonologue(text string) error {
	if text == "" {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.monologue != "" {
		w.monologue += "\n"
	}
	w.monologue += text
	return w.persistLocked()
}

// AddNudge records a pending textual nudge for the next agent turn.
// Nudges are session-scoped and intentionally not persisted.
func (w *Workspace) AddNudge(text string) {
	if text == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nudges = append(w.nudges, text)
}

// DrainNudges returns and clears the pending nudges.
func (w *Workspace) DrainNudges() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := w.nudges
	w.nudges = nil
	return out
}

// AddStroke appends a path to the canvas and persists.
func (w *Workspace) AddStroke(p types.Path) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.strokes = append(w.strokes, p)
	return w.persistLocked()
}

// CommitStroke appends an executed path without persisting. The path
// executor commits per stroke and persists exactly once on completion
// via FinishDrawing.
func (w *Workspace) CommitStroke(p types.Path) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.strokes = append(w.strokes, p)
}

// FinishDrawing transitions the agent to idle and persists once.
func (w *Workspace) FinishDrawing() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.paused {
		w.status = types.StatusPaused
	} else {
		w.status = types.StatusIdle
	}
	return w.persistLocked()
}

// ClearCanvas empties the canvas and persists.
func (w *Workspace) ClearCanvas() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.strokes = nil
	return w.persistLocked()
}

// RestoreCanvas replaces the canvas contents with archived strokes and
// persists. Used by load_canvas; the piece counter is untouched.
func (w *Workspace) RestoreCanvas(strokes []types.Path) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.strokes = make([]types.Path, len(strokes))
	copy(w.strokes, strokes)
	return w.persistLocked()
}

// NewCanvas archives the current canvas to a numbered gallery slot,
// resets the canvas, increments the piece counter, and persists. Returns
// the archived piece id, or empty string when the canvas was empty and
// nothing was archived.
func (w *Workspace) NewCanvas(title string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var archivedID string
	if len(w.strokes) > 0 {
		piece := types.Piece{
			Strokes:      w.strokes,
			CreatedAt:    time.Now().UTC().Format(time.RFC3339),
			PieceNumber:  w.pieceNumber,
			DrawingStyle: w.drawingStyle,
			Title:        title,
		}
		id, err := w.gallery.Save(piece)
		if err != nil {
			return "", err
		}
		archivedID = id
		w.pieceNumber++
	}

	w.strokes = nil
	w.monologue = ""
	if err := w.persistLocked(); err != nil {
		return "", err
	}
	return archivedID, nil
}

// QueueStrokes interpolates each path, wraps the group in a fresh batch
// id, and appends it to the pending queue, dropping the oldest whole
// batches first if the cap would be exceeded. Returns the batch id and
// the total interpolated point count. Overflow is not an error.
func (w *Workspace) QueueStrokes(paths []types.Path) (batchID, totalPoints int, err error) {
	interpolated := make([][]types.Point, len(paths))
	for i, p := range paths {
		interpolated[i] = geometry.Interpolate(p, w.density)
		totalPoints += len(interpolated[i])
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	batchID, dropped := w.queue.push(paths, interpolated)
	if dropped > 0 {
		w.logger.Warn("pending queue overflow, dropped oldest batches", map[string]any{
			"dropped_batches": dropped,
			"new_batch_id":    batchID,
		})
	}
	if err := w.persistLocked(); err != nil {
		return batchID, totalPoints, err
	}
	return batchID, totalPoints, nil
}

// PopStrokes atomically returns and clears the entire pending queue in
// FIFO order. The cleared queue reaches disk with FinishDrawing after
// execution; persisting here would drop the batch on a crash
// mid-playback, while deferring only risks a replay.
func (w *Workspace) PopStrokes() []types.PendingStroke {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.queue.popAll()
}

// PendingCount returns the number of queued pending strokes.
func (w *Workspace) PendingCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.queue.len()
}
