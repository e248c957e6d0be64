package router

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/inkhaven/easel/adapter"
	"github.com/inkhaven/easel/broadcast"
	"github.com/inkhaven/easel/canvas"
	"github.com/inkhaven/easel/log"
	"github.com/inkhaven/easel/types"
)

type stubWaker struct{ wakes int }

func (w *stubWaker) Wake() { w.wakes++ }

// stubNotifier records published events and signals each arrival, since
// handlers publish from a goroutine.
type stubNotifier struct {
	events chan adapter.PieceArchivedEvent
}

func newStubNotifier() *stubNotifier {
	return &stubNotifier{events: make(chan adapter.PieceArchivedEvent, 4)}
}

func (n *stubNotifier) Publish(ctx context.Context, event adapter.PieceArchivedEvent) error {
	n.events <- event
	return nil
}

func (n *stubNotifier) Close() error { return nil }

type fixture struct {
	router   *Router
	rc       *Context
	ws       *canvas.Workspace
	conn     *broadcast.StubConn
	waker    *stubWaker
	notifier *stubNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ws, err := canvas.Open(canvas.Options{
		UserID: "ada",
		Dir:    t.TempDir(),
		Logger: log.NewNop(),
	})
	if err != nil {
		t.Fatalf("open workspace: %v", err)
	}

	hub := broadcast.NewHub(log.NewNop())
	conn := broadcast.NewStubConn("device-1")
	hub.Register(conn)

	waker := &stubWaker{}
	notifier := newStubNotifier()
	return &fixture{
		router: New(log.NewNop()),
		rc: &Context{
			Workspace: ws,
			Hub:       hub,
			Waker:     waker,
			Conn:      conn,
			Notifier:  notifier,
			Logger:    log.NewNop(),
		},
		ws:       ws,
		conn:     conn,
		waker:    waker,
		notifier: notifier,
	}
}

func (f *fixture) frames(t *testing.T) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, frame := range f.conn.Frames() {
		var m map[string]any
		if err := json.Unmarshal(frame, &m); err != nil {
			t.Fatalf("decode frame: %v", err)
		}
		out = append(out, m)
	}
	return out
}

func (f *fixture) lastFrame(t *testing.T) map[string]any {
	t.Helper()
	frames := f.frames(t)
	if len(frames) == 0 {
		t.Fatal("no frames sent")
	}
	return frames[len(frames)-1]
}

func strokeMessage(pts ...types.Point) types.ClientMessage {
	return types.ClientMessage{Type: types.MsgStroke, Points: pts, Color: "#1a1a1a", Width: 2}
}

func TestRoute_UnknownType(t *testing.T) {
	f := newFixture(t)
	if f.router.Route(f.rc, types.ClientMessage{Type: "teleport"}) {
		t.Error("unknown type should be unhandled")
	}
	if len(f.conn.Frames()) != 0 {
		t.Error("unknown type should send nothing")
	}
}

func TestRoute_Stroke(t *testing.T) {
	f := newFixture(t)

	handled := f.router.Route(f.rc, strokeMessage(types.Point{X: 0, Y: 0}, types.Point{X: 10, Y: 20}))
	if !handled {
		t.Fatal("stroke should be handled")
	}
	if f.ws.StrokeCount() != 1 {
		t.Fatalf("stroke count: got %d, want 1", f.ws.StrokeCount())
	}

	strokes := f.ws.Strokes()
	if strokes[0].Author != types.AuthorHuman {
		t.Errorf("client strokes are human-authored, got %s", strokes[0].Author)
	}
	if strokes[0].Kind != types.PathPolyline {
		t.Errorf("client strokes are polylines, got %s", strokes[0].Kind)
	}

	last := f.lastFrame(t)
	if last["type"] != "stroke_complete" {
		t.Errorf("expected stroke_complete echo, got %v", last["type"])
	}
}

func TestRoute_StrokeTooShort(t *testing.T) {
	f := newFixture(t)

	if !f.router.Route(f.rc, strokeMessage(types.Point{X: 1, Y: 1})) {
		t.Fatal("handled types return true even on handler error")
	}
	if f.ws.StrokeCount() != 0 {
		t.Error("degenerate stroke must not land on the canvas")
	}
	if f.lastFrame(t)["type"] != "error" {
		t.Error("handler failure should reply with an error message")
	}
}

func TestRoute_Nudge(t *testing.T) {
	f := newFixture(t)

	f.router.Route(f.rc, types.ClientMessage{Type: types.MsgNudge, Text: "more birds"})

	nudges := f.ws.DrainNudges()
	if len(nudges) != 1 || nudges[0] != "more birds" {
		t.Errorf("nudge not recorded: %v", nudges)
	}
	if f.waker.wakes != 1 {
		t.Errorf("nudge should wake the agent, wakes=%d", f.waker.wakes)
	}
}

func TestRoute_Clear(t *testing.T) {
	f := newFixture(t)
	f.router.Route(f.rc, strokeMessage(types.Point{X: 0, Y: 0}, types.Point{X: 5, Y: 5}))

	f.router.Route(f.rc, types.ClientMessage{Type: types.MsgClear})

	if f.ws.StrokeCount() != 0 {
		t.Error("clear should empty the canvas")
	}
	if f.lastFrame(t)["type"] != "clear" {
		t.Error("clear should broadcast")
	}
}

func TestRoute_PauseResume(t *testing.T) {
	f := newFixture(t)

	f.router.Route(f.rc, types.ClientMessage{Type: types.MsgPause})
	if !f.ws.Paused() {
		t.Fatal("pause should set the pause flag")
	}
	if f.lastFrame(t)["status"] != string(types.StatusPaused) {
		t.Errorf("pause should broadcast paused status, got %v", f.lastFrame(t))
	}

	f.router.Route(f.rc, types.ClientMessage{Type: types.MsgResume, Direction: "looser linework"})
	if f.ws.Paused() {
		t.Fatal("resume should clear the pause flag")
	}
	if f.ws.DrawingStyle() != "looser linework" {
		t.Errorf("resume direction becomes the style hint, got %q", f.ws.DrawingStyle())
	}
	if f.waker.wakes != 1 {
		t.Errorf("resume should wake the agent, wakes=%d", f.waker.wakes)
	}
}

func TestRoute_NewCanvasArchives(t *testing.T) {
	f := newFixture(t)
	f.router.Route(f.rc, strokeMessage(types.Point{X: 0, Y: 0}, types.Point{X: 5, Y: 5}))

	f.router.Route(f.rc, types.ClientMessage{Type: types.MsgNewCanvas, Text: "first study"})

	if f.ws.StrokeCount() != 0 {
		t.Error("new_canvas should reset the canvas")
	}

	var sawNew, sawGallery bool
	for _, frame := range f.frames(t) {
		switch frame["type"] {
		case "new_canvas":
			sawNew = true
			if frame["saved_id"] != "piece-0001" {
				t.Errorf("saved_id: got %v, want piece-0001", frame["saved_id"])
			}
			if frame["piece_number"] != 2.0 {
				t.Errorf("piece_number: got %v, want 2", frame["piece_number"])
			}
		case "gallery_update":
			sawGallery = true
		}
	}
	if !sawNew || !sawGallery {
		t.Errorf("expected new_canvas and gallery_update broadcasts, got new=%v gallery=%v", sawNew, sawGallery)
	}
	if f.waker.wakes == 0 {
		t.Error("new_canvas should wake the agent")
	}

	select {
	case event := <-f.notifier.events:
		if event.EventType != adapter.EventPieceArchived {
			t.Errorf("event type: got %s", event.EventType)
		}
		if event.PieceID != "piece-0001" || event.StrokeCount != 1 || event.Title != "first study" {
			t.Errorf("unexpected event: %+v", event)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("archive should publish a piece event")
	}
}

func TestRoute_NewCanvasAutoResumes(t *testing.T) {
	f := newFixture(t)
	f.router.Route(f.rc, types.ClientMessage{Type: types.MsgPause})

	f.router.Route(f.rc, types.ClientMessage{Type: types.MsgNewCanvas})

	if f.ws.Paused() {
		t.Error("new_canvas should auto-resume a paused agent")
	}
	if f.waker.wakes == 0 {
		t.Error("new_canvas should wake the agent")
	}
}

func TestRoute_NewCanvasEmptySkipsArchive(t *testing.T) {
	f := newFixture(t)

	f.router.Route(f.rc, types.ClientMessage{Type: types.MsgNewCanvas})

	last := f.lastFrame(t)
	if last["type"] != "new_canvas" {
		t.Fatalf("expected new_canvas broadcast, got %v", last["type"])
	}
	if _, ok := last["saved_id"]; ok {
		t.Error("empty canvas archives nothing, saved_id must be omitted")
	}
	select {
	case <-f.notifier.events:
		t.Error("empty canvas must not publish a piece event")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRoute_LoadCanvas(t *testing.T) {
	f := newFixture(t)
	f.router.Route(f.rc, strokeMessage(types.Point{X: 0, Y: 0}, types.Point{X: 5, Y: 5}))
	f.router.Route(f.rc, types.ClientMessage{Type: types.MsgNewCanvas})

	f.router.Route(f.rc, types.ClientMessage{Type: types.MsgLoadCanvas, CanvasID: "piece-0001"})

	if f.ws.StrokeCount() != 1 {
		t.Errorf("restored canvas should hold the archived stroke, got %d", f.ws.StrokeCount())
	}
	last := f.lastFrame(t)
	if last["type"] != "load_canvas" {
		t.Errorf("expected load_canvas broadcast, got %v", last["type"])
	}
}

func TestRoute_LoadCanvasMissing(t *testing.T) {
	f := newFixture(t)

	f.router.Route(f.rc, types.ClientMessage{Type: types.MsgLoadCanvas, CanvasID: "piece-9999"})

	if f.lastFrame(t)["type"] != "error" {
		t.Error("missing piece should reply with an error message")
	}
	if f.ws.StrokeCount() != 0 {
		t.Error("failed load must leave the canvas untouched")
	}
}

func TestRoute_SetStyle(t *testing.T) {
	f := newFixture(t)

	f.router.Route(f.rc, types.ClientMessage{Type: types.MsgSetStyle, DrawingStyle: "pointillism"})

	if f.ws.DrawingStyle() != "pointillism" {
		t.Errorf("style: got %q, want pointillism", f.ws.DrawingStyle())
	}
}
