package broadcast

import (
	"encoding/json"
	"testing"

	"github.com/inkhaven/easel/log"
	"github.com/inkhaven/easel/types"
)

func TestHub_BroadcastDeliversToAll(t *testing.T) {
	hub := NewHub(log.NewNop())
	a := NewStubConn("a")
	b := NewStubConn("b")
	hub.Register(a)
	hub.Register(b)

	if err := hub.Broadcast(types.NewStatusMessage(types.StatusIdle)); err != nil {
		t.Fatalf("broadcast: %v", err)
	}

	for _, conn := range []*StubConn{a, b} {
		frames := conn.Frames()
		if len(frames) != 1 {
			t.Fatalf("conn %s: expected 1 frame, got %d", conn.ConnID, len(frames))
		}
		var msg types.StatusMessage
		if err := json.Unmarshal(frames[0], &msg); err != nil {
			t.Fatalf("decode frame: %v", err)
		}
		if msg.Type != types.MsgStatus || msg.Status != types.StatusIdle {
			t.Errorf("conn %s: unexpected message %+v", conn.ConnID, msg)
		}
	}
}

func TestHub_BroadcastFaultIsolation(t *testing.T) {
	hub := NewHub(log.NewNop())
	a := NewStubConn("a")
	bad := NewStubConn("bad")
	bad.FailSends = true
	c := NewStubConn("c")
	hub.Register(a)
	hub.Register(bad)
	hub.Register(c)

	if err := hub.Broadcast(types.NewClearMessage()); err != nil {
		t.Fatalf("broadcast: %v", err)
	}

	if len(a.Frames()) != 1 || len(c.Frames()) != 1 {
		t.Error("healthy connections must still receive the message")
	}
	if hub.Count() != 2 {
		t.Errorf("expected failing connection evicted, count %d", hub.Count())
	}
	if !bad.Closed() {
		t.Error("failing connection should be closed on eviction")
	}
}

func TestHub_BroadcastEmptySetIsNoOp(t *testing.T) {
	hub := NewHub(log.NewNop())

	if err := hub.Broadcast(types.NewClearMessage()); err != nil {
		t.Errorf("empty broadcast should be a no-op, got %v", err)
	}
}

func TestHub_SendOrderPreserved(t *testing.T) {
	hub := NewHub(log.NewNop())
	conn := NewStubConn("a")
	hub.Register(conn)

	statuses := []types.AgentStatus{types.StatusThinking, types.StatusDrawing, types.StatusIdle}
	for _, s := range statuses {
		if err := hub.Broadcast(types.NewStatusMessage(s)); err != nil {
			t.Fatal(err)
		}
	}

	frames := conn.Frames()
	if len(frames) != len(statuses) {
		t.Fatalf("expected %d frames, got %d", len(statuses), len(frames))
	}
	for i, want := range statuses {
		var msg types.StatusMessage
		if err := json.Unmarshal(frames[i], &msg); err != nil {
			t.Fatal(err)
		}
		if msg.Status != want {
			t.Errorf("frame %d: got %s, want %s", i, msg.Status, want)
		}
	}
}

func TestHub_RegisterIdempotent(t *testing.T) {
	hub := NewHub(log.NewNop())
	conn := NewStubConn("a")
	hub.Register(conn)
	hub.Register(conn)

	if hub.Count() != 1 {
		t.Errorf("duplicate register should not grow the set, count %d", hub.Count())
	}
}

func TestHub_SendToEvictsOnFailure(t *testing.T) {
	hub := NewHub(log.NewNop())
	bad := NewStubConn("bad")
	bad.FailSends = true
	hub.Register(bad)

	if err := hub.SendTo(bad, types.NewClearMessage()); err == nil {
		t.Error("expected error from failing send")
	}
	if hub.Count() != 0 {
		t.Errorf("expected eviction, count %d", hub.Count())
	}
}

func TestHub_Unregister(t *testing.T) {
	hub := NewHub(log.NewNop())
	conn := NewStubConn("a")
	hub.Register(conn)
	hub.Unregister(conn)

	if hub.Count() != 0 {
		t.Errorf("expected empty hub, count %d", hub.Count())
	}
	// Unregistering again is a no-op.
	hub.Unregister(conn)
}
