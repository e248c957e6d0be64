package runtime

import (
	"context"
	"testing"

	"github.com/inkhaven/easel/agent"
	"github.com/inkhaven/easel/broadcast"
	"github.com/inkhaven/easel/log"
	"github.com/inkhaven/easel/types"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(RegistryConfig{
		DataDir: t.TempDir(),
		Clock:   &manualClock{},
		RunnerFactory: func(userID string) agent.Runner {
			return agent.NewScriptedRunner(agent.TurnOutput{Done: true}, agent.TurnOutput{Done: true})
		},
		Logger: log.NewNop(),
	})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	return r
}

func TestRegistry_GetOrCreateIdempotent(t *testing.T) {
	r := testRegistry(t)

	a, err := r.GetOrCreate("ada")
	if err != nil {
		t.Fatalf("first access: %v", err)
	}
	b, err := r.GetOrCreate("ada")
	if err != nil {
		t.Fatalf("second access: %v", err)
	}
	if a != b {
		t.Error("repeated access must return the same workspace")
	}
}

func TestRegistry_WorkspacesAreIsolated(t *testing.T) {
	r := testRegistry(t)

	a, err := r.GetOrCreate("ada")
	if err != nil {
		t.Fatalf("ada: %v", err)
	}
	b, err := r.GetOrCreate("grace")
	if err != nil {
		t.Fatalf("grace: %v", err)
	}

	if err := a.State.AddStroke(types.Path{
		Kind:   types.PathLine,
		Points: []types.Point{{X: 0, Y: 0}, {X: 5, Y: 5}},
		Author: types.AuthorHuman,
	}); err != nil {
		t.Fatalf("add stroke: %v", err)
	}

	if b.State.StrokeCount() != 0 {
		t.Error("one user's strokes leaked into another workspace")
	}
}

func TestRegistry_StartAgentLoopDoesNotStack(t *testing.T) {
	r := testRegistry(t)
	aw, err := r.GetOrCreate("ada")
	if err != nil {
		t.Fatalf("get workspace: %v", err)
	}
	aw.Hub.Register(broadcast.NewStubConn("viewer"))

	ctx := context.Background()
	r.StartAgentLoop(ctx, aw)
	r.StartAgentLoop(ctx, aw)
	r.StartAgentLoop(ctx, aw)

	runner := aw.Orch.runner.(*agent.ScriptedRunner)
	aw.Orch.Wake()
	waitFor(t, "single turn", func() bool { return runner.Calls() >= 1 })
	if calls := runner.Calls(); calls != 1 {
		t.Errorf("expected one turn after one wake, got %d", calls)
	}

	r.StopAgentLoop(aw)
}

func TestRegistry_AgentLoopRestarts(t *testing.T) {
	r := testRegistry(t)
	aw, err := r.GetOrCreate("ada")
	if err != nil {
		t.Fatalf("get workspace: %v", err)
	}
	aw.Hub.Register(broadcast.NewStubConn("viewer"))

	r.StartAgentLoop(context.Background(), aw)
	r.StopAgentLoop(aw)

	// A fresh start after a clean stop spawns a new loop.
	r.StartAgentLoop(context.Background(), aw)
	defer r.StopAgentLoop(aw)

	aw.Orch.Wake()
	runner := aw.Orch.runner.(*agent.ScriptedRunner)
	waitFor(t, "turn after restart", func() bool { return runner.Calls() >= 1 })
}

func TestRegistry_Shutdown(t *testing.T) {
	r := testRegistry(t)
	aw, err := r.GetOrCreate("ada")
	if err != nil {
		t.Fatalf("get workspace: %v", err)
	}
	conn := broadcast.NewStubConn("viewer")
	aw.Hub.Register(conn)
	r.StartAgentLoop(context.Background(), aw)

	r.Shutdown()

	if !conn.Closed() {
		t.Error("shutdown should close registered connections")
	}
	select {
	case <-aw.done:
	default:
		t.Error("shutdown should stop the agent loop")
	}
}
