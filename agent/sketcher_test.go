package agent

import (
	"context"
	"testing"

	"github.com/inkhaven/easel/types"
)

func TestSketcher_ProducesBoundedCurves(t *testing.T) {
	s := NewSketcher("ada")
	out, err := s.RunTurn(context.Background(), TurnInput{Width: 200, Height: 100, PieceNumber: 1})
	if err != nil {
		t.Fatalf("run turn: %v", err)
	}
	if !out.Done {
		t.Error("sketcher turns finish in one iteration")
	}
	if len(out.Paths) == 0 {
		t.Fatal("expected at least one path")
	}
	for i, p := range out.Paths {
		if p.Kind != types.PathCubic || p.Author != types.AuthorAgent {
			t.Errorf("path %d: unexpected kind/author %s/%s", i, p.Kind, p.Author)
		}
		for _, pt := range p.Points {
			if pt.X < 0 || pt.X > 200 || pt.Y < 0 || pt.Y > 100 {
				t.Errorf("path %d: point %+v outside canvas", i, pt)
			}
		}
	}
	if out.Commentary == "" {
		t.Error("expected commentary")
	}
}

func TestSketcher_DeterministicPerUser(t *testing.T) {
	a, _ := NewSketcher("ada").RunTurn(context.Background(), TurnInput{Width: 100, Height: 100})
	b, _ := NewSketcher("ada").RunTurn(context.Background(), TurnInput{Width: 100, Height: 100})
	if a.Paths[0].Points[0] != b.Paths[0].Points[0] {
		t.Error("same user should replay the same sequence")
	}
}
