package agent

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/inkhaven/easel/types"
)

// Sketcher is the built-in procedural runner: it lays down a few curved
// strokes per turn and stops. It stands in wherever no external agent
// process is wired, and keeps the full runtime path exercisable without
// one.
type Sketcher struct {
	rng *rand.Rand

	// strokesPerTurn is how many paths one turn produces.
	strokesPerTurn int
}

// NewSketcher creates a procedural runner seeded for the given user, so
// the same user gets a reproducible drawing sequence across restarts.
func NewSketcher(userID string) *Sketcher {
	var seed int64
	for _, r := range userID {
		seed = seed*31 + int64(r)
	}
	return &Sketcher{
		rng:            rand.New(rand.NewSource(seed)),
		strokesPerTurn: 3,
	}
}

// RunTurn implements Runner. Each turn sketches a few cubic curves
// inside the canvas bounds; nudge text is acknowledged in the
// commentary but does not steer the procedural output.
func (s *Sketcher) RunTurn(ctx context.Context, input TurnInput) (*TurnOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	paths := make([]types.Path, 0, s.strokesPerTurn)
	for i := 0; i < s.strokesPerTurn; i++ {
		paths = append(paths, s.curve(input.Width, input.Height))
	}

	commentary := fmt.Sprintf("sketching piece %d, %d strokes on the canvas so far",
		input.PieceNumber, len(input.Canvas))
	if len(input.Nudges) > 0 {
		commentary = fmt.Sprintf("noted %q; %s", input.Nudges[len(input.Nudges)-1], commentary)
	}

	return &TurnOutput{
		Paths:      paths,
		Commentary: commentary,
		Done:       true,
	}, nil
}

// curve builds one random cubic bezier within the canvas.
func (s *Sketcher) curve(width, height int) types.Path {
	pt := func() types.Point {
		return types.Point{
			X: s.rng.Float64() * float64(width),
			Y: s.rng.Float64() * float64(height),
		}
	}
	return types.Path{
		Kind:    types.PathCubic,
		Points:  []types.Point{pt(), pt(), pt(), pt()},
		Author:  types.AuthorAgent,
		Width:   1 + s.rng.Float64()*3,
		Opacity: 0.6 + s.rng.Float64()*0.4,
	}
}

var _ Runner = (*Sketcher)(nil)
