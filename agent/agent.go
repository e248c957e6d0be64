// Package agent defines the boundary to the autonomous drawing process.
// The runtime treats a turn as an opaque call: canvas snapshot and
// pending nudges in, zero or more paths plus commentary and a done flag
// out. How the paths are decided (an LLM, a script, a test fixture) is
// outside this module.
package agent

import (
	"context"

	"github.com/inkhaven/easel/types"
)

// TurnInput is the context handed to one agent turn.
type TurnInput struct {
	// Canvas is the committed stroke list in draw order.
	Canvas []types.Path
	// Width and Height are the canvas dimensions.
	Width, Height int
	// Nudges are the pending human text nudges, drained for this turn.
	Nudges []string
	// DrawingStyle is the workspace style hint.
	DrawingStyle string
	// PieceNumber is the current piece counter.
	PieceNumber int
	// Iteration is the 1-based iteration index within this turn cycle.
	Iteration int
}

// TurnOutput is what one agent turn produced.
type TurnOutput struct {
	// Paths are the strokes to draw, possibly empty.
	Paths []types.Path
	// Commentary is free-text monologue to surface to viewers.
	Commentary string
	// Done signals the agent considers its current piece of work finished
	// and the turn cycle should stop iterating.
	Done bool
}

// Runner executes agent turns for one workspace.
type Runner interface {
	// RunTurn executes one turn. Must respect context cancellation.
	RunTurn(ctx context.Context, input TurnInput) (*TurnOutput, error)
}

// RunnerFactory creates a Runner bound to a user's workspace.
type RunnerFactory func(userID string) Runner
