package agent

import (
	"context"
	"sync"
)

// ScriptedRunner replays a fixed sequence of turn outputs. Test use.
// Once the script is exhausted it returns empty done turns.
type ScriptedRunner struct {
	mu     sync.Mutex
	script []TurnOutput
	errs   []error
	calls  int
	inputs []TurnInput
}

// NewScriptedRunner creates a runner replaying the given outputs in order.
func NewScriptedRunner(script ...TurnOutput) *ScriptedRunner {
	return &ScriptedRunner{script: script}
}

// FailWith makes call number n (0-based) return err instead of output.
func (r *ScriptedRunner) FailWith(n int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for len(r.errs) <= n {
		r.errs = append(r.errs, nil)
	}
	r.errs[n] = err
}

// RunTurn implements Runner.
func (r *ScriptedRunner) RunTurn(ctx context.Context, input TurnInput) (*TurnOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.calls
	r.calls++
	r.inputs = append(r.inputs, input)

	if n < len(r.errs) && r.errs[n] != nil {
		return nil, r.errs[n]
	}
	if n < len(r.script) {
		out := r.script[n]
		return &out, nil
	}
	return &TurnOutput{Done: true}, nil
}

// Calls returns how many turns have run.
func (r *ScriptedRunner) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// Inputs returns a copy of the recorded turn inputs.
func (r *ScriptedRunner) Inputs() []TurnInput {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]TurnInput, len(r.inputs))
	copy(out, r.inputs)
	return out
}

// Verify ScriptedRunner implements Runner.
var _ Runner = (*ScriptedRunner)(nil)
