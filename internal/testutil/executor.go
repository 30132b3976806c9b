package testutil

import (
	"context"
	"sync"

	"github.com/mrz1836/cadence/internal/domain"
)

// ExecutorFunc adapts a function to the executor interface used by the loop.
type ExecutorFunc func(ctx context.Context, payload string, role domain.RoleContext) (*domain.Outcome, error)

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, payload string, role domain.RoleContext) (*domain.Outcome, error) {
	return f(ctx, payload, role)
}

// Call is one recorded executor invocation.
type Call struct {
	Payload string
	Role    domain.RoleContext
}

// RecordingExecutor records every call and delegates to Fn. With a nil Fn it
// reports success with result "done".
type RecordingExecutor struct {
	Fn ExecutorFunc

	mu    sync.Mutex
	calls []Call
}

// Execute records the call and delegates.
func (r *RecordingExecutor) Execute(ctx context.Context, payload string, role domain.RoleContext) (*domain.Outcome, error) {
	r.mu.Lock()
	r.calls = append(r.calls, Call{Payload: payload, Role: role})
	r.mu.Unlock()

	if r.Fn != nil {
		return r.Fn(ctx, payload, role)
	}
	return SuccessOutcome("done", 0, 1, 0), nil
}

// Calls returns a copy of the recorded calls.
func (r *RecordingExecutor) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// SuccessOutcome builds a successful outcome.
func SuccessOutcome(text string, cost float64, turns int, durationMs int64) *domain.Outcome {
	return &domain.Outcome{
		Success:    true,
		ResultText: &text,
		CostUSD:    cost,
		TurnCount:  turns,
		DurationMs: durationMs,
	}
}
