package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/mrz1836/cadence/internal/ctxutil"
	"github.com/mrz1836/cadence/internal/domain"
)

// StubExecutor completes every task immediately without side effects.
// It backs the "stub" agent used for dry runs.
type StubExecutor struct{}

// NewStubExecutor returns a StubExecutor.
func NewStubExecutor() *StubExecutor {
	return &StubExecutor{}
}

// Execute echoes the first line of the payload as the result.
func (s *StubExecutor) Execute(ctx context.Context, payload string, role domain.RoleContext) (*domain.Outcome, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}
	first, _, _ := strings.Cut(strings.TrimSpace(payload), "\n")
	text := fmt.Sprintf("stub run for %s (cycle %d): %s", role.Name, role.CycleNumber, first)
	return &domain.Outcome{
		Success:    true,
		ResultText: &text,
		TurnCount:  1,
	}, nil
}

// Compile-time check that StubExecutor implements Executor.
var _ Executor = (*StubExecutor)(nil)
