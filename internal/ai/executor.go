// Package ai provides the executors that perform tasks.
//
// An Executor receives a task payload and the role context, runs it to
// completion, and reports a structured Outcome. A returned error means the
// executor itself raised (transport or process failure); a task that ran but
// did not succeed is an Outcome with Success=false.
//
// IMPORTANT: This package may import internal/constants, internal/errors,
// internal/config, and internal/domain. It MUST NOT import internal/loop,
// internal/driver, or internal/cli.
package ai

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mrz1836/cadence/internal/config"
	"github.com/mrz1836/cadence/internal/domain"
	"github.com/mrz1836/cadence/internal/errors"
)

// Executor performs one task. Implementations must return promptly once ctx
// is canceled, releasing any subprocess they started.
type Executor interface {
	Execute(ctx context.Context, payload string, role domain.RoleContext) (*domain.Outcome, error)
}

// New builds the executor selected by cfg.Agent.
func New(cfg *config.ExecutorConfig, logger zerolog.Logger) (Executor, error) {
	if cfg == nil {
		return nil, errors.ErrConfigNil
	}
	switch domain.Agent(cfg.Agent) {
	case domain.AgentClaude:
		return NewClaudeExecutor(cfg, nil, WithClaudeLogger(logger)), nil
	case domain.AgentStub:
		return NewStubExecutor(), nil
	}
	return nil, fmt.Errorf("%w: %q", errors.ErrUnknownAgent, cfg.Agent)
}
