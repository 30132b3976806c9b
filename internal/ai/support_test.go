package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/cadence/internal/domain"
	cadenceerrors "github.com/mrz1836/cadence/internal/errors"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("wrapped: %w", context.DeadlineExceeded), false},
		{"auth", errors.New("Authentication failed"), false},
		{"api key env", errors.New("ANTHROPIC_API_KEY not set"), false},
		{"parse", errors.New("failed to parse json response"), false},
		{"missing binary", errors.New("executable file not found"), false},
		{"network", errors.New("connection reset by peer"), true},
		{"rate limit", errors.New("rate limit exceeded"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryable(tt.err))
		})
	}
}

func TestWrapCLIExecutionError(t *testing.T) {
	info := claudeCLIInfo

	err := WrapCLIExecutionError(info, errors.New("exit status 127"), []byte("sh: claude: command not found"))
	require.ErrorIs(t, err, cadenceerrors.ErrClaudeInvocation)
	assert.Contains(t, err.Error(), "please install claude code")

	err = WrapCLIExecutionError(info, errors.New("exit status 1"), []byte("ANTHROPIC_API_KEY missing"))
	assert.Contains(t, err.Error(), "API key error")

	err = WrapCLIExecutionError(info, errors.New("exit status 2"), nil)
	assert.Equal(t, "claude invocation failed: exit status 2", err.Error())
}

func TestParseClaudeResponse(t *testing.T) {
	_, err := parseClaudeResponse([]byte("   "))
	require.ErrorIs(t, err, cadenceerrors.ErrClaudeInvocation)

	resp, err := parseClaudeResponse([]byte(successJSON))
	require.NoError(t, err)
	assert.Equal(t, "s1", resp.SessionID)

	outcome := resp.toOutcome("warning on stderr")
	assert.True(t, outcome.Success)
	assert.Empty(t, outcome.Errors, "stderr is only attached to error responses")
}

func TestStubExecutor(t *testing.T) {
	s := NewStubExecutor()
	role := domain.RoleContext{Name: "maintainer", CycleNumber: 2}

	outcome, err := s.Execute(context.Background(), "\n  first line\nsecond line", role)
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.Equal(t, "stub run for maintainer (cycle 2): first line", outcome.Result())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Execute(ctx, "x", role)
	require.ErrorIs(t, err, context.Canceled)
}
