package errors_test

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cadenceerrors "github.com/mrz1836/cadence/internal/errors"
)

func TestSentinelErrors_Messages(t *testing.T) {
	t.Parallel()

	sentinels := map[string]error{
		"ErrCapacityExceeded": cadenceerrors.ErrCapacityExceeded,
		"ErrPersistenceWrite": cadenceerrors.ErrPersistenceWrite,
		"ErrPersistenceLoad":  cadenceerrors.ErrPersistenceLoad,
		"ErrSchemaMismatch":   cadenceerrors.ErrSchemaMismatch,
		"ErrExecutionFailed":  cadenceerrors.ErrExecutionFailed,
		"ErrInterrupted":      cadenceerrors.ErrInterrupted,
		"ErrExecutorPanic":    cadenceerrors.ErrExecutorPanic,
		"ErrClaudeInvocation": cadenceerrors.ErrClaudeInvocation,
		"ErrLockHeld":         cadenceerrors.ErrLockHeld,
	}

	for name, err := range sentinels {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			require.Error(t, err)
			msg := err.Error()
			assert.NotEmpty(t, msg)
			assert.Equal(t, strings.ToLower(msg[:1]), msg[:1], "error strings start lowercase")
		})
	}
}

func TestWrap(t *testing.T) {
	t.Parallel()

	t.Run("nil stays nil", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, cadenceerrors.Wrap(nil, "context"))
		require.NoError(t, cadenceerrors.Wrapf(nil, "context %d", 1))
	})

	t.Run("preserves chain", func(t *testing.T) {
		t.Parallel()
		err := cadenceerrors.Wrapf(cadenceerrors.ErrCapacityExceeded, "enqueue %q", "x")
		require.ErrorIs(t, err, cadenceerrors.ErrCapacityExceeded)
		assert.Equal(t, `enqueue "x": queue capacity exceeded`, err.Error())
	})
}

func TestValidationErrors(t *testing.T) {
	t.Parallel()

	var ve cadenceerrors.ValidationErrors
	require.NoError(t, ve.OrNil())

	ve.Add("queue.max_size", "must be at least 1")
	ve.Add("role.name", "is required")

	err := ve.OrNil()
	require.Error(t, err)
	require.ErrorIs(t, err, cadenceerrors.ErrConfigInvalid)
	assert.Contains(t, err.Error(), "queue.max_size: must be at least 1")
	assert.Contains(t, err.Error(), "role.name: is required")

	var target *cadenceerrors.ValidationErrors
	require.True(t, stderrors.As(err, &target))
	assert.Len(t, target.Fields, 2)
}

func TestExitCode2Error(t *testing.T) {
	t.Parallel()

	base := fmt.Errorf("bad flag: %w", cadenceerrors.ErrInvalidOutputFormat)
	err := cadenceerrors.NewExitCode2Error(base)
	assert.True(t, cadenceerrors.IsExitCode2Error(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, cadenceerrors.IsExitCode2Error(base))
	require.ErrorIs(t, err, cadenceerrors.ErrInvalidOutputFormat)
}

func TestUserMessageAndActionable(t *testing.T) {
	t.Parallel()

	assert.Empty(t, cadenceerrors.UserMessage(nil))

	msg, action := cadenceerrors.Actionable(fmt.Errorf("enqueue: %w", cadenceerrors.ErrCapacityExceeded))
	assert.Equal(t, "The task queue is full.", msg)
	assert.Contains(t, action, "queue.max_size")

	custom := stderrors.New("something odd")
	assert.Equal(t, "something odd", cadenceerrors.UserMessage(custom))
	_, action = cadenceerrors.Actionable(custom)
	assert.Empty(t, action)
}
