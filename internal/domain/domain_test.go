package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/cadence/internal/constants"
)

func TestAgent_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		agent Agent
		want  bool
	}{
		{"claude is valid", AgentClaude, true},
		{"stub is valid", AgentStub, true},
		{"empty is invalid", Agent(""), false},
		{"unknown is invalid", Agent("gemini"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.agent.IsValid())
		})
	}
}

func TestAgent_DefaultModel(t *testing.T) {
	assert.Equal(t, "sonnet", AgentClaude.DefaultModel())
	assert.Empty(t, AgentStub.DefaultModel())
}

func TestNewTask(t *testing.T) {
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.FixedZone("x", 3600))

	t.Run("user task gets priority zero", func(t *testing.T) {
		task := NewTask(constants.TaskKindUser, "fix it", now)
		assert.True(t, strings.HasPrefix(task.ID, "task-"))
		assert.Equal(t, constants.TaskKindUser, task.Kind)
		assert.Equal(t, constants.PriorityUser, task.PriorityClass)
		assert.Equal(t, "fix it", task.Payload)
		assert.True(t, task.CreatedAt.Equal(now))
		assert.Equal(t, time.UTC, task.CreatedAt.Location())
	})

	t.Run("autonomous task gets priority one", func(t *testing.T) {
		task := NewTask(constants.TaskKindAutonomous, "explore", now)
		assert.Equal(t, constants.PriorityAutonomous, task.PriorityClass)
	})

	t.Run("ids are unique", func(t *testing.T) {
		a := NewTask(constants.TaskKindUser, "a", now)
		b := NewTask(constants.TaskKindUser, "a", now)
		assert.NotEqual(t, a.ID, b.ID)
	})
}

func TestTask_JSONFieldNames(t *testing.T) {
	task := Task{ID: "task-1", Kind: constants.TaskKindUser, Payload: "p", PriorityClass: 0}
	data, err := json.Marshal(task)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"id", "kind", "payload", "createdAt", "priorityClass"} {
		assert.Contains(t, raw, key)
	}
}

func TestOutcome_Result(t *testing.T) {
	var nilOutcome *Outcome
	assert.Empty(t, nilOutcome.Result())
	assert.Empty(t, (&Outcome{}).Result())

	text := "done"
	assert.Equal(t, "done", (&Outcome{ResultText: &text}).Result())
}

func TestTickResult_Duration(t *testing.T) {
	start := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	r := TickResult{StartedAt: start, FinishedAt: start.Add(1500 * time.Millisecond)}
	assert.Equal(t, 1500*time.Millisecond, r.Duration())
}
