// Package lifecycle records the current task, the append-only task history,
// and aggregate statistics, and persists them across restarts.
//
// The on-disk document carries a schema version tag. Any other tag, including
// none, is discarded in favor of a fresh state with a new session; there is
// no migration between versions.
package lifecycle

import (
	"time"

	"github.com/google/uuid"

	"github.com/mrz1836/cadence/internal/constants"
	"github.com/mrz1836/cadence/internal/domain"
)

// State is the persisted lifecycle document.
//
// Example JSON representation:
//
//	{
//	    "version": "cadence-state/1",
//	    "sessionId": "0b7c...",
//	    "startedAt": "2026-01-02T10:00:00Z",
//	    "currentRole": "maintainer",
//	    "currentTask": null,
//	    "taskHistory": [],
//	    "stats": {"totalCycles": 0, ...}
//	}
type State struct {
	Version     string                    `json:"version"`
	SessionID   string                    `json:"sessionId"`
	StartedAt   time.Time                 `json:"startedAt"`
	CurrentRole string                    `json:"currentRole"`
	CurrentTask *domain.CurrentTaskRecord `json:"currentTask"`
	TaskHistory []domain.HistoryEntry     `json:"taskHistory"`
	Stats       domain.Stats              `json:"stats"`
}

// newState returns a freshly initialized state with a new session.
func newState(now time.Time) *State {
	return &State{
		Version:     constants.StateSchemaVersion,
		SessionID:   uuid.NewString(),
		StartedAt:   now.UTC(),
		TaskHistory: []domain.HistoryEntry{},
	}
}

// clone returns a deep copy so callers never alias the store's state.
func (s *State) clone() State {
	out := *s
	if s.CurrentTask != nil {
		ct := *s.CurrentTask
		out.CurrentTask = &ct
	}
	out.TaskHistory = make([]domain.HistoryEntry, len(s.TaskHistory))
	copy(out.TaskHistory, s.TaskHistory)
	return out
}

// applyStats updates stats for one appended entry. Every recorded outcome is
// a cycle and a task; failed and interrupted entries also count as failures.
func applyStats(stats *domain.Stats, entry domain.HistoryEntry) {
	stats.TotalCycles++
	stats.TotalTasks++
	stats.TotalCostUSD += entry.CostUSD

	switch entry.Kind {
	case constants.TaskKindUser:
		stats.UserTasks++
	case constants.TaskKindAutonomous:
		stats.AutonomousTasks++
	}

	if entry.Status != constants.TaskStatusCompleted {
		stats.FailedTasks++
	}
}
