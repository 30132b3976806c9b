package domain

import (
	"time"

	"github.com/mrz1836/cadence/internal/constants"
)

// CurrentTaskRecord describes the single in-flight task.
type CurrentTaskRecord struct {
	ID        string               `json:"id"`
	Kind      constants.TaskKind   `json:"kind"`
	Payload   string               `json:"payload"`
	StartedAt time.Time            `json:"startedAt"`
	Status    constants.TaskStatus `json:"status"`
}

// HistoryEntry is the immutable record of one finished task.
type HistoryEntry struct {
	ID          string               `json:"id"`
	Kind        constants.TaskKind   `json:"kind"`
	Payload     string               `json:"payload"`
	ResultText  string               `json:"resultText"`
	Status      constants.TaskStatus `json:"status"`
	StartedAt   time.Time            `json:"startedAt"`
	CompletedAt time.Time            `json:"completedAt"`
	DurationMs  int64                `json:"durationMs"`
	CostUSD     float64              `json:"costUnits"`
	TurnCount   int                  `json:"turnCount"`
}

// Stats is the running aggregate over recorded history entries.
// It is updated incrementally each time an entry is appended.
type Stats struct {
	TotalCycles     int     `json:"totalCycles"`
	TotalCostUSD    float64 `json:"totalCostUsd"`
	TotalTasks      int     `json:"totalTasks"`
	UserTasks       int     `json:"userTasks"`
	AutonomousTasks int     `json:"autonomousTasks"`
	FailedTasks     int     `json:"failedTasks"`
}

// Outcome is what an executor reports for a single task.
type Outcome struct {
	// Success is false when the executor ran but the task did not succeed.
	Success bool `json:"success"`

	// ResultText is the executor's final message, nil when it produced none.
	ResultText *string `json:"resultText,omitempty"`

	CostUSD    float64  `json:"costUnits"`
	TurnCount  int      `json:"turnCount"`
	DurationMs int64    `json:"durationMs"`
	Errors     []string `json:"errors,omitempty"`
}

// Result returns ResultText or the empty string.
func (o *Outcome) Result() string {
	if o == nil || o.ResultText == nil {
		return ""
	}
	return *o.ResultText
}

// RoleContext is the read-only context used for prompt templating and
// for choosing the executor's working directory.
type RoleContext struct {
	Name           string `json:"name"`
	RepositoryPath string `json:"repositoryPath"`
	CycleNumber    int    `json:"cycleNumber"`
}

// TickResult is what one pass of the execution loop reports to its driver.
type TickResult struct {
	Task       Task                 `json:"task"`
	Success    bool                 `json:"success"`
	Status     constants.TaskStatus `json:"status"`
	StartedAt  time.Time            `json:"startedAt"`
	FinishedAt time.Time            `json:"finishedAt"`
	CostUSD    float64              `json:"costUnits"`
	Error      string               `json:"error,omitempty"`
}

// Duration returns the wall-clock time the tick spent executing.
func (r TickResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
