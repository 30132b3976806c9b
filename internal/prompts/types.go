package prompts

import "time"

// PromptID identifies a specific prompt template.
type PromptID string

// Prompt identifiers.
const (
	// UserTask wraps a human instruction with situational context.
	UserTask PromptID = "task/user"

	// AutonomousTask asks the executor to pick its own next step.
	AutonomousTask PromptID = "task/autonomous"
)

// ContextData is the situational header shared by every task prompt.
type ContextData struct {
	RoleName       string
	RepositoryPath string
	CycleNumber    int
	Timestamp      time.Time
}

// UserTaskData contains input data for a user-directed tick.
type UserTaskData struct {
	Context     ContextData
	Instruction string
}

// HistorySummary is one recent task, shortened for prompt use.
type HistorySummary struct {
	Kind        string
	Status      string
	Prompt      string
	Result      string
	CompletedAt time.Time
	DurationMs  int64
}

// AutonomousTaskData contains input data for an autonomous tick.
type AutonomousTaskData struct {
	Context ContextData
	// RoleDescription is the configured free-form role brief (optional).
	RoleDescription string
	// History is oldest first.
	History []HistorySummary
	// Notes is the progress notes blob; empty omits the section.
	Notes string
	// Repository is the repository state summary; empty omits the section.
	Repository string
}
