package constants

// TaskStatus is the recorded state of a task in the lifecycle store.
// Values use snake_case for JSON serialization compatibility.
//
//	running → completed | failed | interrupted
type TaskStatus string

const (
	// TaskStatusRunning marks the single in-flight task.
	TaskStatusRunning TaskStatus = "running"

	// TaskStatusCompleted indicates the executor reported success.
	TaskStatusCompleted TaskStatus = "completed"

	// TaskStatusFailed indicates the executor raised or reported a failure.
	TaskStatusFailed TaskStatus = "failed"

	// TaskStatusInterrupted indicates the task was canceled externally or the
	// process exited before an outcome was recorded.
	TaskStatusInterrupted TaskStatus = "interrupted"
)

// String returns the string representation of the TaskStatus.
func (s TaskStatus) String() string {
	return string(s)
}

// IsTerminal reports whether the status ends a task's lifecycle.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusFailed, TaskStatusInterrupted:
		return true
	case TaskStatusRunning:
		return false
	}
	return false
}

// TaskKind identifies where a task came from.
type TaskKind string

const (
	// TaskKindUser tasks originate from an external instruction.
	TaskKindUser TaskKind = "user"

	// TaskKindAutonomous tasks are synthesized when no instruction is pending.
	TaskKindAutonomous TaskKind = "autonomous"
)

// String returns the string representation of the TaskKind.
func (k TaskKind) String() string {
	return string(k)
}

// Priority returns the fixed priority class of the kind.
func (k TaskKind) Priority() int {
	if k == TaskKindUser {
		return PriorityUser
	}
	return PriorityAutonomous
}
