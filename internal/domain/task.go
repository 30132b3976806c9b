package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/mrz1836/cadence/internal/constants"
)

// Task is a unit of work handed to the executor.
//
// Example JSON representation:
//
//	{
//	    "id": "task-550e8400-e29b-41d4-a716-446655440000",
//	    "kind": "user",
//	    "payload": "Add retries to the fetcher",
//	    "createdAt": "2026-01-02T10:00:00Z",
//	    "priorityClass": 0
//	}
type Task struct {
	// ID is assigned at creation and never changes.
	ID string `json:"id"`

	// Kind records whether the task came from an instruction or was synthesized.
	Kind constants.TaskKind `json:"kind"`

	// Payload is the instruction text passed to the executor.
	Payload string `json:"payload"`

	// CreatedAt is when the task was constructed.
	CreatedAt time.Time `json:"createdAt"`

	// PriorityClass is the dequeue rank. Lower is served first.
	PriorityClass int `json:"priorityClass"`
}

// NewTaskID returns a fresh opaque task identifier.
func NewTaskID() string {
	return "task-" + uuid.NewString()
}

// NewTask constructs a task of the given kind with its fixed priority class.
func NewTask(kind constants.TaskKind, payload string, now time.Time) Task {
	return Task{
		ID:            NewTaskID(),
		Kind:          kind,
		Payload:       payload,
		CreatedAt:     now.UTC(),
		PriorityClass: kind.Priority(),
	}
}
