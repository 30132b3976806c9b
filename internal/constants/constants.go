// Package constants provides centralized constant values used throughout cadence.
// This package is the single source of truth for all shared constants and MUST NOT
// import any other internal packages.
package constants

import "time"

// File names used by cadence for state persistence.
const (
	// QueueFileName is the JSON array of pending tasks owned by the priority queue.
	QueueFileName = "queue.json"

	// StateFileName is the JSON object owned by the lifecycle store
	// (current task, history, stats).
	StateFileName = "state.json"

	// LockFileName is the process lock that makes a single driver the only writer
	// of the state directory.
	LockFileName = "cadence.lock"

	// JournalFileName is the SQLite tick journal.
	JournalFileName = "journal.db"

	// NotesFileName is the free-form progress notes read by the synthesizer.
	NotesFileName = "notes.md"
)

// Directory names used by cadence for organizing data.
const (
	// StateDir is the hidden directory created inside each managed repository.
	StateDir = ".cadence"

	// InboxDir is the directory (under StateDir) watched for injected instructions.
	InboxDir = "inbox"

	// LogsDir is the directory (under StateDir) where log files are stored.
	LogsDir = "logs"
)

// Schema version tags. Any other value on disk falls back to a fresh default.
const (
	// StateSchemaVersion is the literal version tag of the lifecycle state file.
	StateSchemaVersion = "cadence-state/1"
)

// Priority classes. Lower value is served first. The scheme is closed: no other
// values are valid.
const (
	// PriorityUser is the class of tasks injected by a human.
	PriorityUser = 0

	// PriorityAutonomous is the class of tasks synthesized when the queue is empty.
	PriorityAutonomous = 1
)

// Defaults for the scheduling core.
const (
	// DefaultMaxQueueSize is the maximum number of pending items in the queue.
	DefaultMaxQueueSize = 1000

	// DefaultTickInterval is the time between two driver ticks.
	DefaultTickInterval = 10 * time.Minute

	// MinTickInterval guards against a busy loop from a misconfigured role.
	MinTickInterval = time.Second

	// DefaultHistoryWindow is how many recent history entries the synthesizer
	// includes in an autonomous payload.
	DefaultHistoryWindow = 5

	// DefaultPromptTruncate is the maximum length of a history entry's payload
	// as quoted in an autonomous payload.
	DefaultPromptTruncate = 200

	// DefaultRecentCommits is how many commits the repository section of an
	// autonomous prompt lists.
	DefaultRecentCommits = 5

	// DefaultEventBuffer is the per-subscriber buffer of the progress event bus.
	DefaultEventBuffer = 64
)

// Executor defaults.
const (
	// DefaultExecutorTimeout is the default maximum duration of a single executor call.
	DefaultExecutorTimeout = 30 * time.Minute

	// DefaultAgent is the executor used when none is configured.
	DefaultAgent = "claude"

	// DefaultExecutorAttempts is how many times a transient executor failure is tried.
	DefaultExecutorAttempts = 2

	// InitialBackoff is the initial backoff duration before the first retry.
	InitialBackoff = 1 * time.Second

	// BackoffMultiplier is the factor by which backoff increases after each retry.
	BackoffMultiplier = 2

	// ProcessWaitDelay bounds how long a canceled executor subprocess may keep
	// its output pipes open after being killed.
	ProcessWaitDelay = 5 * time.Second
)

// Log rotation settings for the CLI log file.
const (
	// LogMaxSizeMB is the size at which the log file is rotated.
	LogMaxSizeMB = 10

	// LogMaxBackups is the number of rotated files kept.
	LogMaxBackups = 5

	// LogMaxAgeDays is how long rotated files are kept.
	LogMaxAgeDays = 30

	// LogCompress enables gzip of rotated files.
	LogCompress = true
)
