// Package errors provides centralized error handling for cadence.
//
// This package defines sentinel errors used for programmatic error categorization
// throughout the application. All error types can be checked using errors.Is().
//
// IMPORTANT: This package MUST NOT import any other internal packages.
// Only standard library imports are allowed.
package errors

import "errors"

// Sentinel errors for the scheduling core.
var (
	// ErrCapacityExceeded indicates the priority queue already holds the configured
	// maximum number of items. It is the only error surfaced to the originator of
	// an instruction.
	ErrCapacityExceeded = errors.New("queue capacity exceeded")

	// ErrPersistenceWrite indicates a durable write failed. The in-memory state stays
	// authoritative; callers log this and proceed.
	ErrPersistenceWrite = errors.New("persistence write failed")

	// ErrPersistenceLoad indicates on-disk state was corrupt or unreadable and was
	// replaced with defaults.
	ErrPersistenceLoad = errors.New("persistence load failed")

	// ErrSchemaMismatch indicates on-disk state carried an unexpected version tag
	// and was replaced with defaults.
	ErrSchemaMismatch = errors.New("state schema mismatch")

	// ErrExecutionFailed indicates the executor raised or reported a failure.
	ErrExecutionFailed = errors.New("task execution failed")

	// ErrInterrupted indicates an in-flight task was canceled externally.
	ErrInterrupted = errors.New("task interrupted")

	// ErrExecutorPanic indicates the executor panicked. The loop recovers it and
	// records a failure.
	ErrExecutorPanic = errors.New("executor panicked")
)

// Sentinel errors for collaborators and plumbing.
var (
	// ErrClaudeInvocation indicates that the Claude Code CLI failed to execute
	// or returned a non-zero exit code.
	ErrClaudeInvocation = errors.New("claude invocation failed")

	// ErrUnknownAgent indicates the configured executor agent is not supported.
	ErrUnknownAgent = errors.New("unknown executor agent")

	// ErrConfigNil indicates that a nil config was passed to validation.
	ErrConfigNil = errors.New("config is nil")

	// ErrConfigInvalid indicates one or more configuration values failed validation.
	ErrConfigInvalid = errors.New("invalid configuration")

	// ErrNoRole indicates no role name is configured.
	ErrNoRole = errors.New("no role configured")

	// ErrEmptyValue indicates that a required value was empty.
	ErrEmptyValue = errors.New("value cannot be empty")

	// ErrLockHeld indicates another process already owns the state directory.
	ErrLockHeld = errors.New("state directory locked by another process")

	// ErrInvalidOutputFormat indicates an invalid output format was specified.
	ErrInvalidOutputFormat = errors.New("invalid output format")

	// ErrJournalClosed indicates a write to a journal that was already closed.
	ErrJournalClosed = errors.New("journal closed")

	// ErrGitOperation indicates a git command failed.
	ErrGitOperation = errors.New("git operation failed")

	// ErrNotGitRepo indicates a directory is not inside a git work tree.
	ErrNotGitRepo = errors.New("not a git repository")

	// ErrJournalDisabled indicates the journal was requested but journal.enabled is false.
	ErrJournalDisabled = errors.New("journal disabled")

	// ErrInvalidArgument indicates a command-line argument was out of range.
	ErrInvalidArgument = errors.New("invalid argument")
)

// ExitCode2Error wraps an error to indicate exit code 2 should be used.
type ExitCode2Error struct {
	Err error
}

// NewExitCode2Error wraps an error to indicate exit code 2.
func NewExitCode2Error(err error) *ExitCode2Error {
	return &ExitCode2Error{Err: err}
}

// Error implements the error interface.
func (e *ExitCode2Error) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ExitCode2Error) Unwrap() error {
	return e.Err
}

// IsExitCode2Error checks if an error should result in exit code 2.
func IsExitCode2Error(err error) bool {
	var e *ExitCode2Error
	return errors.As(err, &e)
}
