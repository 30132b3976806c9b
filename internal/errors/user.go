package errors

import "errors"

// ErrorInfo holds user-facing message and suggested action for an error.
type ErrorInfo struct {
	// Message is the user-friendly error description.
	Message string
	// Action is a suggested action to resolve the issue (empty if none).
	Action string
}

// errorEntry pairs a sentinel error with its user-facing info.
type errorEntry struct {
	err  error
	info ErrorInfo
}

// errorInfoEntries maps sentinel errors to their user-facing messages.
// A slice (not a map) because errors.Is() needs chain traversal for wrapped errors.
//
//nolint:gochecknoglobals // Pre-built mapping
var errorInfoEntries = []errorEntry{
	{
		err: ErrCapacityExceeded,
		info: ErrorInfo{
			Message: "The task queue is full.",
			Action:  "Wait for queued instructions to drain, or raise queue.max_size.",
		},
	},
	{
		err: ErrLockHeld,
		info: ErrorInfo{
			Message: "Another cadence process is already running for this repository.",
			Action:  "Stop the other process, or use 'cadence enqueue' to hand it work.",
		},
	},
	{
		err: ErrConfigInvalid,
		info: ErrorInfo{
			Message: "The configuration is invalid.",
			Action:  "Fix the fields listed above in .cadence/config.yaml.",
		},
	},
	{
		err: ErrNoRole,
		info: ErrorInfo{
			Message: "No role is configured.",
			Action:  "Set role.name in .cadence/config.yaml or pass --role.",
		},
	},
	{
		err: ErrClaudeInvocation,
		info: ErrorInfo{
			Message: "The Claude Code CLI could not be run.",
			Action:  "Install claude and make sure ANTHROPIC_API_KEY is set.",
		},
	},
	{
		err: ErrUnknownAgent,
		info: ErrorInfo{
			Message: "The configured executor agent is not supported.",
			Action:  "Set executor.agent to 'claude' or 'stub'.",
		},
	},
	{
		err: ErrJournalDisabled,
		info: ErrorInfo{
			Message: "The tick journal is disabled.",
			Action:  "Set journal.enabled: true in .cadence/config.yaml.",
		},
	},
	{
		err: ErrInvalidOutputFormat,
		info: ErrorInfo{
			Message: "Invalid output format.",
			Action:  "Use --output text, json or yaml.",
		},
	},
}

// getErrorInfo looks up the ErrorInfo for a given error, falling back to the
// error's own message.
func getErrorInfo(err error) ErrorInfo {
	for _, entry := range errorInfoEntries {
		if errors.Is(err, entry.err) {
			return entry.info
		}
	}
	return ErrorInfo{Message: err.Error()}
}

// UserMessage returns a user-friendly message for common errors.
// For unrecognized errors, it returns the error's original message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return getErrorInfo(err).Message
}

// Actionable returns a user-friendly error message along with a suggested
// action. The action is empty when there is no clear remedy.
func Actionable(err error) (message, action string) {
	if err == nil {
		return "", ""
	}
	info := getErrorInfo(err)
	return info.Message, info.Action
}
