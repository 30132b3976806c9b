package ai

import (
	"context"
	"errors"
	"strings"
	"time"
)

// timeSleep returns a channel that fires after d. Tests replace it to skip backoff.
//
//nolint:gochecknoglobals // Required for test mocking
var timeSleep = time.After

// nonRetryableMarkers are lowercase fragments of errors that another attempt
// cannot fix: missing credentials, a missing binary, or unparseable output.
//
//nolint:gochecknoglobals // Constant-like table
var nonRetryableMarkers = []string{
	"authentication",
	"api key",
	"anthropic_api_key",
	"invalid json",
	"failed to parse json",
	"not found",
	"working directory missing",
}

// isRetryable reports whether a failed invocation may succeed on retry.
// Context errors and the markers above are final; everything else (network
// resets, rate limits, crashed CLI) is treated as transient.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return !containsAny(strings.ToLower(err.Error()), nonRetryableMarkers...)
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
