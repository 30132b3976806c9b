// Package testutil provides testing utilities for cadence.
//
// This package contains mock errors, a manual clock, and executor stubs used
// across test files. It should only be imported by test files (*_test.go).
package testutil

import "errors"

// Mock errors for testing purposes.
var (
	// ErrMockExecutor simulates an executor transport failure.
	ErrMockExecutor = errors.New("executor transport failed")

	// ErrMockDiskFull simulates a failed durable write.
	ErrMockDiskFull = errors.New("no space left on device")

	// ErrMockNotFound indicates a mock resource was not found.
	ErrMockNotFound = errors.New("not found")
)
