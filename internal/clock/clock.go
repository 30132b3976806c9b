// Package clock provides an abstraction for time operations to improve testability.
// Components that stamp tasks and history entries take a Clock instead of
// calling time.Now() directly.
package clock

import "time"

// Clock is an interface for time operations.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the actual system time.
type RealClock struct{}

// Now returns the current time from the system clock.
func (RealClock) Now() time.Time {
	return time.Now()
}

// OrReal returns c, or RealClock when c is nil.
func OrReal(c Clock) Clock {
	if c == nil {
		return RealClock{}
	}
	return c
}

// Ensure RealClock implements Clock.
var _ Clock = RealClock{}
