// Package flock provides cross-platform file locking utilities.
//
// Exclusive and Unlock wrap the platform's non-blocking advisory lock calls.
// Acquire builds a process-level lock on top of them: the driver holds one for
// the lifetime of a run so that it is the only writer of the state directory.
//
// Usage:
//
//	lock, err := flock.Acquire(filepath.Join(stateDir, "cadence.lock"))
//	if errors.Is(err, errors.ErrLockHeld) {
//	    // another process owns the directory
//	}
//	defer lock.Release()
package flock
