//go:build windows

package flock

import (
	"os"

	"golang.org/x/sys/windows"
)

// A one-byte range at offset zero stands in for the whole file.
const (
	reserved  = 0
	rangeLow  = 1
	rangeHigh = 0
	lockFlags = windows.LOCKFILE_EXCLUSIVE_LOCK | windows.LOCKFILE_FAIL_IMMEDIATELY
)

// Exclusive places a non-blocking exclusive LockFileEx lock on f.
func Exclusive(f *os.File) error {
	return windows.LockFileEx(windows.Handle(f.Fd()), lockFlags, reserved, rangeLow, rangeHigh, new(windows.Overlapped))
}

// Unlock releases the range locked by Exclusive.
func Unlock(f *os.File) error {
	return windows.UnlockFileEx(windows.Handle(f.Fd()), reserved, rangeLow, rangeHigh, new(windows.Overlapped))
}
