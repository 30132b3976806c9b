//go:build unix

package flock

import (
	"os"
	"syscall"
)

// Exclusive places a non-blocking exclusive flock on f. It fails at once
// when another open file description holds the lock.
func Exclusive(f *os.File) error {
	return syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
}

// Unlock drops the flock held on f.
func Unlock(f *os.File) error {
	return syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
}
