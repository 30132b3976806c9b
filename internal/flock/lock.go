package flock

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	cadenceerrors "github.com/mrz1836/cadence/internal/errors"
)

const lockFilePerm = 0o600

// Lock is a held process lock. The owning PID is written into the file for
// diagnostics only; the kernel lock is what excludes other processes.
type Lock struct {
	file *os.File
	path string
}

// Acquire takes an exclusive non-blocking lock on path, creating the file if
// needed. It returns ErrLockHeld when another process holds the lock.
func Acquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, lockFilePerm) //#nosec G304 -- path is constructed internally
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	if err := Exclusive(f); err != nil {
		holder := readHolder(f)
		_ = f.Close()
		if holder != "" {
			return nil, fmt.Errorf("%w (pid %s)", cadenceerrors.ErrLockHeld, holder)
		}
		return nil, cadenceerrors.ErrLockHeld
	}

	if err := f.Truncate(0); err == nil {
		_, _ = f.WriteAt([]byte(strconv.Itoa(os.Getpid())), 0)
	}

	return &Lock{file: f, path: path}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Release unlocks and closes the lock file. It is safe to call on nil.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	unlockErr := Unlock(l.file)
	closeErr := l.file.Close()
	l.file = nil
	if unlockErr != nil {
		return fmt.Errorf("failed to release lock: %w", unlockErr)
	}
	return closeErr
}

func readHolder(f *os.File) string {
	buf := make([]byte, 32)
	n, _ := f.ReadAt(buf, 0)
	return strings.TrimSpace(string(buf[:n]))
}
