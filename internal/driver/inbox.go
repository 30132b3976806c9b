package driver

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mrz1836/cadence/internal/constants"
	"github.com/mrz1836/cadence/internal/domain"
	"github.com/mrz1836/cadence/internal/errors"
	"github.com/mrz1836/cadence/internal/fsutil"
)

// SubmitFunc hands an instruction to the queue.
type SubmitFunc func(instruction string) (domain.Task, error)

// Inbox turns files dropped into a directory into user instructions.
//
// Accepted files are removed. Files refused because the queue is full are
// renamed with the rejected suffix. Empty files are left alone until they
// gain content.
type Inbox struct {
	dir    string
	logger zerolog.Logger
}

// InboxOption configures an Inbox.
type InboxOption func(*Inbox)

// WithInboxLogger sets the inbox logger.
func WithInboxLogger(logger zerolog.Logger) InboxOption {
	return func(in *Inbox) {
		in.logger = logger
	}
}

// NewInbox creates an inbox over dir.
func NewInbox(dir string, opts ...InboxOption) *Inbox {
	in := &Inbox{dir: dir, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(in)
	}
	in.logger = in.logger.With().Str("component", "inbox").Str("dir", dir).Logger()
	return in
}

// Dir returns the watched directory.
func (in *Inbox) Dir() string {
	return in.dir
}

// Run drains files already present, then watches for new ones until ctx is
// canceled.
func (in *Inbox) Run(ctx context.Context, submit SubmitFunc) error {
	if err := os.MkdirAll(in.dir, fsutil.DirPerm); err != nil {
		return fmt.Errorf("create inbox directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(in.dir); err != nil {
		return fmt.Errorf("watch inbox %s: %w", in.dir, err)
	}

	// Watch first, then drain, so nothing written in between is missed.
	in.Drain(submit)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				in.logger.Debug().Str("op", event.Op.String()).Str("file", event.Name).Msg("fsnotify event")
				in.process(event.Name, submit)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			in.logger.Warn().Err(err).Msg("fsnotify error")
		}
	}
}

// Drain processes every instruction file currently in the inbox, oldest name
// first, and returns how many were accepted.
func (in *Inbox) Drain(submit SubmitFunc) int {
	accepted := 0
	for _, name := range in.fileNames() {
		if in.process(filepath.Join(in.dir, name), submit) {
			accepted++
		}
	}
	return accepted
}

// Pending returns the instruction files waiting in the inbox, oldest first.
// Rejected and hidden files are not included.
func (in *Inbox) Pending() []string {
	var pending []string
	for _, name := range in.fileNames() {
		if isInstructionFile(name) {
			pending = append(pending, filepath.Join(in.dir, name))
		}
	}
	return pending
}

// fileNames lists the regular files in the inbox in name order.
func (in *Inbox) fileNames() []string {
	entries, err := os.ReadDir(in.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			in.logger.Warn().Err(err).Msg("inbox read failed")
		}
		return nil
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

// process submits one file and reports whether it was accepted.
func (in *Inbox) process(path string, submit SubmitFunc) bool {
	if !isInstructionFile(path) {
		return false
	}

	data, err := os.ReadFile(path) //#nosec G304 -- path is inside the inbox directory
	if err != nil {
		if !os.IsNotExist(err) {
			in.logger.Warn().Err(err).Str("file", path).Msg("inbox file unreadable")
		}
		return false
	}

	instruction := strings.TrimSpace(string(data))
	if instruction == "" {
		return false
	}

	task, err := submit(instruction)
	switch {
	case stderrors.Is(err, errors.ErrCapacityExceeded):
		rejected := path + constants.RejectedSuffix
		if renameErr := os.Rename(path, rejected); renameErr != nil {
			in.logger.Warn().Err(renameErr).Str("file", path).Msg("could not mark inbox file rejected")
		}
		in.logger.Warn().Err(err).Str("file", rejected).Msg("instruction rejected")
		return false
	case err != nil:
		in.logger.Warn().Err(err).Str("file", path).Msg("instruction not queued")
		return false
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		in.logger.Warn().Err(err).Str("file", path).Msg("accepted inbox file not removed")
	}
	in.logger.Info().Str("file", filepath.Base(path)).Str("task_id", task.ID).Msg("instruction accepted")
	return true
}

// isInstructionFile accepts visible files with an instruction extension.
func isInstructionFile(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return false
	}
	return slices.Contains(constants.InboxExtensions(), strings.ToLower(filepath.Ext(name)))
}

// Deliver writes instruction into dir as a new inbox file and returns its
// path. Names sort by creation time.
func Deliver(dir, instruction string, now time.Time) (string, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return "", fmt.Errorf("instruction: %w", errors.ErrEmptyValue)
	}
	name := fmt.Sprintf("%s-%s.md", now.UTC().Format("20060102T150405.000000000Z"), uuid.NewString()[:8])
	path := filepath.Join(dir, name)
	if err := fsutil.AtomicWrite(path, []byte(instruction+"\n")); err != nil {
		return "", errors.Wrap(err, "write inbox file")
	}
	return path, nil
}
