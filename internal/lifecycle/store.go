package lifecycle

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mrz1836/cadence/internal/clock"
	"github.com/mrz1836/cadence/internal/constants"
	"github.com/mrz1836/cadence/internal/domain"
	cadenceerrors "github.com/mrz1836/cadence/internal/errors"
	"github.com/mrz1836/cadence/internal/fsutil"
)

// StaleInterruptedText is the result text recorded for a task that was still
// marked running when the store was reopened.
const StaleInterruptedText = "interrupted: process exited before completion"

// Recovery policies for a stale running task found at startup.
const (
	StalePolicyInterrupt = "interrupt"
	StalePolicyIgnore    = "ignore"
)

// Store owns the lifecycle state. All methods are safe for concurrent use and
// every observable mutation is flushed synchronously before returning.
type Store struct {
	mu      sync.Mutex
	path    string
	state   *State
	clock   clock.Clock
	logger  zerolog.Logger
	writeFn func(path string, data []byte) error
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for timestamps.
func WithClock(c clock.Clock) Option {
	return func(s *Store) {
		s.clock = clock.OrReal(c)
	}
}

// WithLogger sets the logger for persistence warnings.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Open loads the state stored at path, falling back to a fresh state when the
// file is missing, unreadable, or carries a different schema version.
func Open(path string, opts ...Option) *Store {
	s := &Store{
		path:    path,
		clock:   clock.RealClock{},
		logger:  zerolog.Nop(),
		writeFn: fsutil.AtomicWrite,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state = s.load()
	return s
}

func (s *Store) load() *State {
	data, err := fsutil.ReadIfExists(s.path)
	if err != nil {
		s.warnFallback(cadenceerrors.ErrPersistenceLoad, err)
		return newState(s.clock.Now())
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return newState(s.clock.Now())
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		s.warnFallback(cadenceerrors.ErrPersistenceLoad, err)
		return newState(s.clock.Now())
	}

	if st.Version != constants.StateSchemaVersion {
		s.warnFallback(cadenceerrors.ErrSchemaMismatch,
			fmt.Errorf("found %q, want %q", st.Version, constants.StateSchemaVersion))
		return newState(s.clock.Now())
	}

	if st.TaskHistory == nil {
		st.TaskHistory = []domain.HistoryEntry{}
	}
	if st.SessionID == "" {
		st.SessionID = newState(s.clock.Now()).SessionID
	}
	return &st
}

func (s *Store) warnFallback(kind, err error) {
	s.logger.Warn().
		Err(fmt.Errorf("%w: %w", kind, err)).
		Str("path", s.path).
		Msg("lifecycle state discarded, starting fresh session")
}

// SetCurrentTask records task as running with startedAt = now.
func (s *Store) SetCurrentTask(task domain.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.CurrentTask = &domain.CurrentTaskRecord{
		ID:        task.ID,
		Kind:      task.Kind,
		Payload:   task.Payload,
		StartedAt: s.clock.Now().UTC(),
		Status:    constants.TaskStatusRunning,
	}
	s.flush()
}

// RecordCompletion records the executor's outcome. An outcome that reports
// failure (or is nil) is recorded exactly as RecordFailure would record it;
// the returned entry's Status tells the caller which path was taken.
func (s *Store) RecordCompletion(task domain.Task, outcome *domain.Outcome) domain.HistoryEntry {
	if outcome == nil || !outcome.Success {
		return s.recordFailed(task, FailureText(outcome))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.entryFor(task, constants.TaskStatusCompleted, outcome.Result())
	entry.CostUSD = outcome.CostUSD
	entry.TurnCount = outcome.TurnCount
	entry.DurationMs = outcome.DurationMs
	s.appendLocked(entry)
	return entry
}

// RecordFailure records a failed task with err's message as the result text.
// Cost, duration and turn count are zero.
func (s *Store) RecordFailure(task domain.Task, err error) domain.HistoryEntry {
	return s.recordFailed(task, errorText(err))
}

func (s *Store) recordFailed(task domain.Task, text string) domain.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.entryFor(task, constants.TaskStatusFailed, text)
	s.appendLocked(entry)
	return entry
}

// RecordInterrupted records a task that was canceled externally. It is counted
// like a failure but kept distinct in history.
func (s *Store) RecordInterrupted(task domain.Task, reason string) domain.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.entryFor(task, constants.TaskStatusInterrupted, reason)
	s.appendLocked(entry)
	return entry
}

// entryFor builds a history entry for task. Callers must hold s.mu.
func (s *Store) entryFor(task domain.Task, status constants.TaskStatus, text string) domain.HistoryEntry {
	now := s.clock.Now().UTC()
	startedAt := now
	if ct := s.state.CurrentTask; ct != nil && ct.ID == task.ID {
		startedAt = ct.StartedAt
	}
	return domain.HistoryEntry{
		ID:          task.ID,
		Kind:        task.Kind,
		Payload:     task.Payload,
		ResultText:  text,
		Status:      status,
		StartedAt:   startedAt,
		CompletedAt: now,
	}
}

// appendLocked appends entry, clears the current task, updates stats, and
// persists. Callers must hold s.mu.
func (s *Store) appendLocked(entry domain.HistoryEntry) {
	s.state.TaskHistory = append(s.state.TaskHistory, entry)
	s.state.CurrentTask = nil
	applyStats(&s.state.Stats, entry)
	s.flush()
}

// RecentHistory returns the last n entries, oldest first. It returns every
// entry when fewer than n exist and none when n <= 0.
func (s *Store) RecentHistory(n int) []domain.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n <= 0 {
		return []domain.HistoryEntry{}
	}
	h := s.state.TaskHistory
	if n > len(h) {
		n = len(h)
	}
	out := make([]domain.HistoryEntry, n)
	copy(out, h[len(h)-n:])
	return out
}

// Stats returns a copy of the running statistics.
func (s *Store) Stats() domain.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Stats
}

// CurrentTask returns a copy of the running task record, or nil.
func (s *Store) CurrentTask() *domain.CurrentTaskRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.CurrentTask == nil {
		return nil
	}
	ct := *s.state.CurrentTask
	return &ct
}

// SetRole records the active role name.
func (s *Store) SetRole(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.CurrentRole == name {
		return
	}
	s.state.CurrentRole = name
	s.flush()
}

// CycleNumber is the 1-based number of the next cycle.
func (s *Store) CycleNumber() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Stats.TotalCycles + 1
}

// Snapshot returns a deep copy of the full state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// flush persists the state. Callers must hold s.mu.
func (s *Store) flush() {
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err == nil {
		err = s.writeFn(s.path, data)
	}
	if err != nil {
		s.logger.Warn().
			Err(fmt.Errorf("%w: %w", cadenceerrors.ErrPersistenceWrite, err)).
			Str("path", s.path).
			Msg("failed to persist lifecycle state, keeping in-memory state")
	}
}

// FailureText picks the message recorded for a reported failure: the joined
// error list, else the result text, else a generic message.
func FailureText(outcome *domain.Outcome) string {
	if outcome != nil {
		if len(outcome.Errors) > 0 {
			return strings.Join(outcome.Errors, "; ")
		}
		if r := outcome.Result(); r != "" {
			return r
		}
	}
	return "task failed"
}

func errorText(err error) string {
	if err == nil {
		return "task failed"
	}
	return err.Error()
}
