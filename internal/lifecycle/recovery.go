package lifecycle

import (
	"github.com/mrz1836/cadence/internal/constants"
	"github.com/mrz1836/cadence/internal/domain"
)

// RecoverStale handles a current task left running by a process that died.
// Under StalePolicyInterrupt the record is converted into an interrupted
// history entry; under StalePolicyIgnore it is left in place. The recorded
// entry is returned with ok=true when a conversion happened.
func (s *Store) RecoverStale(policy string) (domain.HistoryEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ct := s.state.CurrentTask
	if ct == nil || ct.Status != constants.TaskStatusRunning {
		return domain.HistoryEntry{}, false
	}

	if policy == StalePolicyIgnore {
		s.logger.Warn().
			Str("task_id", ct.ID).
			Time("started_at", ct.StartedAt).
			Msg("stale running task left in place")
		return domain.HistoryEntry{}, false
	}

	task := domain.Task{
		ID:            ct.ID,
		Kind:          ct.Kind,
		Payload:       ct.Payload,
		CreatedAt:     ct.StartedAt,
		PriorityClass: ct.Kind.Priority(),
	}
	entry := s.entryFor(task, constants.TaskStatusInterrupted, StaleInterruptedText)
	s.appendLocked(entry)

	s.logger.Info().
		Str("task_id", entry.ID).
		Time("started_at", entry.StartedAt).
		Msg("stale running task recorded as interrupted")

	return entry, true
}
