package queue

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mrz1836/cadence/internal/constants"
	"github.com/mrz1836/cadence/internal/domain"
	cadenceerrors "github.com/mrz1836/cadence/internal/errors"
	"github.com/mrz1836/cadence/internal/fsutil"
)

// load reads and normalizes the persisted queue.
func (q *Queue) load() []domain.Task {
	data, err := fsutil.ReadIfExists(q.path)
	if err != nil {
		q.warnLoad(err)
		return nil
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}

	var items []domain.Task
	if err := json.Unmarshal(data, &items); err != nil {
		q.warnLoad(err)
		return nil
	}

	return q.normalize(items)
}

// normalize drops entries with an unknown kind, re-derives each priority class
// from the kind, fills missing identifiers, and stable-sorts by class so file
// order is the FIFO tie-break.
func (q *Queue) normalize(items []domain.Task) []domain.Task {
	kept := items[:0]
	for _, t := range items {
		switch t.Kind {
		case constants.TaskKindUser, constants.TaskKindAutonomous:
		default:
			q.logger.Warn().
				Str("task_id", t.ID).
				Str("kind", string(t.Kind)).
				Msg("dropping queued task with unknown kind")
			continue
		}
		t.PriorityClass = t.Kind.Priority()
		if t.ID == "" {
			t.ID = domain.NewTaskID()
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = q.clock.Now().UTC()
		}
		kept = append(kept, t)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].PriorityClass < kept[j].PriorityClass
	})

	if len(kept) > q.maxSize {
		q.logger.Warn().
			Int("depth", len(kept)).
			Int("max_size", q.maxSize).
			Msg("loaded queue exceeds capacity, new instructions will be refused until it drains")
	}
	return kept
}

func (q *Queue) warnLoad(err error) {
	q.logger.Warn().
		Err(fmt.Errorf("%w: %w", cadenceerrors.ErrPersistenceLoad, err)).
		Str("path", q.path).
		Msg("queue file unreadable, starting empty")
}
