// Package queue implements the disk-persisted priority queue of pending tasks.
//
// Items are kept totally ordered by (priority class ascending, insertion order
// ascending). The ordering holds after every mutation and after every load,
// because the queue file may have been written by an older build or edited by
// hand.
//
// The queue is the only writer of its file. Write failures are logged and the
// in-memory list stays authoritative until the next successful flush; load
// failures start an empty queue. Neither is ever returned to callers.
package queue

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mrz1836/cadence/internal/clock"
	"github.com/mrz1836/cadence/internal/constants"
	"github.com/mrz1836/cadence/internal/domain"
	cadenceerrors "github.com/mrz1836/cadence/internal/errors"
	"github.com/mrz1836/cadence/internal/fsutil"
)

// Queue is a bounded, persisted priority queue. It is safe for concurrent use:
// the inbox goroutine may enqueue while a tick is dequeuing.
type Queue struct {
	mu      sync.Mutex
	path    string
	maxSize int
	items   []domain.Task
	clock   clock.Clock
	logger  zerolog.Logger
	writeFn func(path string, data []byte) error
}

// Option configures a Queue.
type Option func(*Queue)

// WithMaxSize overrides the capacity (default constants.DefaultMaxQueueSize).
func WithMaxSize(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.maxSize = n
		}
	}
}

// WithClock sets the clock used to stamp created tasks.
func WithClock(c clock.Clock) Option {
	return func(q *Queue) {
		q.clock = clock.OrReal(c)
	}
}

// WithLogger sets the logger for persistence warnings.
func WithLogger(logger zerolog.Logger) Option {
	return func(q *Queue) {
		q.logger = logger
	}
}

// Open loads the queue stored at path. A missing file yields an empty queue;
// a corrupt one yields an empty queue and a warning.
func Open(path string, opts ...Option) *Queue {
	q := &Queue{
		path:    path,
		maxSize: constants.DefaultMaxQueueSize,
		clock:   clock.RealClock{},
		logger:  zerolog.Nop(),
		writeFn: fsutil.AtomicWrite,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.items = q.load()
	return q
}

// EnqueueUser creates a user task for instruction, inserts it in sorted
// position, and persists the queue. It fails with ErrCapacityExceeded when
// the queue already holds the maximum number of items.
func (q *Queue) EnqueueUser(instruction string) (domain.Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) >= q.maxSize {
		return domain.Task{}, fmt.Errorf("%w: %d of %d slots used",
			cadenceerrors.ErrCapacityExceeded, len(q.items), q.maxSize)
	}

	task := domain.NewTask(constants.TaskKindUser, instruction, q.clock.Now())
	q.insert(task)
	q.flush()

	q.logger.Debug().
		Str("task_id", task.ID).
		Int("depth", len(q.items)).
		Msg("user task enqueued")

	return task, nil
}

// MakeAutonomous constructs an autonomous task without inserting it. Autonomous
// tasks are only created when the queue is empty and are consumed at once.
func (q *Queue) MakeAutonomous(payload string) domain.Task {
	return domain.NewTask(constants.TaskKindAutonomous, payload, q.clock.Now())
}

// Dequeue removes and returns the highest-priority task. The second return
// value is false when the queue is empty.
func (q *Queue) Dequeue() (domain.Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return domain.Task{}, false
	}

	task := q.items[0]
	q.items[0] = domain.Task{}
	q.items = q.items[1:]
	q.flush()

	return task, true
}

// Peek returns the task Dequeue would return next without removing it.
func (q *Queue) Peek() (domain.Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return domain.Task{}, false
	}
	return q.items[0], true
}

// Len returns the number of pending tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Cap returns the configured capacity.
func (q *Queue) Cap() int {
	return q.maxSize
}

// Snapshot returns a copy of the pending tasks in dequeue order.
func (q *Queue) Snapshot() []domain.Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]domain.Task, len(q.items))
	copy(out, q.items)
	return out
}

// insert places task at the rightmost position whose predecessors all have a
// priority class <= task's, keeping FIFO among equal classes.
func (q *Queue) insert(task domain.Task) {
	i := sort.Search(len(q.items), func(i int) bool {
		return q.items[i].PriorityClass > task.PriorityClass
	})
	q.items = append(q.items, domain.Task{})
	copy(q.items[i+1:], q.items[i:])
	q.items[i] = task
}

// flush persists the queue. Callers must hold q.mu.
func (q *Queue) flush() {
	data, err := json.MarshalIndent(q.items, "", "  ")
	if err == nil {
		err = q.writeFn(q.path, data)
	}
	if err != nil {
		q.logger.Warn().
			Err(fmt.Errorf("%w: %w", cadenceerrors.ErrPersistenceWrite, err)).
			Str("path", q.path).
			Int("depth", len(q.items)).
			Msg("failed to persist queue, keeping in-memory state")
	}
}
