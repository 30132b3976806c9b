// Package loop implements the execution loop: one tick selects a task,
// marks it running, hands it to the executor, and records the outcome.
//
// RunTick never fails. Executor errors, reported failures, panics and
// cancellation all end in a recorded history entry and a TickResult with
// Success=false. The lifecycle store never keeps a current task past the end
// of a tick.
//
// IMPORTANT: This package may import internal/queue, internal/lifecycle,
// internal/prompts, internal/ai, internal/events and the leaf packages. It
// MUST NOT import internal/driver or internal/cli.
package loop

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mrz1836/cadence/internal/ai"
	"github.com/mrz1836/cadence/internal/clock"
	"github.com/mrz1836/cadence/internal/constants"
	"github.com/mrz1836/cadence/internal/ctxutil"
	"github.com/mrz1836/cadence/internal/domain"
	"github.com/mrz1836/cadence/internal/errors"
	"github.com/mrz1836/cadence/internal/events"
	"github.com/mrz1836/cadence/internal/lifecycle"
	"github.com/mrz1836/cadence/internal/queue"
)

// PayloadBuilder produces the text handed to the executor.
type PayloadBuilder interface {
	UserPayload(instruction string, role domain.RoleContext) string
	AutonomousPayload(role domain.RoleContext) string
}

// TickRecorder receives every finished tick. The SQLite journal implements it.
type TickRecorder interface {
	Record(ctx context.Context, result domain.TickResult) error
}

// Role identifies who the loop works as and where.
type Role struct {
	Name           string
	RepositoryPath string
}

// Loop runs ticks. Ticks are serialized: a second RunTick waits for the first.
type Loop struct {
	tickMu   sync.Mutex
	queue    *queue.Queue
	store    *lifecycle.Store
	payloads PayloadBuilder
	executor ai.Executor
	role     Role
	bus      *events.Bus
	journal  TickRecorder
	clock    clock.Clock
	logger   zerolog.Logger
}

// Option configures a Loop.
type Option func(*Loop)

// WithBus publishes progress events to bus.
func WithBus(bus *events.Bus) Option {
	return func(l *Loop) {
		l.bus = bus
	}
}

// WithJournal records every tick result to r.
func WithJournal(r TickRecorder) Option {
	return func(l *Loop) {
		l.journal = r
	}
}

// WithClock sets the clock used for tick timestamps.
func WithClock(c clock.Clock) Option {
	return func(l *Loop) {
		l.clock = c
	}
}

// WithLogger sets the loop's logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

// New wires a loop and records role as the store's current role.
func New(q *queue.Queue, store *lifecycle.Store, payloads PayloadBuilder, executor ai.Executor, role Role, opts ...Option) *Loop {
	l := &Loop{
		queue:    q,
		store:    store,
		payloads: payloads,
		executor: executor,
		role:     role,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.clock = clock.OrReal(l.clock)
	l.logger = l.logger.With().Str("component", "loop").Logger()
	store.SetRole(role.Name)
	return l
}

// EnqueueUser adds an instruction to the queue. ErrCapacityExceeded is the
// only error it returns.
func (l *Loop) EnqueueUser(instruction string) (domain.Task, error) {
	return l.queue.EnqueueUser(instruction)
}

// QueueDepth returns the number of pending user tasks.
func (l *Loop) QueueDepth() int {
	return l.queue.Len()
}

// Stats returns a copy of the aggregate statistics.
func (l *Loop) Stats() domain.Stats {
	return l.store.Stats()
}

// RunTick performs one select, execute, record cycle.
func (l *Loop) RunTick(ctx context.Context) domain.TickResult {
	l.tickMu.Lock()
	defer l.tickMu.Unlock()

	roleCtx := domain.RoleContext{
		Name:           l.role.Name,
		RepositoryPath: l.role.RepositoryPath,
		CycleNumber:    l.store.CycleNumber(),
	}
	l.publish(events.Event{Type: events.TickStarted, Cycle: roleCtx.CycleNumber, QueueDepth: l.queue.Len()})

	task, payload := l.selectTask(roleCtx)
	l.publish(events.Event{Type: events.TaskSelected, Cycle: roleCtx.CycleNumber, QueueDepth: l.queue.Len(), Task: &task})

	log := l.logger.With().
		Str("task_id", task.ID).
		Str("kind", task.Kind.String()).
		Int("cycle", roleCtx.CycleNumber).
		Logger()
	log.Info().Msg("task started")

	l.store.SetCurrentTask(task)
	outcome, err := l.execute(ctx, payload, roleCtx)
	entry := l.resolve(ctx, task, outcome, err, log)

	result := domain.TickResult{
		Task:       task,
		Success:    entry.Status == constants.TaskStatusCompleted,
		Status:     entry.Status,
		StartedAt:  entry.StartedAt,
		FinishedAt: entry.CompletedAt,
		CostUSD:    entry.CostUSD,
	}
	if !result.Success {
		result.Error = entry.ResultText
	}

	l.record(ctx, result, log)
	l.publish(events.Event{Type: events.TaskFinished, Cycle: roleCtx.CycleNumber, QueueDepth: l.queue.Len(), Task: &task, Result: &result})
	return result
}

// selectTask dequeues the next user task or synthesizes an autonomous one.
// It returns the task and the payload to hand to the executor.
func (l *Loop) selectTask(roleCtx domain.RoleContext) (domain.Task, string) {
	if task, ok := l.queue.Dequeue(); ok {
		return task, l.payloads.UserPayload(task.Payload, roleCtx)
	}
	payload := l.payloads.AutonomousPayload(roleCtx)
	return l.queue.MakeAutonomous(payload), payload
}

// execute calls the executor, converting a panic into ErrExecutorPanic.
func (l *Loop) execute(ctx context.Context, payload string, roleCtx domain.RoleContext) (outcome *domain.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome = nil
			err = fmt.Errorf("%w: %v", errors.ErrExecutorPanic, r)
		}
	}()
	return l.executor.Execute(ctx, payload, roleCtx)
}

// resolve records the outcome of a task. Cancellation of ctx wins over any
// executor error so that deliberate stops are kept apart from genuine faults.
func (l *Loop) resolve(ctx context.Context, task domain.Task, outcome *domain.Outcome, err error, log zerolog.Logger) domain.HistoryEntry {
	switch {
	case err != nil && ctxutil.Interrupted(ctx):
		reason := fmt.Errorf("%w: %w", errors.ErrInterrupted, context.Cause(ctx))
		log.Warn().Err(reason).Msg("task interrupted")
		return l.store.RecordInterrupted(task, reason.Error())

	case err != nil:
		log.Error().Err(fmt.Errorf("%w: %w", errors.ErrExecutionFailed, err)).Msg("executor raised")
		return l.store.RecordFailure(task, err)
	}

	entry := l.store.RecordCompletion(task, outcome)
	if entry.Status == constants.TaskStatusCompleted {
		log.Info().
			Float64("cost_usd", entry.CostUSD).
			Int("turns", entry.TurnCount).
			Int64("duration_ms", entry.DurationMs).
			Msg("task completed")
	} else {
		log.Error().
			Err(fmt.Errorf("%w: %s", errors.ErrExecutionFailed, entry.ResultText)).
			Msg("executor reported failure")
	}
	return entry
}

// record appends result to the journal. The write outlives ctx so that an
// interrupted tick is still journaled.
func (l *Loop) record(ctx context.Context, result domain.TickResult, log zerolog.Logger) {
	if l.journal == nil {
		return
	}
	if err := l.journal.Record(context.WithoutCancel(ctx), result); err != nil {
		log.Warn().Err(err).Msg("journal write failed")
	}
}

func (l *Loop) publish(event events.Event) {
	if l.bus == nil {
		return
	}
	event.Timestamp = l.clock.Now().UTC()
	l.bus.Publish(event)
}
