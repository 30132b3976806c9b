// Package driver owns the timer that runs ticks and routes injected
// instructions into the queue.
//
// Exactly one tick runs at a time. A tick starts immediately on Run, then on
// every interval and whenever an instruction arrives. Wake-ups that arrive
// during a tick coalesce into a single follow-up tick.
package driver

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/cadence/internal/constants"
	"github.com/mrz1836/cadence/internal/domain"
)

// Runner is the execution loop as seen by the driver.
type Runner interface {
	RunTick(ctx context.Context) domain.TickResult
	EnqueueUser(instruction string) (domain.Task, error)
	QueueDepth() int
	Stats() domain.Stats
}

// Driver repeatedly invokes the runner.
type Driver struct {
	runner   Runner
	interval time.Duration
	wake     chan struct{}
	inbox    *Inbox
	onTick   func(domain.TickResult)
	logger   zerolog.Logger
}

// Option configures a Driver.
type Option func(*Driver)

// WithInbox watches inbox for instruction files while running.
func WithInbox(inbox *Inbox) Option {
	return func(d *Driver) {
		d.inbox = inbox
	}
}

// WithTickHook calls fn after every tick.
func WithTickHook(fn func(domain.TickResult)) Option {
	return func(d *Driver) {
		d.onTick = fn
	}
}

// WithLogger sets the driver's logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(d *Driver) {
		d.logger = logger
	}
}

// New creates a driver. A non-positive interval selects the default.
func New(runner Runner, interval time.Duration, opts ...Option) *Driver {
	if interval <= 0 {
		interval = constants.DefaultTickInterval
	}
	d := &Driver{
		runner:   runner,
		interval: interval,
		wake:     make(chan struct{}, 1),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With().Str("component", "driver").Logger()
	return d
}

// Submit enqueues instruction and wakes the driver. ErrCapacityExceeded is
// returned to the caller unchanged.
func (d *Driver) Submit(instruction string) (domain.Task, error) {
	task, err := d.runner.EnqueueUser(instruction)
	if err != nil {
		d.logger.Warn().Err(err).Msg("instruction refused")
		return domain.Task{}, err
	}
	d.logger.Info().
		Str("task_id", task.ID).
		Int("queue_depth", d.runner.QueueDepth()).
		Msg("instruction queued")
	d.Wake()
	return task, nil
}

// Wake requests a tick as soon as the current one (if any) finishes.
func (d *Driver) Wake() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Run ticks until ctx is canceled. An in-flight tick sees the cancellation
// and is recorded as interrupted before Run returns. Cancellation is a clean
// stop and returns nil.
func (d *Driver) Run(ctx context.Context) error {
	d.logger.Info().Dur("interval", d.interval).Msg("driver started")

	g, gctx := errgroup.WithContext(ctx)
	if d.inbox != nil {
		g.Go(func() error {
			d.runInbox(gctx)
			return nil
		})
	}
	g.Go(func() error {
		return d.tickLoop(gctx)
	})

	err := g.Wait()
	stats := d.runner.Stats()
	d.logger.Info().
		Int("total_cycles", stats.TotalCycles).
		Int("failed_tasks", stats.FailedTasks).
		Msg("driver stopped")

	if err != nil && !stderrors.Is(err, context.Canceled) {
		return fmt.Errorf("driver: %w", err)
	}
	return nil
}

// runInbox watches the inbox until ctx ends. A watcher failure is logged and
// the driver keeps ticking without it.
func (d *Driver) runInbox(ctx context.Context) {
	err := d.inbox.Run(ctx, d.Submit)
	if err == nil || ctx.Err() != nil {
		return
	}
	d.logger.Error().
		Err(err).
		Str("dir", d.inbox.Dir()).
		Msg("inbox unavailable, continuing without it")
}

func (d *Driver) tickLoop(ctx context.Context) error {
	d.tick(ctx)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-d.wake:
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		d.tick(ctx)
	}
}

func (d *Driver) tick(ctx context.Context) {
	result := d.runner.RunTick(ctx)

	event := d.logger.Info()
	if !result.Success {
		event = d.logger.Warn()
	}
	event.
		Str("task_id", result.Task.ID).
		Str("kind", result.Task.Kind.String()).
		Str("status", result.Status.String()).
		Dur("duration", result.Duration()).
		Int("queue_depth", d.runner.QueueDepth()).
		Msg("tick finished")

	if d.onTick != nil {
		d.onTick(result)
	}
}
