// Package events carries progress notifications from the execution loop to
// anyone watching it (the CLI, the driver's log stream).
//
// Delivery is best effort. Each subscriber owns a bounded buffer; when it is
// full the oldest buffered event is discarded so that Publish never blocks.
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/cadence/internal/constants"
	"github.com/mrz1836/cadence/internal/domain"
)

// Type identifies the kind of progress event.
type Type string

const (
	// TickStarted is published when a tick begins, before task selection.
	TickStarted Type = "tick_started"
	// TaskSelected is published once the tick has chosen its task.
	TaskSelected Type = "task_selected"
	// TaskFinished is published after the outcome has been recorded.
	TaskFinished Type = "task_finished"
)

// Event is a single progress notification.
type Event struct {
	Type       Type               `json:"type"`
	Timestamp  time.Time          `json:"timestamp"`
	Cycle      int                `json:"cycle"`
	QueueDepth int                `json:"queue_depth"`
	Task       *domain.Task       `json:"task,omitempty"`
	Result     *domain.TickResult `json:"result,omitempty"`
}

// Subscription is one consumer's view of the bus.
type Subscription struct {
	ch      chan Event
	dropped atomic.Uint64
	closed  bool
}

// C returns the channel events are delivered on. It is closed on
// Unsubscribe or when the bus closes.
func (s *Subscription) C() <-chan Event {
	return s.ch
}

// Dropped reports how many events were discarded because the buffer was full.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

// Bus fans events out to subscribers.
type Bus struct {
	mu         sync.Mutex
	subs       map[*Subscription]struct{}
	bufferSize int
	closed     bool
	logger     zerolog.Logger
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger used to report subscriber panics.
func WithLogger(logger zerolog.Logger) Option {
	return func(b *Bus) {
		b.logger = logger
	}
}

// NewBus creates a bus with the given per-subscriber buffer size. A
// non-positive size selects the default.
func NewBus(bufferSize int, opts ...Option) *Bus {
	if bufferSize <= 0 {
		bufferSize = constants.DefaultEventBuffer
	}
	b := &Bus{
		subs:       make(map[*Subscription]struct{}),
		bufferSize: bufferSize,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a new subscription. Subscribing to a closed bus
// returns a subscription whose channel is already closed.
func (b *Bus) Subscribe() *Subscription {
	sub := &Subscription{ch: make(chan Event, b.bufferSize)}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		sub.closed = true
		close(sub.ch)
		return sub
	}
	b.subs[sub] = struct{}{}
	return sub
}

// SubscribeFunc delivers events to fn on its own goroutine. A panic in fn is
// logged and does not stop delivery. The returned function unsubscribes.
func (b *Bus) SubscribeFunc(fn func(Event)) func() {
	sub := b.Subscribe()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for event := range sub.C() {
			b.deliver(fn, event)
		}
	}()

	return func() {
		b.Unsubscribe(sub)
		<-done
	}
}

func (b *Bus) deliver(fn func(Event), event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().
				Interface("panic", r).
				Str("event_type", string(event.Type)).
				Msg("event subscriber panicked")
		}
	}()
	fn(event)
}

// Unsubscribe removes sub and closes its channel. Safe to call more than once.
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if sub.closed {
		return
	}
	delete(b.subs, sub)
	sub.closed = true
	close(sub.ch)
}

// Publish stamps event (when Timestamp is zero) and offers it to every
// subscriber without blocking. Publishing on a closed bus is a no-op.
func (b *Bus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	for sub := range b.subs {
		offer(sub, event)
	}
}

// offer enqueues event, evicting the oldest buffered events until it fits.
// Callers hold b.mu, so only the consumer can race with the eviction.
func offer(sub *Subscription, event Event) {
	for {
		select {
		case sub.ch <- event:
			return
		default:
		}
		select {
		case <-sub.ch:
			sub.dropped.Add(1)
		default:
		}
	}
}

// Close closes every subscription. Further publishes are dropped.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for sub := range b.subs {
		sub.closed = true
		close(sub.ch)
		delete(b.subs, sub)
	}
}
