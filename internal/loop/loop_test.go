package loop

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/cadence/internal/constants"
	"github.com/mrz1836/cadence/internal/domain"
	cadenceerrors "github.com/mrz1836/cadence/internal/errors"
	"github.com/mrz1836/cadence/internal/events"
	"github.com/mrz1836/cadence/internal/lifecycle"
	"github.com/mrz1836/cadence/internal/prompts"
	"github.com/mrz1836/cadence/internal/queue"
	"github.com/mrz1836/cadence/internal/testutil"
)

var errJournalDown = errors.New("journal down")

type fixture struct {
	loop      *Loop
	queue     *queue.Queue
	store     *lifecycle.Store
	exec      *testutil.RecordingExecutor
	clock     *testutil.ManualClock
	queuePath string
	statePath string
}

func newFixture(t *testing.T, fn testutil.ExecutorFunc, opts ...Option) *fixture {
	t.Helper()

	dir := t.TempDir()
	clk := testutil.NewManualClock(time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC))
	f := &fixture{
		clock:     clk,
		exec:      &testutil.RecordingExecutor{Fn: fn},
		queuePath: filepath.Join(dir, constants.QueueFileName),
		statePath: filepath.Join(dir, constants.StateFileName),
	}
	f.queue = queue.Open(f.queuePath, queue.WithClock(clk))
	f.store = lifecycle.Open(f.statePath, lifecycle.WithClock(clk))
	synth := prompts.NewSynthesizer(f.store, nil, prompts.SynthesizerConfig{HistoryWindow: 5}, prompts.WithClock(clk))

	opts = append([]Option{WithClock(clk)}, opts...)
	f.loop = New(f.queue, f.store, synth, f.exec, Role{Name: "maintainer", RepositoryPath: dir}, opts...)
	return f
}

func failing(err error) testutil.ExecutorFunc {
	return func(context.Context, string, domain.RoleContext) (*domain.Outcome, error) {
		return nil, err
	}
}

func returning(outcome *domain.Outcome) testutil.ExecutorFunc {
	return func(context.Context, string, domain.RoleContext) (*domain.Outcome, error) {
		return outcome, nil
	}
}

type recorderFunc func(ctx context.Context, r domain.TickResult) error

func (f recorderFunc) Record(ctx context.Context, r domain.TickResult) error { return f(ctx, r) }

func TestRunTick_ExecutorErrorIsAbsorbed(t *testing.T) {
	t.Parallel()

	f := newFixture(t, failing(testutil.ErrMockExecutor))

	var result domain.TickResult
	require.NotPanics(t, func() { result = f.loop.RunTick(context.Background()) })

	assert.False(t, result.Success)
	assert.Equal(t, constants.TaskStatusFailed, result.Status)
	assert.Equal(t, testutil.ErrMockExecutor.Error(), result.Error)
	assert.Nil(t, f.store.CurrentTask())

	history := f.store.RecentHistory(10)
	require.Len(t, history, 1)
	assert.Equal(t, constants.TaskStatusFailed, history[0].Status)
	assert.Equal(t, testutil.ErrMockExecutor.Error(), history[0].ResultText)
	assert.Equal(t, 1, f.store.Stats().FailedTasks)
}

func TestRunTick_CompletionRoundTrip(t *testing.T) {
	t.Parallel()

	f := newFixture(t, returning(testutil.SuccessOutcome("done", 0.1, 2, 500)))
	task, err := f.loop.EnqueueUser("add a changelog entry")
	require.NoError(t, err)

	result := f.loop.RunTick(context.Background())

	assert.True(t, result.Success)
	assert.Equal(t, task.ID, result.Task.ID)
	assert.Equal(t, constants.TaskKindUser, result.Task.Kind)
	assert.Empty(t, result.Error)
	assert.InDelta(t, 0.1, result.CostUSD, 1e-9)

	history := f.store.RecentHistory(1)
	require.Len(t, history, 1)
	entry := history[0]
	assert.Equal(t, constants.TaskStatusCompleted, entry.Status)
	assert.Equal(t, "done", entry.ResultText)
	assert.InDelta(t, 0.1, entry.CostUSD, 1e-9)
	assert.Equal(t, 2, entry.TurnCount)
	assert.Equal(t, int64(500), entry.DurationMs)
	assert.Equal(t, "add a changelog entry", entry.Payload)

	stats := f.loop.Stats()
	assert.Equal(t, 1, stats.TotalTasks)
	assert.Equal(t, 1, stats.UserTasks)
	assert.Equal(t, 0, stats.AutonomousTasks)
	assert.InDelta(t, 0.1, stats.TotalCostUSD, 1e-9)

	calls := f.exec.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Payload, "add a changelog entry")
	assert.Contains(t, calls[0].Payload, "maintainer")
	assert.Equal(t, 1, calls[0].Role.CycleNumber)
}

func TestRunTick_AutonomousFallback(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)

	result := f.loop.RunTick(context.Background())

	assert.True(t, result.Success)
	assert.Equal(t, constants.TaskKindAutonomous, result.Task.Kind)
	assert.Equal(t, constants.PriorityAutonomous, result.Task.PriorityClass)
	assert.Equal(t, 0, f.loop.QueueDepth())
	assert.Equal(t, 1, f.store.Stats().AutonomousTasks)

	_, err := os.Stat(f.queuePath)
	assert.True(t, os.IsNotExist(err), "autonomous tasks never touch the queue file")

	calls := f.exec.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, result.Task.Payload, calls[0].Payload)
}

func TestRunTick_UserTasksBeforeAutonomous(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	_, err := f.loop.EnqueueUser("first")
	require.NoError(t, err)
	_, err = f.loop.EnqueueUser("second")
	require.NoError(t, err)

	var kinds []constants.TaskKind
	var payloads []string
	for i := 0; i < 3; i++ {
		r := f.loop.RunTick(context.Background())
		kinds = append(kinds, r.Task.Kind)
		payloads = append(payloads, r.Task.Payload)
	}

	assert.Equal(t, []constants.TaskKind{constants.TaskKindUser, constants.TaskKindUser, constants.TaskKindAutonomous}, kinds)
	assert.Equal(t, "first", payloads[0])
	assert.Equal(t, "second", payloads[1])
	assert.Equal(t, 3, f.store.Stats().TotalCycles)
}

func TestRunTick_ReportedFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t, returning(&domain.Outcome{
		Success:   false,
		CostUSD:   0.3,
		TurnCount: 4,
		Errors:    []string{"tests failed", "lint failed"},
	}))

	result := f.loop.RunTick(context.Background())

	assert.False(t, result.Success)
	assert.Equal(t, constants.TaskStatusFailed, result.Status)
	assert.Equal(t, "tests failed; lint failed", result.Error)

	entry := f.store.RecentHistory(1)[0]
	assert.Equal(t, constants.TaskStatusFailed, entry.Status)
	assert.Zero(t, entry.CostUSD)
	assert.Zero(t, entry.TurnCount)
}

func TestRunTick_NilOutcomeIsFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t, returning(nil))
	result := f.loop.RunTick(context.Background())

	assert.False(t, result.Success)
	assert.Equal(t, "task failed", result.Error)
}

func TestRunTick_PanicIsRecorded(t *testing.T) {
	t.Parallel()

	f := newFixture(t, func(context.Context, string, domain.RoleContext) (*domain.Outcome, error) {
		panic("nil map write")
	})

	var result domain.TickResult
	require.NotPanics(t, func() { result = f.loop.RunTick(context.Background()) })

	assert.False(t, result.Success)
	assert.Equal(t, constants.TaskStatusFailed, result.Status)
	assert.Contains(t, result.Error, cadenceerrors.ErrExecutorPanic.Error())
	assert.Contains(t, result.Error, "nil map write")
	assert.Nil(t, f.store.CurrentTask())
}

func TestRunTick_Interrupted(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	f := newFixture(t, func(ctx context.Context, _ string, _ domain.RoleContext) (*domain.Outcome, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	result := f.loop.RunTick(ctx)

	assert.False(t, result.Success)
	assert.Equal(t, constants.TaskStatusInterrupted, result.Status)
	assert.Contains(t, result.Error, cadenceerrors.ErrInterrupted.Error())
	assert.Nil(t, f.store.CurrentTask(), "no current task survives a canceled tick")
	assert.Equal(t, 1, f.store.Stats().FailedTasks)

	// The next tick starts from a consistent state.
	f.exec.Fn = nil
	next := f.loop.RunTick(context.Background())
	assert.True(t, next.Success)
}

func TestRunTick_TimeoutIsFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t, func(ctx context.Context, _ string, _ domain.RoleContext) (*domain.Outcome, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	result := f.loop.RunTick(ctx)
	assert.Equal(t, constants.TaskStatusFailed, result.Status)
}

func TestRunTick_NoPreemption(t *testing.T) {
	t.Parallel()

	var f *fixture
	f = newFixture(t, func(context.Context, string, domain.RoleContext) (*domain.Outcome, error) {
		if len(f.exec.Calls()) == 1 {
			_, err := f.loop.EnqueueUser("arrived mid-tick")
			require.NoError(t, err)
		}
		return testutil.SuccessOutcome("ok", 0, 1, 0), nil
	})

	first := f.loop.RunTick(context.Background())
	assert.Equal(t, constants.TaskKindAutonomous, first.Task.Kind, "running task is not preempted")
	assert.Equal(t, 1, f.loop.QueueDepth())

	second := f.loop.RunTick(context.Background())
	assert.Equal(t, constants.TaskKindUser, second.Task.Kind)
	assert.Equal(t, "arrived mid-tick", second.Task.Payload)
}

func TestRunTick_PublishesEvents(t *testing.T) {
	t.Parallel()

	bus := events.NewBus(16)
	sub := bus.Subscribe()
	f := newFixture(t, nil, WithBus(bus))

	result := f.loop.RunTick(context.Background())
	bus.Close()

	var got []events.Event
	for e := range sub.C() {
		got = append(got, e)
	}
	require.Len(t, got, 3)
	assert.Equal(t, events.TickStarted, got[0].Type)
	assert.Equal(t, events.TaskSelected, got[1].Type)
	assert.Equal(t, result.Task.ID, got[1].Task.ID)
	assert.Equal(t, events.TaskFinished, got[2].Type)
	require.NotNil(t, got[2].Result)
	assert.True(t, got[2].Result.Success)
	for _, e := range got {
		assert.Equal(t, 1, e.Cycle)
		assert.Equal(t, f.clock.Now(), e.Timestamp)
	}
}

func TestRunTick_JournalsResults(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var recorded []domain.TickResult
	rec := recorderFunc(func(ctx context.Context, r domain.TickResult) error {
		require.NoError(t, ctx.Err(), "journal context outlives the tick")
		mu.Lock()
		recorded = append(recorded, r)
		mu.Unlock()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	f := newFixture(t, func(context.Context, string, domain.RoleContext) (*domain.Outcome, error) {
		cancel()
		return nil, context.Canceled
	}, WithJournal(rec))

	result := f.loop.RunTick(ctx)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, recorded, 1)
	assert.Equal(t, result, recorded[0])
	assert.Equal(t, constants.TaskStatusInterrupted, recorded[0].Status)
}

func TestRunTick_JournalErrorIgnored(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, WithJournal(recorderFunc(func(context.Context, domain.TickResult) error {
		return errJournalDown
	})))

	result := f.loop.RunTick(context.Background())
	assert.True(t, result.Success)
}

func TestRunTick_HistoryFeedsAutonomousPrompt(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	_, err := f.loop.EnqueueUser("rename the config loader")
	require.NoError(t, err)

	f.loop.RunTick(context.Background())
	f.loop.RunTick(context.Background())

	calls := f.exec.Calls()
	require.Len(t, calls, 2)
	assert.True(t, strings.Contains(calls[1].Payload, "rename the config loader"),
		"autonomous prompt lists recent work")
	assert.Equal(t, 2, calls[1].Role.CycleNumber)
}

func TestNew_RecordsRole(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	assert.Equal(t, "maintainer", f.store.Snapshot().CurrentRole)
}
