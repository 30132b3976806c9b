package journal

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/cadence/internal/constants"
	"github.com/mrz1836/cadence/internal/domain"
	"github.com/mrz1836/cadence/internal/errors"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func tickResult(kind constants.TaskKind, payload string, status constants.TaskStatus, start time.Time) domain.TickResult {
	return domain.TickResult{
		Task:       domain.NewTask(kind, payload, start),
		Success:    status == constants.TaskStatusCompleted,
		Status:     status,
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
		CostUSD:    0.25,
	}
}

func TestOpenDB_Pragmas(t *testing.T) {
	t.Parallel()

	j := openTestJournal(t)

	var journalMode string
	require.NoError(t, j.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var busyTimeout int
	require.NoError(t, j.db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout))
	assert.Equal(t, 5000, busyTimeout)
}

func TestOpen_InvalidPath(t *testing.T) {
	t.Parallel()

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	_, err := Open(context.Background(), filepath.Join(blocker, "journal.db"))
	require.Error(t, err)
}

func TestJournal_RecordAndRecent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	j := openTestJournal(t)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first := tickResult(constants.TaskKindUser, "one", constants.TaskStatusCompleted, start)
	second := tickResult(constants.TaskKindAutonomous, "two", constants.TaskStatusFailed, start.Add(time.Minute))
	second.Error = "boom"
	third := tickResult(constants.TaskKindUser, "three", constants.TaskStatusInterrupted, start.Add(2*time.Minute))

	for _, r := range []domain.TickResult{first, second, third} {
		require.NoError(t, j.Record(ctx, r))
	}

	n, err := j.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	recent, err := j.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)

	assert.Equal(t, second.Task.ID, recent[0].TaskID)
	assert.Equal(t, constants.TaskKindAutonomous, recent[0].Kind)
	assert.Equal(t, constants.TaskStatusFailed, recent[0].Status)
	assert.False(t, recent[0].Success)
	assert.Equal(t, "boom", recent[0].Error)
	assert.Equal(t, int64(1500), recent[0].DurationMs)
	assert.InDelta(t, 0.25, recent[0].CostUSD, 1e-9)
	assert.True(t, second.StartedAt.Equal(recent[0].StartedAt))

	assert.Equal(t, third.Task.ID, recent[1].TaskID)
	assert.Equal(t, constants.TaskStatusInterrupted, recent[1].Status)
}

func TestJournal_RecentEdgeCases(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	j := openTestJournal(t)

	got, err := j.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = j.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, j.Record(ctx, tickResult(constants.TaskKindUser, "x", constants.TaskStatusCompleted, time.Now())))
	got, err = j.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.True(t, got[0].Success)
}

func TestJournal_PersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, j.Record(ctx, tickResult(constants.TaskKindUser, "x", constants.TaskStatusCompleted, time.Now())))
	require.NoError(t, j.Close())

	reopened, err := Open(ctx, path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	n, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, path, reopened.Path())
}

func TestJournal_Closed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	j, err := Open(ctx, filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	require.NoError(t, j.Close())
	require.NoError(t, j.Close())

	err = j.Record(ctx, tickResult(constants.TaskKindUser, "x", constants.TaskStatusCompleted, time.Now()))
	require.ErrorIs(t, err, errors.ErrJournalClosed)

	_, err = j.Recent(ctx, 1)
	require.ErrorIs(t, err, errors.ErrJournalClosed)

	_, err = j.Count(ctx)
	require.ErrorIs(t, err, errors.ErrJournalClosed)
}
