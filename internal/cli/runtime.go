package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/mrz1836/cadence/internal/ai"
	"github.com/mrz1836/cadence/internal/config"
	"github.com/mrz1836/cadence/internal/constants"
	"github.com/mrz1836/cadence/internal/errors"
	"github.com/mrz1836/cadence/internal/events"
	"github.com/mrz1836/cadence/internal/flock"
	"github.com/mrz1836/cadence/internal/fsutil"
	"github.com/mrz1836/cadence/internal/git"
	"github.com/mrz1836/cadence/internal/journal"
	"github.com/mrz1836/cadence/internal/lifecycle"
	"github.com/mrz1836/cadence/internal/loop"
	"github.com/mrz1836/cadence/internal/notes"
	"github.com/mrz1836/cadence/internal/prompts"
	"github.com/mrz1836/cadence/internal/queue"
)

// runtime holds the components a command works with. Commands that mutate
// state hold the repository lock for the lifetime of the runtime.
type runtime struct {
	repo    string
	cfg     *config.Config
	logger  zerolog.Logger
	lock    *flock.Lock
	queue   *queue.Queue
	store   *lifecycle.Store
	bus     *events.Bus
	journal *journal.Journal
	loop    *loop.Loop
}

// loadConfig reads the layered configuration for repo and applies flag overrides.
func loadConfig(ctx context.Context, repo string, o config.Overrides) (*config.Config, error) {
	cfg, err := config.Load(ctx, repo)
	if err != nil {
		return nil, err
	}
	if err := config.ApplyOverrides(cfg, o); err != nil {
		return nil, err
	}
	return cfg, nil
}

// acquireLock takes the repository lock, creating the state directory first.
func acquireLock(repo string) (*flock.Lock, error) {
	stateDir := config.StateDir(repo)
	if err := ensureDir(stateDir); err != nil {
		return nil, err
	}
	return flock.Acquire(filepath.Join(stateDir, constants.LockFileName))
}

// lockHeld reports whether another process holds the repository lock.
func lockHeld(repo string) bool {
	path := filepath.Join(config.StateDir(repo), constants.LockFileName)
	if !fileExists(path) {
		return false
	}
	l, err := flock.Acquire(path)
	if err != nil {
		return stderrors.Is(err, errors.ErrLockHeld)
	}
	_ = l.Release()
	return false
}

// openStores opens the queue and lifecycle store without taking the lock.
// Read-only commands use it directly.
func openStores(repo string, cfg *config.Config, logger zerolog.Logger) (*queue.Queue, *lifecycle.Store) {
	stateDir := config.StateDir(repo)
	q := queue.Open(filepath.Join(stateDir, constants.QueueFileName),
		queue.WithMaxSize(cfg.Queue.MaxSize),
		queue.WithLogger(logger))
	store := lifecycle.Open(filepath.Join(stateDir, constants.StateFileName),
		lifecycle.WithLogger(logger))
	return q, store
}

// openRuntime takes the repository lock and wires the work loop. The caller
// must Close the returned runtime.
func openRuntime(ctx context.Context, repo string, cfg *config.Config, logger zerolog.Logger) (*runtime, error) {
	lock, err := acquireLock(repo)
	if err != nil {
		return nil, err
	}

	rt := &runtime{repo: repo, cfg: cfg, logger: logger, lock: lock}
	rt.queue, rt.store = openStores(repo, cfg, logger)
	rt.bus = events.NewBus(cfg.Events.BufferSize, events.WithLogger(logger))

	executor, err := ai.New(&cfg.Executor, logger)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}

	loopOpts := []loop.Option{loop.WithBus(rt.bus), loop.WithLogger(logger)}
	if cfg.Journal.Enabled {
		j, jerr := journal.Open(ctx, config.ResolvePath(repo, cfg.Journal.Path), journal.WithLogger(logger))
		if jerr != nil {
			// The journal is an audit trail; the loop runs without it.
			logger.Warn().Err(jerr).Msg("journal unavailable, continuing without it")
		} else {
			rt.journal = j
			loopOpts = append(loopOpts, loop.WithJournal(j))
		}
	}

	synthOpts := []prompts.SynthesizerOption{prompts.WithLogger(logger)}
	if cfg.Synthesizer.RepoContext {
		synthOpts = append(synthOpts, prompts.WithRepo(git.NewDescriber(repo, cfg.Synthesizer.RecentCommits, logger)))
	}
	synth := prompts.NewSynthesizer(rt.store,
		notes.NewFile(config.ResolvePath(repo, cfg.Synthesizer.NotesFile)),
		prompts.SynthesizerConfig{
			HistoryWindow:   cfg.Synthesizer.HistoryWindow,
			PromptTruncate:  cfg.Synthesizer.PromptTruncate,
			RoleDescription: cfg.Role.Description,
		},
		synthOpts...)

	rt.loop = loop.New(rt.queue, rt.store, synth, executor,
		loop.Role{Name: cfg.Role.Name, RepositoryPath: repo},
		loopOpts...)

	return rt, nil
}

// recoverStale applies the configured stale policy to a task left running by
// a dead process.
func (rt *runtime) recoverStale(policy string) {
	if policy == "" {
		policy = rt.cfg.Recovery.StalePolicy
	}
	if entry, ok := rt.store.RecoverStale(policy); ok {
		rt.logger.Warn().
			Str("task_id", entry.ID).
			Str("kind", entry.Kind.String()).
			Msg("recovered task left running by a previous process")
	}
}

// Close releases everything the runtime opened, lock last.
func (rt *runtime) Close() error {
	var errs []error
	if rt.bus != nil {
		rt.bus.Close()
	}
	if rt.journal != nil {
		if err := rt.journal.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := rt.lock.Release(); err != nil {
		errs = append(errs, err)
	}
	return stderrors.Join(errs...)
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, fsutil.DirPerm); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
