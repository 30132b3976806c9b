package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrz1836/cadence/internal/clock"
	"github.com/mrz1836/cadence/internal/config"
	"github.com/mrz1836/cadence/internal/errors"
	"github.com/mrz1836/cadence/internal/journal"
)

const defaultHistoryCount = 10

type historyFlags struct {
	count   int
	journal bool
}

// AddHistoryCommand adds the history command to the root command.
func AddHistoryCommand(root *cobra.Command, a *app) {
	var flags historyFlags

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently finished tasks",
		Long: `Show the most recent finished tasks, oldest first.

With --journal the rows come from the SQLite tick journal instead of the
lifecycle history.`,
		Example: `  cadence history
  cadence history -n 50 -o json
  cadence history --journal`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd.Context(), cmd, a, &flags)
		},
	}

	cmd.Flags().IntVarP(&flags.count, "count", "n", defaultHistoryCount, "number of entries to show")
	cmd.Flags().BoolVar(&flags.journal, "journal", false, "read from the tick journal")

	root.AddCommand(cmd)
}

func runHistory(ctx context.Context, cmd *cobra.Command, a *app, flags *historyFlags) error {
	if flags.count < 1 {
		return errors.NewExitCode2Error(fmt.Errorf("%w: --count must be at least 1, got %d", errors.ErrInvalidArgument, flags.count))
	}

	repo := a.flags.Repo
	cfg, err := loadConfig(ctx, repo, config.Overrides{})
	if err != nil {
		return err
	}
	out := a.output(cmd)

	if flags.journal {
		if !cfg.Journal.Enabled {
			return errors.NewExitCode2Error(errors.ErrJournalDisabled)
		}
		entries, err := readJournal(ctx, config.ResolvePath(repo, cfg.Journal.Path), flags.count, a)
		if err != nil {
			return err
		}
		return out.Data(entries, renderJournal(entries))
	}

	_, store := openStores(repo, cfg, a.Logger())
	views := newHistoryViews(store.RecentHistory(flags.count))
	return out.Data(views, renderHistory(views, clock.RealClock{}))
}

func readJournal(ctx context.Context, path string, n int, a *app) ([]journal.Entry, error) {
	if !fileExists(path) {
		return []journal.Entry{}, nil
	}
	j, err := journal.Open(ctx, path, journal.WithLogger(a.Logger()))
	if err != nil {
		return nil, err
	}
	defer func() { _ = j.Close() }()
	return j.Recent(ctx, n)
}
