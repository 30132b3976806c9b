package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mrz1836/cadence/internal/config"
	"github.com/mrz1836/cadence/internal/domain"
	"github.com/mrz1836/cadence/internal/errors"
	"github.com/mrz1836/cadence/internal/lifecycle"
	"github.com/mrz1836/cadence/internal/tui"
)

// recoverResult reports what recover did.
type recoverResult struct {
	Policy    string       `json:"policy" yaml:"policy"`
	Recovered bool         `json:"recovered" yaml:"recovered"`
	Entry     *historyView `json:"entry,omitempty" yaml:"entry,omitempty"`
}

// AddRecoverCommand adds the recover command to the root command.
func AddRecoverCommand(root *cobra.Command, a *app) {
	var policy string

	cmd := &cobra.Command{
		Use:   "recover",
		Short: "Resolve a task left running by a process that died",
		Long: `Apply stale-task recovery without starting the loop.

If the lifecycle state shows a running task and no cadence process holds the
repository lock, the task was orphaned by a crash. With the interrupt policy
it is recorded in history as interrupted; with the ignore policy it is left
in place. 'cadence run' and 'cadence tick' do this automatically at startup.`,
		Example: `  cadence recover
  cadence recover --policy ignore -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRecover(cmd.Context(), cmd, a, policy)
		},
	}

	cmd.Flags().StringVar(&policy, "policy", "", "stale policy: interrupt or ignore (overrides recovery.stale_policy)")

	root.AddCommand(cmd)
}

func runRecover(ctx context.Context, cmd *cobra.Command, a *app, policy string) error {
	repo := a.flags.Repo
	logger := a.Logger()

	if policy != "" && policy != lifecycle.StalePolicyInterrupt && policy != lifecycle.StalePolicyIgnore {
		return errors.NewExitCode2Error(fmt.Errorf("%w: --policy must be %q or %q, got %q",
			errors.ErrInvalidArgument, lifecycle.StalePolicyInterrupt, lifecycle.StalePolicyIgnore, policy))
	}

	cfg, err := loadConfig(ctx, repo, config.Overrides{})
	if err != nil {
		return err
	}
	if policy == "" {
		policy = cfg.Recovery.StalePolicy
	}

	lock, err := acquireLock(repo)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	_, store := openStores(repo, cfg, logger)
	res := recoverResult{Policy: policy}
	if entry, ok := store.RecoverStale(policy); ok {
		views := newHistoryViews([]domain.HistoryEntry{entry})
		res.Recovered = true
		res.Entry = &views[0]
	}

	return a.output(cmd).Data(res, func(w io.Writer, s *tui.OutputStyles) {
		if res.Recovered {
			_, _ = fmt.Fprintf(w, "%s %s recorded as interrupted\n", s.Success.Render("✓"), res.Entry.ID)
			return
		}
		_, _ = fmt.Fprintln(w, s.Dim.Render("Nothing to recover."))
	})
}
