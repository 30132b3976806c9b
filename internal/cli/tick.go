package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mrz1836/cadence/internal/driver"
)

// AddTickCommand adds the tick command to the root command.
func AddTickCommand(root *cobra.Command, a *app) {
	var flags loopFlags

	cmd := &cobra.Command{
		Use:   "tick",
		Short: "Run exactly one tick and exit",
		Long: `Run a single tick: the oldest queued instruction if there is one, otherwise
an autonomous task. Instructions waiting in .cadence/inbox are queued
first. Useful from cron or CI.

The exit code is 0 even when the task fails; the failure is recorded in
history and shown in the output.`,
		Example: `  cadence tick --role maintainer
  cadence tick -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTick(cmd.Context(), cmd, a, &flags)
		},
	}

	addLoopFlags(cmd, &flags)

	root.AddCommand(cmd)
}

func runTick(ctx context.Context, cmd *cobra.Command, a *app, flags *loopFlags) error {
	logger := a.Logger()

	cfg, err := loadConfig(ctx, a.flags.Repo, flags.overrides())
	if err != nil {
		return err
	}
	if err := cfg.RequireRole(); err != nil {
		return err
	}

	rt, err := openRuntime(ctx, a.flags.Repo, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rt.Close(); cerr != nil {
			logger.Warn().Err(cerr).Msg("failed to release runtime")
		}
	}()
	rt.recoverStale("")

	// Instructions delivered while no loop was running are queued first so
	// this tick picks up the oldest of them.
	inbox := driver.NewInbox(inboxDir(a.flags.Repo), driver.WithInboxLogger(logger))
	if n := inbox.Drain(rt.loop.EnqueueUser); n > 0 {
		logger.Debug().Int("count", n).Msg("queued instructions from inbox")
	}

	result := rt.loop.RunTick(ctx)
	v := newTickView(result)
	return a.output(cmd).Data(v, renderTick(v))
}
