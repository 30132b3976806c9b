package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/cadence/internal/config"
	"github.com/mrz1836/cadence/internal/constants"
	"github.com/mrz1836/cadence/internal/domain"
	"github.com/mrz1836/cadence/internal/driver"
	"github.com/mrz1836/cadence/internal/events"
	"github.com/mrz1836/cadence/internal/signal"
)

// loopFlags are the config overrides shared by run and tick.
type loopFlags struct {
	role     string
	interval time.Duration
	agent    string
	model    string
}

func (f *loopFlags) overrides() config.Overrides {
	return config.Overrides{
		RoleName:     f.role,
		TickInterval: f.interval,
		Agent:        f.agent,
		Model:        f.model,
	}
}

func addLoopFlags(cmd *cobra.Command, f *loopFlags) {
	cmd.Flags().StringVar(&f.role, "role", "", "role name the loop works as (overrides role.name)")
	cmd.Flags().StringVar(&f.agent, "agent", "", "executor agent: claude or stub (overrides executor.agent)")
	cmd.Flags().StringVar(&f.model, "model", "", "model passed to the agent (overrides executor.model)")
}

// AddRunCommand adds the run command to the root command.
func AddRunCommand(root *cobra.Command, a *app) {
	var flags loopFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the work loop until interrupted",
		Long: `Run ticks forever: one immediately, then one every tick interval, and one
right away whenever an instruction arrives in .cadence/inbox.

Ctrl+C stops the loop. A task in flight is recorded as interrupted.
A second Ctrl+C exits immediately.`,
		Example: `  # Run as the configured role
  cadence run

  # Run every five minutes as a reviewer
  cadence run --role reviewer --interval 5m`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRun(cmd.Context(), cmd, a, &flags)
		},
	}

	addLoopFlags(cmd, &flags)
	cmd.Flags().DurationVar(&flags.interval, "interval", 0, "time between ticks (overrides role.tick_interval)")

	root.AddCommand(cmd)
}

func runRun(ctx context.Context, cmd *cobra.Command, a *app, flags *loopFlags) error {
	logger := a.Logger()
	repo := a.flags.Repo
	out := a.output(cmd)

	cfg, err := loadConfig(ctx, repo, flags.overrides())
	if err != nil {
		return err
	}
	if err := cfg.RequireRole(); err != nil {
		return err
	}

	rt, err := openRuntime(ctx, repo, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rt.Close(); cerr != nil {
			logger.Warn().Err(cerr).Msg("failed to release runtime")
		}
	}()
	rt.recoverStale("")

	handler := signal.NewHandler(ctx, signal.WithForceExit(func() {
		logger.Warn().Msg("second interrupt, exiting immediately")
		os.Exit(ExitError) //nolint:revive // force exit on repeated signal
	}))
	defer handler.Stop()

	unsubscribe := rt.bus.SubscribeFunc(func(e events.Event) {
		ev := logger.Debug().
			Str("type", string(e.Type)).
			Int("cycle", e.Cycle).
			Int("queue_depth", e.QueueDepth)
		if e.Task != nil {
			ev = ev.Str("task_id", e.Task.ID).Str("kind", e.Task.Kind.String())
		}
		ev.Msg("loop event")
	})
	defer unsubscribe()

	inbox := driver.NewInbox(inboxDir(repo), driver.WithInboxLogger(logger))
	d := driver.New(rt.loop, cfg.Role.TickInterval,
		driver.WithInbox(inbox),
		driver.WithLogger(logger),
		driver.WithTickHook(func(r domain.TickResult) {
			v := newTickView(r)
			if derr := out.Data(v, renderTick(v)); derr != nil {
				logger.Warn().Err(derr).Msg("failed to print tick result")
			}
		}))

	out.Info(fmt.Sprintf("cadence running as %q in %s, ticking every %s", cfg.Role.Name, repo, cfg.Role.TickInterval))
	out.Info(fmt.Sprintf("Drop instructions into %s or use 'cadence enqueue'.", inbox.Dir()))

	if err := d.Run(handler.Context()); err != nil {
		return err
	}
	stats := rt.store.Stats()
	out.Success(fmt.Sprintf("Stopped after %d cycles (%d failed, $%.4f spent).",
		stats.TotalCycles, stats.FailedTasks, stats.TotalCostUSD))
	return nil
}

// inboxDir returns <repo>/.cadence/inbox.
func inboxDir(repo string) string {
	return filepath.Join(config.StateDir(repo), constants.InboxDir)
}
