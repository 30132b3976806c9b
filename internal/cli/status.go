package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/cadence/internal/clock"
	"github.com/mrz1836/cadence/internal/config"
	"github.com/mrz1836/cadence/internal/constants"
	"github.com/mrz1836/cadence/internal/domain"
	"github.com/mrz1836/cadence/internal/driver"
	"github.com/mrz1836/cadence/internal/prompts"
	"github.com/mrz1836/cadence/internal/tui"
)

// statusView is the full status report.
type statusView struct {
	Repository    string           `json:"repository" yaml:"repository"`
	SessionID     string           `json:"session_id" yaml:"session_id"`
	StartedAt     time.Time        `json:"started_at" yaml:"started_at"`
	Role          string           `json:"role" yaml:"role"`
	Running       bool             `json:"running" yaml:"running"`
	CurrentTask   *currentTaskView `json:"current_task" yaml:"current_task"`
	QueueDepth    int              `json:"queue_depth" yaml:"queue_depth"`
	QueueCapacity int              `json:"queue_capacity" yaml:"queue_capacity"`
	InboxPending  int              `json:"inbox_pending" yaml:"inbox_pending"`
	Stats         statsView        `json:"stats" yaml:"stats"`
}

type currentTaskView struct {
	ID        string               `json:"id" yaml:"id"`
	Kind      constants.TaskKind   `json:"kind" yaml:"kind"`
	Status    constants.TaskStatus `json:"status" yaml:"status"`
	StartedAt time.Time            `json:"started_at" yaml:"started_at"`
	Payload   string               `json:"payload" yaml:"payload"`
	// Stale marks a running record with no live process behind it.
	Stale bool `json:"stale" yaml:"stale"`
}

type statsView struct {
	TotalCycles     int     `json:"total_cycles" yaml:"total_cycles"`
	TotalCostUSD    float64 `json:"total_cost_usd" yaml:"total_cost_usd"`
	TotalTasks      int     `json:"total_tasks" yaml:"total_tasks"`
	UserTasks       int     `json:"user_tasks" yaml:"user_tasks"`
	AutonomousTasks int     `json:"autonomous_tasks" yaml:"autonomous_tasks"`
	FailedTasks     int     `json:"failed_tasks" yaml:"failed_tasks"`
}

func newStatsView(s domain.Stats) statsView {
	return statsView(s)
}

// AddStatusCommand adds the status command to the root command.
func AddStatusCommand(root *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the loop's current task, queue and statistics",
		Long: `Show whether a loop is running for the repository, what it is working on,
how many instructions are waiting, and the running statistics of the session.`,
		Example: `  cadence status
  cadence status -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd.Context(), cmd, a, clock.RealClock{})
		},
	}

	root.AddCommand(cmd)
}

func runStatus(ctx context.Context, cmd *cobra.Command, a *app, c clock.Clock) error {
	repo := a.flags.Repo
	logger := a.Logger()

	cfg, err := loadConfig(ctx, repo, config.Overrides{})
	if err != nil {
		return err
	}

	q, store := openStores(repo, cfg, logger)
	snap := store.Snapshot()
	running := lockHeld(repo)

	view := statusView{
		Repository:    repo,
		SessionID:     snap.SessionID,
		StartedAt:     snap.StartedAt,
		Role:          snap.CurrentRole,
		Running:       running,
		QueueDepth:    q.Len(),
		QueueCapacity: q.Cap(),
		InboxPending:  len(driver.NewInbox(inboxDir(repo)).Pending()),
		Stats:         newStatsView(snap.Stats),
	}
	if view.Role == "" {
		view.Role = cfg.Role.Name
	}
	if ct := snap.CurrentTask; ct != nil {
		view.CurrentTask = &currentTaskView{
			ID:        ct.ID,
			Kind:      ct.Kind,
			Status:    ct.Status,
			StartedAt: ct.StartedAt,
			Payload:   ct.Payload,
			Stale:     !running,
		}
	}

	return a.output(cmd).Data(view, renderStatus(view, c))
}

func renderStatus(v statusView, c clock.Clock) func(io.Writer, *tui.OutputStyles) {
	return func(w io.Writer, s *tui.OutputStyles) {
		row := func(label, value string) {
			_, _ = fmt.Fprintf(w, "%s %s\n", s.Label.Render(label), value)
		}

		_, _ = fmt.Fprintln(w, s.Header.Render("cadence status"))
		row("Repository", v.Repository)
		row("Role", orDash(v.Role))
		if v.Running {
			row("Loop", s.Success.Render("running"))
		} else {
			row("Loop", s.Dim.Render("stopped"))
		}
		row("Session", fmt.Sprintf("%s %s", v.SessionID, s.Dim.Render("(started "+tui.RelativeTime(v.StartedAt, c)+")")))

		if ct := v.CurrentTask; ct != nil {
			task := fmt.Sprintf("%s %s %s", tui.FormatStatus(ct.Status), ct.Kind, s.Dim.Render(tui.RelativeTime(ct.StartedAt, c)))
			if ct.Stale {
				task += " " + s.Warning.Render("(stale, run 'cadence recover')")
			}
			row("Current task", task)
			row("", oneLine(prompts.Truncate(ct.Payload, payloadPreview)))
		} else {
			row("Current task", s.Dim.Render("idle"))
		}

		row("Queue", fmt.Sprintf("%d / %d", v.QueueDepth, v.QueueCapacity))
		if v.InboxPending > 0 {
			row("Inbox", fmt.Sprintf("%d waiting", v.InboxPending))
		}

		st := v.Stats
		row("Cycles", fmt.Sprintf("%d", st.TotalCycles))
		row("Tasks", fmt.Sprintf("%d (%d user, %d autonomous, %d failed)",
			st.TotalTasks, st.UserTasks, st.AutonomousTasks, st.FailedTasks))
		row("Cost", formatCost(st.TotalCostUSD))
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
