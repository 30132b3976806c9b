package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mrz1836/cadence/internal/clock"
	"github.com/mrz1836/cadence/internal/constants"
	"github.com/mrz1836/cadence/internal/domain"
	"github.com/mrz1836/cadence/internal/journal"
	"github.com/mrz1836/cadence/internal/prompts"
	"github.com/mrz1836/cadence/internal/tui"
)

// payloadPreview is how many characters of a payload text output shows.
const payloadPreview = 72

// tickView is the rendered result of one tick.
type tickView struct {
	TaskID     string               `json:"task_id" yaml:"task_id"`
	Kind       constants.TaskKind   `json:"kind" yaml:"kind"`
	Status     constants.TaskStatus `json:"status" yaml:"status"`
	Success    bool                 `json:"success" yaml:"success"`
	StartedAt  time.Time            `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time            `json:"finished_at" yaml:"finished_at"`
	DurationMs int64                `json:"duration_ms" yaml:"duration_ms"`
	CostUSD    float64              `json:"cost_usd" yaml:"cost_usd"`
	Payload    string               `json:"payload" yaml:"payload"`
	Error      string               `json:"error,omitempty" yaml:"error,omitempty"`
}

func newTickView(r domain.TickResult) tickView {
	return tickView{
		TaskID:     r.Task.ID,
		Kind:       r.Task.Kind,
		Status:     r.Status,
		Success:    r.Success,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		DurationMs: r.Duration().Milliseconds(),
		CostUSD:    r.CostUSD,
		Payload:    r.Task.Payload,
		Error:      r.Error,
	}
}

func renderTick(v tickView) func(io.Writer, *tui.OutputStyles) {
	return func(w io.Writer, s *tui.OutputStyles) {
		_, _ = fmt.Fprintf(w, "%s %s %s  %s  %s\n",
			tui.FormatStatus(v.Status),
			s.Dim.Render(v.Kind.String()),
			v.TaskID,
			tui.FormatDurationMs(v.DurationMs),
			formatCost(v.CostUSD))
		if v.Error != "" {
			_, _ = fmt.Fprintf(w, "  %s\n", s.Error.Render(oneLine(v.Error)))
		}
	}
}

// historyView is one lifecycle history entry.
type historyView struct {
	ID          string               `json:"id" yaml:"id"`
	Kind        constants.TaskKind   `json:"kind" yaml:"kind"`
	Status      constants.TaskStatus `json:"status" yaml:"status"`
	Payload     string               `json:"payload" yaml:"payload"`
	ResultText  string               `json:"result_text" yaml:"result_text"`
	StartedAt   time.Time            `json:"started_at" yaml:"started_at"`
	CompletedAt time.Time            `json:"completed_at" yaml:"completed_at"`
	DurationMs  int64                `json:"duration_ms" yaml:"duration_ms"`
	CostUSD     float64              `json:"cost_usd" yaml:"cost_usd"`
	TurnCount   int                  `json:"turn_count" yaml:"turn_count"`
}

func newHistoryViews(entries []domain.HistoryEntry) []historyView {
	out := make([]historyView, 0, len(entries))
	for _, e := range entries {
		out = append(out, historyView{
			ID:          e.ID,
			Kind:        e.Kind,
			Status:      e.Status,
			Payload:     e.Payload,
			ResultText:  e.ResultText,
			StartedAt:   e.StartedAt,
			CompletedAt: e.CompletedAt,
			DurationMs:  e.DurationMs,
			CostUSD:     e.CostUSD,
			TurnCount:   e.TurnCount,
		})
	}
	return out
}

func renderHistory(views []historyView, c clock.Clock) func(io.Writer, *tui.OutputStyles) {
	return func(w io.Writer, s *tui.OutputStyles) {
		if len(views) == 0 {
			_, _ = fmt.Fprintln(w, s.Dim.Render("No tasks recorded yet."))
			return
		}
		for _, v := range views {
			_, _ = fmt.Fprintf(w, "%s %-10s %s  %s  %s\n",
				tui.FormatStatus(v.Status),
				v.Kind,
				s.Dim.Render(tui.RelativeTime(v.CompletedAt, c)),
				tui.FormatDurationMs(v.DurationMs),
				formatCost(v.CostUSD))
			_, _ = fmt.Fprintf(w, "  %s\n", oneLine(prompts.Truncate(v.Payload, payloadPreview)))
			if v.Status != constants.TaskStatusCompleted && v.ResultText != "" {
				_, _ = fmt.Fprintf(w, "  %s\n", s.Error.Render(oneLine(v.ResultText)))
			}
		}
	}
}

func renderJournal(views []journal.Entry) func(io.Writer, *tui.OutputStyles) {
	return func(w io.Writer, s *tui.OutputStyles) {
		if len(views) == 0 {
			_, _ = fmt.Fprintln(w, s.Dim.Render("The journal is empty."))
			return
		}
		for _, v := range views {
			_, _ = fmt.Fprintf(w, "%5d %s %-10s %s  %s  %s\n",
				v.ID,
				tui.FormatStatus(v.Status),
				v.Kind,
				s.Dim.Render(v.FinishedAt.Local().Format(time.DateTime)),
				tui.FormatDurationMs(v.DurationMs),
				formatCost(v.CostUSD))
		}
	}
}

func formatCost(usd float64) string {
	return fmt.Sprintf("$%.4f", usd)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
