package tui

import (
	"fmt"
	"time"

	"github.com/mrz1836/cadence/internal/clock"
)

// RelativeTime formats t relative to c.Now(), for example "3 minutes ago".
// A zero t renders as "never".
func RelativeTime(t time.Time, c clock.Clock) string {
	if t.IsZero() {
		return "never"
	}
	diff := clock.OrReal(c).Now().Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour")
	case diff < 7*24*time.Hour:
		return plural(int(diff.Hours()/24), "day")
	default:
		return plural(int(diff.Hours()/24/7), "week")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit + " ago"
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// FormatDurationMs renders a millisecond count compactly: "850ms", "12.3s", "4m05s".
func FormatDurationMs(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", ms)
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		m := int(d / time.Minute)
		s := int((d % time.Minute) / time.Second)
		return fmt.Sprintf("%dm%02ds", m, s)
	}
}
