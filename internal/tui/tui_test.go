package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/cadence/internal/constants"
	"github.com/mrz1836/cadence/internal/errors"
	"github.com/mrz1836/cadence/internal/testutil"
)

func TestHasColorSupport(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	assert.False(t, HasColorSupport(), "NO_COLOR set to any value disables color")
}

func TestHasColorSupport_DumbTerminal(t *testing.T) {
	t.Setenv("TERM", "dumb")
	assert.False(t, HasColorSupport())
}

func TestTaskStatusIcon(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "●", TaskStatusIcon(constants.TaskStatusRunning))
	assert.Equal(t, "✓", TaskStatusIcon(constants.TaskStatusCompleted))
	assert.Equal(t, "✗", TaskStatusIcon(constants.TaskStatusFailed))
	assert.Equal(t, "⚠", TaskStatusIcon(constants.TaskStatusInterrupted))
	assert.Equal(t, "○", TaskStatusIcon(constants.TaskStatus("unknown")))

	assert.Equal(t, ColorError, TaskStatusColor(constants.TaskStatusFailed))
	assert.Equal(t, ColorMuted, TaskStatusColor(constants.TaskStatus("unknown")))
}

func TestFormatStatus(t *testing.T) {
	t.Parallel()
	assert.Contains(t, FormatStatus(constants.TaskStatusCompleted), "✓ completed")
}

func TestRelativeTime(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	clk := testutil.NewManualClock(now)

	tests := []struct {
		ago  time.Duration
		want string
	}{
		{30 * time.Second, "just now"},
		{time.Minute, "1 minute ago"},
		{5 * time.Minute, "5 minutes ago"},
		{time.Hour, "1 hour ago"},
		{3 * time.Hour, "3 hours ago"},
		{24 * time.Hour, "1 day ago"},
		{3 * 24 * time.Hour, "3 days ago"},
		{14 * 24 * time.Hour, "2 weeks ago"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RelativeTime(now.Add(-tt.ago), clk), tt.want)
	}
	assert.Equal(t, "never", RelativeTime(time.Time{}, clk))
}

func TestFormatDurationMs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "850ms", FormatDurationMs(850))
	assert.Equal(t, "12.3s", FormatDurationMs(12300))
	assert.Equal(t, "4m05s", FormatDurationMs(245000))
}

func TestValidFormat(t *testing.T) {
	t.Parallel()

	for _, f := range []string{FormatText, FormatJSON, FormatYAML} {
		assert.True(t, ValidFormat(f), f)
	}
	assert.False(t, ValidFormat("xml"))
}

type sample struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

func TestNewOutput_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	out := NewOutput(&buf, FormatJSON)
	out.Success("ignored")
	out.Info("ignored")
	out.Warning("ignored")

	require.NoError(t, out.Data(sample{Name: "queue", Count: 3}, nil))

	var got sample
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, sample{Name: "queue", Count: 3}, got)
}

func TestNewOutput_YAML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, NewOutput(&buf, FormatYAML).Data(sample{Name: "queue", Count: 3}, nil))

	var got sample
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, sample{Name: "queue", Count: 3}, got)
}

func TestOutput_Errors(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("%w: 1000 of 1000 slots used", errors.ErrCapacityExceeded)

	var jsonBuf bytes.Buffer
	NewOutput(&jsonBuf, FormatJSON).Error(err)
	var je map[string]string
	require.NoError(t, json.Unmarshal(jsonBuf.Bytes(), &je))
	assert.Equal(t, "error", je["type"])
	assert.Equal(t, "The task queue is full.", je["message"])
	assert.Equal(t, err.Error(), je["details"])
	assert.NotEmpty(t, je["suggestion"])

	var yamlBuf bytes.Buffer
	NewOutput(&yamlBuf, FormatYAML).Error(err)
	var ye map[string]string
	require.NoError(t, yaml.Unmarshal(yamlBuf.Bytes(), &ye))
	assert.Equal(t, "The task queue is full.", ye["message"])
}

func TestTextOutput(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	out := NewOutput(&buf, "anything")
	out.Success("queued")
	out.Warning("queue nearly full")
	out.Info("3 pending")
	out.Error(errors.ErrLockHeld)

	text := buf.String()
	assert.Contains(t, text, "✓ queued")
	assert.Contains(t, text, "⚠ queue nearly full")
	assert.Contains(t, text, "3 pending")
	assert.Contains(t, text, "✗ Another cadence process is already running")
	assert.Contains(t, text, "▸ Try:")

	buf.Reset()
	require.NoError(t, out.Data(nil, func(w io.Writer, s *OutputStyles) {
		_, _ = io.WriteString(w, s.Header.Render("Status")+"\n")
	}))
	assert.Equal(t, "Status", strings.TrimSpace(buf.String()))
}
