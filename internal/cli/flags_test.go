package cli

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/cadence/internal/errors"
)

func TestExitCodeForError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"generic", stderrors.New("boom"), ExitError},
		{"lock held", fmt.Errorf("%w (pid 7)", errors.ErrLockHeld), ExitError},
		{"exit code 2 wrapper", errors.NewExitCode2Error(stderrors.New("bad")), ExitInvalidInput},
		{"invalid output", errors.ErrInvalidOutputFormat, ExitInvalidInput},
		{"invalid config", fmt.Errorf("%w: queue.max_size", errors.ErrConfigInvalid), ExitInvalidInput},
		{"no role", errors.ErrNoRole, ExitInvalidInput},
		{"unknown flag", stderrors.New("unknown flag: --nope"), ExitInvalidInput},
		{"arg count", stderrors.New("requires at least 1 arg(s), only received 0"), ExitInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExitCodeForError(tt.err))
		})
	}
}

func TestIsValidOutputFormat(t *testing.T) {
	t.Parallel()

	for _, f := range []string{"text", "json", "yaml"} {
		assert.True(t, IsValidOutputFormat(f), f)
	}
	assert.False(t, IsValidOutputFormat("xml"))
	assert.False(t, IsValidOutputFormat(""))
}

func TestFormatVersion(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "dev (commit: none, built: unknown)", formatVersion(BuildInfo{}))
	assert.Equal(t, "1.2.0 (commit: abc123, built: 2026-01-02)",
		formatVersion(BuildInfo{Version: "1.2.0", Commit: "abc123", Date: "2026-01-02"}))
}

func TestReadInstruction(t *testing.T) {
	t.Parallel()

	got, err := readInstruction([]string{"fix", "the", "build"}, strings.NewReader("ignored"))
	require.NoError(t, err)
	assert.Equal(t, "fix the build", got)

	got, err = readInstruction([]string{"-"}, strings.NewReader("\n  line one\nline two  \n"))
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", got)

	_, err = readInstruction([]string{" ", ""}, strings.NewReader(""))
	require.ErrorIs(t, err, errors.ErrEmptyValue)
}

func TestSelectLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, zerolog.DebugLevel, selectLevel(true, false))
	assert.Equal(t, zerolog.WarnLevel, selectLevel(false, true))
	assert.Equal(t, zerolog.InfoLevel, selectLevel(false, false))
}

func TestInitLoggerWithWriter_MarksSecrets(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := InitLoggerWithWriter(false, false, &buf)
	logger.Info().Msg("using key sk-ant-REDACTED")
	logger.Debug().Msg("hidden")

	out := buf.String()
	assert.Contains(t, out, `"contains_filtered_data":true`)
	assert.Contains(t, out, `"ts":`)
	assert.NotContains(t, out, "hidden")
}
