// Package cli provides the command-line interface for cadence.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrz1836/cadence/internal/errors"
	"github.com/mrz1836/cadence/internal/tui"
)

// BuildInfo contains version information set at build time via ldflags.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// app is the per-invocation state shared by every subcommand. It is built by
// the root command's PersistentPreRunE.
type app struct {
	flags     *GlobalFlags
	logger    zerolog.Logger
	logCloser io.Closer
}

// Logger returns the logger initialized for this invocation.
func (a *app) Logger() zerolog.Logger {
	return a.logger
}

// output returns the Output for the selected format, writing to cmd's stdout.
func (a *app) output(cmd *cobra.Command) tui.Output {
	return tui.NewOutput(cmd.OutOrStdout(), a.flags.Output)
}

func (a *app) close() {
	if a.logCloser != nil {
		_ = a.logCloser.Close()
		a.logCloser = nil
	}
}

// newRootCmd creates the root command. Building it in a function keeps
// command state out of package globals and lets tests run commands in
// isolation.
func newRootCmd(flags *GlobalFlags, info BuildInfo) (*cobra.Command, *app) {
	v := viper.New()
	a := &app{flags: flags, logger: zerolog.Nop()}

	cmd := &cobra.Command{
		Use:   "cadence",
		Short: "cadence - an unattended work loop for coding agents",
		Long: `cadence keeps a coding agent busy on a repository. On every tick it takes the
next queued instruction, or, when none is pending, asks the agent to pick the
most valuable next step itself. Every outcome is recorded in .cadence/ so the
loop survives restarts.

Features:
  • Priority queue: human instructions always run before autonomous work
  • Crash-safe lifecycle store with history and running stats
  • Inbox directory for handing work to a running loop
  • SQLite journal of every tick`,
		Version: formatVersion(info),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Bare "cadence" only prints help; it should not create .cadence/.
			if !cmd.HasParent() {
				return nil
			}
			if err := BindGlobalFlags(v, cmd); err != nil {
				return fmt.Errorf("failed to bind flags: %w", err)
			}
			if !IsValidOutputFormat(flags.Output) {
				return fmt.Errorf("%w: %q must be one of %v", errors.ErrInvalidOutputFormat, flags.Output, ValidOutputFormats())
			}

			repo, err := resolveRepo(flags.Repo)
			if err != nil {
				return err
			}
			flags.Repo = repo

			a.logger, a.logCloser = InitLogger(repo, flags.Verbose, flags.Quiet, cmd.ErrOrStderr())
			cmd.SetContext(a.logger.WithContext(cmd.Context()))
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			a.close()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	AddGlobalFlags(cmd, flags)

	AddRunCommand(cmd, a)
	AddTickCommand(cmd, a)
	AddEnqueueCommand(cmd, a)
	AddStatusCommand(cmd, a)
	AddHistoryCommand(cmd, a)
	AddRecoverCommand(cmd, a)

	return cmd, a
}

func formatVersion(info BuildInfo) string {
	if info.Version == "" {
		info.Version = "dev"
	}
	if info.Commit == "" {
		info.Commit = "none"
	}
	if info.Date == "" {
		info.Date = "unknown"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", info.Version, info.Commit, info.Date)
}

// Execute runs the root command and prints any error in the selected output
// format. The returned error is meant for ExitCodeForError.
func Execute(ctx context.Context, info BuildInfo) error {
	flags := &GlobalFlags{}
	cmd, a := newRootCmd(flags, info)
	defer a.close()

	err := cmd.ExecuteContext(ctx)
	if err != nil {
		format := flags.Output
		if !tui.ValidFormat(format) {
			format = tui.FormatText
		}
		tui.NewOutput(cmd.ErrOrStderr(), format).Error(err)
	}
	return err
}
