package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/cadence/internal/driver"
	"github.com/mrz1836/cadence/internal/errors"
	"github.com/mrz1836/cadence/internal/tui"
)

// enqueueResult is the machine-readable result of an enqueue.
type enqueueResult struct {
	File    string `json:"file" yaml:"file"`
	Running bool   `json:"running" yaml:"running"`
}

// AddEnqueueCommand adds the enqueue command to the root command.
func AddEnqueueCommand(root *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:   "enqueue <instruction...>",
		Short: "Hand an instruction to the loop",
		Long: `Write an instruction into .cadence/inbox. A running loop picks it up at once
and runs it before any autonomous work; otherwise the next 'cadence run' or
'cadence tick' does.

Pass "-" to read the instruction from stdin.`,
		Example: `  cadence enqueue "Fix the flaky TestParse test"
  git diff | cadence enqueue -`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnqueue(cmd, a, args, time.Now())
		},
	}

	root.AddCommand(cmd)
}

func runEnqueue(cmd *cobra.Command, a *app, args []string, now time.Time) error {
	instruction, err := readInstruction(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	repo := a.flags.Repo
	path, err := driver.Deliver(inboxDir(repo), instruction, now)
	if err != nil {
		return err
	}

	running := lockHeld(repo)
	logger := a.Logger()
	logger.Info().Str("file", path).Bool("running", running).Msg("instruction delivered")

	out := a.output(cmd)
	res := enqueueResult{File: path, Running: running}
	return out.Data(res, func(w io.Writer, s *tui.OutputStyles) {
		_, _ = fmt.Fprintln(w, s.Success.Render("✓ Instruction delivered"))
		if running {
			_, _ = fmt.Fprintln(w, s.Dim.Render("  The running loop will pick it up now."))
		} else {
			_, _ = fmt.Fprintln(w, s.Dim.Render("  No loop is running; it runs on the next 'cadence run' or 'cadence tick'."))
		}
	})
}

// readInstruction joins args, or reads stdin when the only arg is "-".
func readInstruction(args []string, stdin io.Reader) (string, error) {
	var text string
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(data)
	} else {
		text = strings.Join(args, " ")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.NewExitCode2Error(fmt.Errorf("instruction: %w", errors.ErrEmptyValue))
	}
	return text, nil
}
