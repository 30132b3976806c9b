package cli

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrz1836/cadence/internal/constants"
	"github.com/mrz1836/cadence/internal/errors"
	"github.com/mrz1836/cadence/internal/tui"
)

// Exit codes for the CLI.
const (
	ExitSuccess      = 0
	ExitError        = 1
	ExitInvalidInput = 2
)

// GlobalFlags holds flags available to all commands.
type GlobalFlags struct {
	// Repo is the repository cadence manages. Defaults to the working directory.
	Repo string
	// Output is text, json or yaml.
	Output string
	// Verbose enables debug logging.
	Verbose bool
	// Quiet limits logging to warnings and errors.
	Quiet bool
}

// AddGlobalFlags adds the persistent flags to the root command.
func AddGlobalFlags(cmd *cobra.Command, flags *GlobalFlags) {
	cmd.PersistentFlags().StringVarP(&flags.Repo, "repo", "r", "", "repository path (default: current directory)")
	cmd.PersistentFlags().StringVarP(&flags.Output, "output", "o", tui.FormatText, "output format (text|json|yaml)")
	cmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "log warnings and errors only")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
}

// BindGlobalFlags lets CADENCE_OUTPUT, CADENCE_VERBOSE and friends supply
// global flags that were not given on the command line.
func BindGlobalFlags(v *viper.Viper, cmd *cobra.Command) error {
	rootFlags := cmd.Root().PersistentFlags()
	for _, name := range []string{"repo", "output", "verbose", "quiet"} {
		if err := v.BindPFlag(name, rootFlags.Lookup(name)); err != nil {
			return err
		}
	}
	v.SetEnvPrefix(constants.EnvPrefix)
	v.AutomaticEnv()

	for _, name := range []string{"repo", "output"} {
		f := rootFlags.Lookup(name)
		if !f.Changed && v.IsSet(name) {
			if err := f.Value.Set(v.GetString(name)); err != nil {
				return err
			}
		}
	}
	for _, name := range []string{"verbose", "quiet"} {
		f := rootFlags.Lookup(name)
		if !f.Changed && v.GetBool(name) {
			if err := f.Value.Set("true"); err != nil {
				return err
			}
		}
	}
	return nil
}

// ValidOutputFormats lists the accepted --output values.
func ValidOutputFormats() []string {
	return []string{tui.FormatText, tui.FormatJSON, tui.FormatYAML}
}

// IsValidOutputFormat reports whether format is accepted.
func IsValidOutputFormat(format string) bool {
	return slices.Contains(ValidOutputFormats(), format)
}

// resolveRepo returns the absolute repository path, defaulting to the
// working directory.
func resolveRepo(repo string) (string, error) {
	if repo == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
		repo = wd
	}
	abs, err := filepath.Abs(repo)
	if err != nil {
		return "", fmt.Errorf("failed to resolve repository path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", errors.NewExitCode2Error(fmt.Errorf("%w: repository %s is not a directory", errors.ErrEmptyValue, abs))
	}
	return abs, nil
}

// ExitCodeForError maps an error to the process exit code: 0 for nil,
// 2 for invalid input, 1 otherwise.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if errors.IsExitCode2Error(err) ||
		stderrors.Is(err, errors.ErrInvalidOutputFormat) ||
		stderrors.Is(err, errors.ErrConfigInvalid) ||
		stderrors.Is(err, errors.ErrNoRole) {
		return ExitInvalidInput
	}
	if isInvalidInputError(err.Error()) {
		return ExitInvalidInput
	}
	return ExitError
}

// isInvalidInputError catches cobra's own flag and argument errors.
func isInvalidInputError(errMsg string) bool {
	patterns := []string{
		"unknown flag",
		"unknown shorthand flag",
		"flag needs an argument",
		"invalid argument",
		"if any flags in the group",
		"required flag",
		"unknown command",
		"accepts ",
		"requires at least",
	}
	for _, p := range patterns {
		if strings.Contains(errMsg, p) {
			return true
		}
	}
	return false
}
