// Package git reads the state of the repository cadence works in, so
// autonomous prompts can describe where the work stands.
//
// It only reads. Commits, pushes and branch changes are the executor's job.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	cadenceerrors "github.com/mrz1836/cadence/internal/errors"
)

// RunCommand runs git with args in workDir and returns trimmed stdout.
// Cancellation returns ctx.Err(); any other failure wraps ErrGitOperation
// and carries git's stderr when there is any.
func RunCommand(ctx context.Context, workDir string, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "git", args...) //#nosec G204 -- args are fixed subcommands
	cmd.Dir = workDir
	cmd.Stdout, cmd.Stderr = &stdout, &stderr

	err := cmd.Run()
	switch {
	case err == nil:
		return strings.TrimSpace(stdout.String()), nil
	case ctx.Err() != nil:
		return "", ctx.Err()
	}

	sub := strings.Join(args, " ")
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		return "", fmt.Errorf("%w: git %s: %s", cadenceerrors.ErrGitOperation, sub, msg)
	}
	return "", fmt.Errorf("%w: git %s: %w", cadenceerrors.ErrGitOperation, sub, err)
}
