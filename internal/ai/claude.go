package ai

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/cadence/internal/config"
	"github.com/mrz1836/cadence/internal/constants"
	"github.com/mrz1836/cadence/internal/ctxutil"
	"github.com/mrz1836/cadence/internal/domain"
	"github.com/mrz1836/cadence/internal/errors"
)

// claudeCLIInfo contains Claude-specific CLI metadata for error messages.
//
//nolint:gochecknoglobals // Constant-like structure
var claudeCLIInfo = CLIInfo{
	Name:        "claude",
	InstallHint: "please install claude code",
	ErrType:     errors.ErrClaudeInvocation,
	EnvVar:      "ANTHROPIC_API_KEY",
}

// ClaudeExecutor runs tasks through the Claude Code CLI in print mode,
// passing the payload on stdin and parsing the JSON result.
type ClaudeExecutor struct {
	cfg      *config.ExecutorConfig
	executor CommandExecutor
	logger   zerolog.Logger
	binary   string
}

// ClaudeOption is a functional option for configuring ClaudeExecutor.
type ClaudeOption func(*ClaudeExecutor)

// WithClaudeLogger sets the logger for the ClaudeExecutor.
func WithClaudeLogger(logger zerolog.Logger) ClaudeOption {
	return func(e *ClaudeExecutor) {
		e.logger = logger
	}
}

// WithClaudeBinary overrides the CLI executable name.
func WithClaudeBinary(name string) ClaudeOption {
	return func(e *ClaudeExecutor) {
		if name != "" {
			e.binary = name
		}
	}
}

// NewClaudeExecutor creates a ClaudeExecutor. If executor is nil, a
// DefaultExecutor is used for production subprocess execution.
func NewClaudeExecutor(cfg *config.ExecutorConfig, executor CommandExecutor, opts ...ClaudeOption) *ClaudeExecutor {
	if executor == nil {
		executor = &DefaultExecutor{}
	}
	if cfg == nil {
		cfg = &config.DefaultConfig().Executor
	}
	e := &ClaudeExecutor{
		cfg:      cfg,
		executor: executor,
		logger:   zerolog.Nop(),
		binary:   "claude",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs payload under a per-call timeout, retrying transient failures.
// When ctx is canceled the subprocess is killed and ctx.Err() is returned.
func (e *ClaudeExecutor) Execute(ctx context.Context, payload string, role domain.RoleContext) (*domain.Outcome, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}
	if err := validateWorkingDir(role.RepositoryPath); err != nil {
		return nil, err
	}

	timeout := e.resolveTimeout()
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	outcome, err := e.runWithRetry(runCtx, payload, role)
	if err != nil {
		// Parent cancellation wins over everything else.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if runCtx.Err() != nil {
			return nil, fmt.Errorf("%w: timed out after %s", errors.ErrClaudeInvocation, timeout)
		}
		return nil, err
	}
	return outcome, nil
}

func (e *ClaudeExecutor) resolveTimeout() time.Duration {
	if e.cfg.Timeout > 0 {
		return e.cfg.Timeout
	}
	return constants.DefaultExecutorTimeout
}

func (e *ClaudeExecutor) maxAttempts() int {
	if e.cfg.MaxAttempts > 0 {
		return e.cfg.MaxAttempts
	}
	return 1
}

// runWithRetry executes with exponential backoff. Only transient errors are retried.
func (e *ClaudeExecutor) runWithRetry(ctx context.Context, payload string, role domain.RoleContext) (*domain.Outcome, error) {
	var lastErr error
	backoff := constants.InitialBackoff
	attempts := e.maxAttempts()

	for attempt := 1; attempt <= attempts; attempt++ {
		outcome, err := e.execute(ctx, payload, role)
		if err == nil {
			if attempt > 1 {
				e.logger.Info().
					Int("attempt", attempt).
					Msg("claude invocation succeeded after retry")
			}
			return outcome, nil
		}

		if !isRetryable(err) {
			return nil, err
		}

		lastErr = err
		if attempt < attempts {
			e.logger.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_attempts", attempts).
				Dur("backoff", backoff).
				Msg("claude invocation failed, will retry after backoff")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-timeSleep(backoff):
				backoff *= constants.BackoffMultiplier
			}
		}
	}

	if attempts == 1 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("%w: max retries exceeded: %w", errors.ErrClaudeInvocation, lastErr)
}

// execute performs a single CLI invocation.
func (e *ClaudeExecutor) execute(ctx context.Context, payload string, role domain.RoleContext) (*domain.Outcome, error) {
	cmd := e.buildCommand(ctx, role)
	cmd.Stdin = strings.NewReader(payload)

	e.logger.Debug().
		Str("role", role.Name).
		Int("cycle", role.CycleNumber).
		Strs("args", cmd.Args[1:]).
		Msg("invoking claude")

	stdout, stderr, err := e.executor.Execute(ctx, cmd)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// A JSON error response on a non-zero exit is a reported failure, not a raise.
		if outcome, ok := e.tryParseErrorResponse(err, stdout, stderr); ok {
			return outcome, nil
		}
		return nil, WrapCLIExecutionError(claudeCLIInfo, err, stderr)
	}

	resp, err := parseClaudeResponse(stdout)
	if err != nil {
		return nil, err
	}
	return resp.toOutcome(string(stderr)), nil
}

func (e *ClaudeExecutor) tryParseErrorResponse(execErr error, stdout, stderr []byte) (*domain.Outcome, bool) {
	if len(stdout) == 0 {
		return nil, false
	}
	resp, err := parseClaudeResponse(stdout)
	if err != nil || !resp.IsError {
		return nil, false
	}
	outcome := resp.toOutcome(string(stderr))
	outcome.Errors = append(outcome.Errors, execErr.Error())
	return outcome, true
}

// buildCommand constructs the claude CLI command with appropriate flags.
func (e *ClaudeExecutor) buildCommand(ctx context.Context, role domain.RoleContext) *exec.Cmd {
	args := []string{
		"-p", // Print mode (non-interactive)
		"--output-format", "json",
	}

	model := e.cfg.Model
	if model == "" {
		model = domain.AgentClaude.DefaultModel()
	}
	args = append(args, "--model", model)

	if e.cfg.MaxBudgetUSD > 0 {
		args = append(args, "--max-budget-usd", fmt.Sprintf("%.2f", e.cfg.MaxBudgetUSD))
	}
	if e.cfg.PermissionMode != "" {
		args = append(args, "--permission-mode", e.cfg.PermissionMode)
	}

	cmd := exec.CommandContext(ctx, e.binary, args...)
	cmd.WaitDelay = constants.ProcessWaitDelay
	if role.RepositoryPath != "" {
		cmd.Dir = role.RepositoryPath
	}
	return cmd
}

// validateWorkingDir fails fast when the repository path is gone.
func validateWorkingDir(dir string) error {
	if dir == "" {
		return nil
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: working directory missing: %s", errors.ErrClaudeInvocation, dir)
	}
	return nil
}

// Compile-time check that ClaudeExecutor implements Executor.
var _ Executor = (*ClaudeExecutor)(nil)
