package ai

import (
	"fmt"
	"strings"
)

// CLIInfo contains CLI-specific information for error messages.
type CLIInfo struct {
	Name        string // CLI command name
	InstallHint string // Installation instructions
	ErrType     error  // Sentinel error for this CLI
	EnvVar      string // API key environment variable name
}

// WrapCLIExecutionError classifies a failed CLI run as a missing binary, a
// credentials problem, or a generic failure, always wrapping info.ErrType.
func WrapCLIExecutionError(info CLIInfo, err error, stderr []byte) error {
	stderrStr := strings.TrimSpace(string(stderr))
	lower := strings.ToLower(stderrStr)

	if strings.Contains(lower, "command not found") ||
		strings.Contains(err.Error(), "executable file not found") {
		return fmt.Errorf("%w: %s CLI not found - %s", info.ErrType, info.Name, info.InstallHint)
	}

	if containsAny(lower, "api key", "authentication") ||
		(info.EnvVar != "" && strings.Contains(stderrStr, info.EnvVar)) {
		return fmt.Errorf("%w: API key error: %s", info.ErrType, stderrStr)
	}

	if stderrStr != "" {
		return fmt.Errorf("%w: %s", info.ErrType, stderrStr)
	}
	return fmt.Errorf("%w: %s", info.ErrType, err.Error())
}
