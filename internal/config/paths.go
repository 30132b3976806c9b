package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mrz1836/cadence/internal/constants"
	"github.com/mrz1836/cadence/internal/errors"
)

// GlobalConfigDir returns the path to the global cadence directory (~/.cadence).
//
// Returns an error if the home directory cannot be determined.
func GlobalConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, constants.StateDir), nil
}

// GlobalConfigPath returns the full path to the global configuration file.
func GlobalConfigPath() (string, error) {
	dir, err := GlobalConfigDir()
	if err != nil {
		return "", fmt.Errorf("get global config path: %w", err)
	}
	return filepath.Join(dir, constants.ConfigFileName), nil
}

// StateDir returns <repoRoot>/.cadence.
func StateDir(repoRoot string) string {
	return filepath.Join(repoRoot, constants.StateDir)
}

// ProjectConfigPath returns <repoRoot>/.cadence/config.yaml.
func ProjectConfigPath(repoRoot string) string {
	return filepath.Join(StateDir(repoRoot), constants.ConfigFileName)
}

// ResolvePath makes p absolute against repoRoot unless it already is.
func ResolvePath(repoRoot, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(repoRoot, p)
}
