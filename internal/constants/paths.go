package constants

// Log file names.
const (
	// CLILogFileName is the rotating log file written under <repo>/.cadence/logs.
	CLILogFileName = "cadence.log"
)

// Configuration file names.
const (
	// ConfigFileName is the name of both the global (~/.cadence/config.yaml)
	// and the project (<repo>/.cadence/config.yaml) configuration files.
	ConfigFileName = "config.yaml"

	// EnvPrefix is the prefix of environment variable overrides (CADENCE_ROLE_NAME, ...).
	EnvPrefix = "CADENCE"
)

// Inbox file handling.
const (
	// RejectedSuffix is appended to inbox files refused because the queue is full.
	RejectedSuffix = ".rejected"
)

// InboxExtensions lists the file extensions accepted as instructions.
func InboxExtensions() []string {
	return []string{".md", ".txt"}
}
