package config

import (
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/mrz1836/cadence/internal/constants"
)

// DefaultConfig returns a new Config with default values.
// These match the values registered by setDefaults.
func DefaultConfig() *Config {
	return &Config{
		Role: RoleConfig{
			TickInterval: constants.DefaultTickInterval,
		},
		Queue: QueueConfig{
			MaxSize: constants.DefaultMaxQueueSize,
		},
		Synthesizer: SynthesizerConfig{
			HistoryWindow:  constants.DefaultHistoryWindow,
			PromptTruncate: constants.DefaultPromptTruncate,
			NotesFile:      filepath.Join(constants.StateDir, constants.NotesFileName),
			RepoContext:    true,
			RecentCommits:  constants.DefaultRecentCommits,
		},
		Executor: ExecutorConfig{
			Agent:       constants.DefaultAgent,
			Timeout:     constants.DefaultExecutorTimeout,
			MaxAttempts: constants.DefaultExecutorAttempts,
		},
		Journal: JournalConfig{
			Enabled: true,
			Path:    filepath.Join(constants.StateDir, constants.JournalFileName),
		},
		Events: EventsConfig{
			BufferSize: constants.DefaultEventBuffer,
		},
		Recovery: RecoveryConfig{
			StalePolicy: "interrupt",
		},
	}
}

// setDefaults registers every key on v. Keys must match the mapstructure tags;
// registering them is also what lets CADENCE_* variables bind.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("role.name", "")
	v.SetDefault("role.tick_interval", d.Role.TickInterval.String())
	v.SetDefault("role.description", "")

	v.SetDefault("queue.max_size", d.Queue.MaxSize)

	v.SetDefault("synthesizer.history_window", d.Synthesizer.HistoryWindow)
	v.SetDefault("synthesizer.prompt_truncate", d.Synthesizer.PromptTruncate)
	v.SetDefault("synthesizer.notes_file", d.Synthesizer.NotesFile)
	v.SetDefault("synthesizer.repo_context", d.Synthesizer.RepoContext)
	v.SetDefault("synthesizer.recent_commits", d.Synthesizer.RecentCommits)

	v.SetDefault("executor.agent", d.Executor.Agent)
	v.SetDefault("executor.model", "")
	v.SetDefault("executor.timeout", d.Executor.Timeout.String())
	v.SetDefault("executor.max_budget_usd", 0.0)
	v.SetDefault("executor.permission_mode", "")
	v.SetDefault("executor.max_attempts", d.Executor.MaxAttempts)

	v.SetDefault("journal.enabled", d.Journal.Enabled)
	v.SetDefault("journal.path", d.Journal.Path)

	v.SetDefault("events.buffer_size", d.Events.BufferSize)

	v.SetDefault("recovery.stale_policy", d.Recovery.StalePolicy)
}
