// Package config provides configuration management for cadence with layered precedence.
//
// Configuration sources are loaded in the following order (highest precedence first):
//  1. CLI flags (passed via ApplyOverrides)
//  2. Environment variables (CADENCE_* prefix)
//  3. Project config (<repo>/.cadence/config.yaml)
//  4. Global config (~/.cadence/config.yaml)
//  5. Built-in defaults
//
// Each higher level completely overrides the lower level for the same key.
// Unknown keys in either file are rejected.
//
// IMPORTANT: This package may import internal/constants and internal/errors,
// but MUST NOT import internal/domain or other internal packages.
package config

import "time"

// Config is the root configuration structure for cadence.
type Config struct {
	// Role describes who the loop is working as and how often it ticks.
	Role RoleConfig `yaml:"role" mapstructure:"role"`

	// Queue contains settings for the pending-instruction queue.
	Queue QueueConfig `yaml:"queue" mapstructure:"queue"`

	// Synthesizer contains settings for payload synthesis.
	Synthesizer SynthesizerConfig `yaml:"synthesizer" mapstructure:"synthesizer"`

	// Executor contains settings for the component that performs tasks.
	Executor ExecutorConfig `yaml:"executor" mapstructure:"executor"`

	// Journal contains settings for the SQLite tick journal.
	Journal JournalConfig `yaml:"journal" mapstructure:"journal"`

	// Events contains settings for the progress event bus.
	Events EventsConfig `yaml:"events" mapstructure:"events"`

	// Recovery contains settings for startup recovery.
	Recovery RecoveryConfig `yaml:"recovery" mapstructure:"recovery"`
}

// RoleConfig describes the role the loop plays in the repository.
type RoleConfig struct {
	// Name identifies the role in prompts and state. Required to run ticks.
	Name string `yaml:"name" mapstructure:"name"`

	// TickInterval is the time between two scheduled ticks.
	// Default: 10m
	TickInterval time.Duration `yaml:"tick_interval" mapstructure:"tick_interval" validate:"min=1s"`

	// Description is a free-form brief included in autonomous prompts.
	Description string `yaml:"description" mapstructure:"description"`
}

// QueueConfig contains settings for the priority queue.
type QueueConfig struct {
	// MaxSize is the maximum number of pending instructions.
	// Default: 1000
	MaxSize int `yaml:"max_size" mapstructure:"max_size" validate:"min=1,max=100000"`
}

// SynthesizerConfig contains settings for task payload synthesis.
type SynthesizerConfig struct {
	// HistoryWindow is how many recent tasks an autonomous prompt includes.
	HistoryWindow int `yaml:"history_window" mapstructure:"history_window" validate:"min=0,max=50"`

	// PromptTruncate caps each quoted history prompt, in characters.
	PromptTruncate int `yaml:"prompt_truncate" mapstructure:"prompt_truncate" validate:"min=10,max=10000"`

	// NotesFile is the progress notes path, relative to the repository root.
	NotesFile string `yaml:"notes_file" mapstructure:"notes_file"`

	// RepoContext adds the git branch, uncommitted changes and recent commits
	// to autonomous prompts. Default: true
	RepoContext bool `yaml:"repo_context" mapstructure:"repo_context"`

	// RecentCommits is how many commits the repository section lists.
	RecentCommits int `yaml:"recent_commits" mapstructure:"recent_commits" validate:"min=0,max=50"`
}

// ExecutorConfig contains settings for the executor.
type ExecutorConfig struct {
	// Agent selects the executor: "claude" or "stub".
	Agent string `yaml:"agent" mapstructure:"agent" validate:"oneof=claude stub"`

	// Model is passed to the Claude CLI as --model when set.
	Model string `yaml:"model" mapstructure:"model"`

	// Timeout bounds a single executor call.
	// Default: 30m
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gt=0s"`

	// MaxBudgetUSD is passed as --max-budget-usd when positive.
	MaxBudgetUSD float64 `yaml:"max_budget_usd" mapstructure:"max_budget_usd" validate:"gte=0"`

	// PermissionMode is passed as --permission-mode when set.
	PermissionMode string `yaml:"permission_mode" mapstructure:"permission_mode"`

	// MaxAttempts is how many times a transient failure is tried.
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts" validate:"min=1,max=10"`
}

// JournalConfig contains settings for the tick journal.
type JournalConfig struct {
	// Enabled turns the journal on. Default: true
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Path is the SQLite file, relative to the repository root.
	Path string `yaml:"path" mapstructure:"path" validate:"required_if=Enabled true"`
}

// EventsConfig contains settings for the progress event bus.
type EventsConfig struct {
	// BufferSize is the per-subscriber buffer. Full buffers drop their oldest event.
	BufferSize int `yaml:"buffer_size" mapstructure:"buffer_size" validate:"min=1,max=10000"`
}

// RecoveryConfig contains settings for startup recovery.
type RecoveryConfig struct {
	// StalePolicy decides what happens to a task left running by a dead process:
	// "interrupt" records it as interrupted, "ignore" leaves it.
	StalePolicy string `yaml:"stale_policy" mapstructure:"stale_policy" validate:"oneof=interrupt ignore"`
}
