package config

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/mrz1836/cadence/internal/constants"
	"github.com/mrz1836/cadence/internal/errors"
)

// newViperInstance creates a new Viper instance with defaults, the CADENCE_
// environment prefix, and the "." → "_" key replacer.
func newViperInstance() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// isConfigNotFoundError returns true if the error is a viper config file not found error.
func isConfigNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var configNotFoundErr viper.ConfigFileNotFoundError
	return stderrors.As(err, &configNotFoundErr)
}

// Load reads configuration for the repository at repoRoot from every source,
// then validates it.
func Load(ctx context.Context, repoRoot string) (*Config, error) {
	globalPath, err := GlobalConfigPath()
	if err != nil {
		globalPath = ""
	}
	cfg, err := LoadFromPaths(ctx, ProjectConfigPath(repoRoot), globalPath)
	if err != nil {
		return nil, err
	}

	logger := zerolog.Ctx(ctx).With().Str("component", "config").Logger()
	logger.Debug().
		Str("role.name", cfg.Role.Name).
		Dur("role.tick_interval", cfg.Role.TickInterval).
		Str("executor.agent", cfg.Executor.Agent).
		Dur("executor.timeout", cfg.Executor.Timeout).
		Int("queue.max_size", cfg.Queue.MaxSize).
		Msg("configuration loaded")

	return cfg, nil
}

// LoadFromPaths loads configuration from specific file paths.
// projectConfigPath has higher priority than globalConfigPath. Either may be
// empty or point to a missing file, in which case that layer is skipped.
func LoadFromPaths(_ context.Context, projectConfigPath, globalConfigPath string) (*Config, error) {
	v := newViperInstance()

	// Global first (lower precedence)
	if fileExists(globalConfigPath) {
		v.SetConfigFile(globalConfigPath)
		if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) {
			return nil, errors.Wrapf(err, "failed to read global config: %s", globalConfigPath)
		}
	}

	// Project merges over global
	if fileExists(projectConfigPath) {
		v.SetConfigFile(projectConfigPath)
		if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) {
			return nil, errors.Wrapf(err, "failed to read project config: %s", projectConfigPath)
		}
	}

	return unmarshalAndValidate(v)
}

// unmarshalAndValidate decodes v into a Config, rejecting unknown keys, and validates it.
func unmarshalAndValidate(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption(), rejectUnknownKeys()); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrConfigInvalid, err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// fileExists returns true if a regular file exists at path.
func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// viperDecoderOption returns the decode hooks for string → time.Duration.
func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	)
}

// rejectUnknownKeys makes decoding fail on keys that map to no field.
func rejectUnknownKeys() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.ErrorUnused = true
	}
}

// Overrides holds values from CLI flags. Zero values are ignored.
type Overrides struct {
	RoleName     string
	TickInterval time.Duration
	Agent        string
	Model        string
}

// ApplyOverrides merges non-zero override values into cfg and re-validates.
func ApplyOverrides(cfg *Config, o Overrides) error {
	if cfg == nil {
		return errors.ErrConfigNil
	}
	if o.RoleName != "" {
		cfg.Role.Name = o.RoleName
	}
	if o.TickInterval != 0 {
		cfg.Role.TickInterval = o.TickInterval
	}
	if o.Agent != "" {
		cfg.Executor.Agent = o.Agent
	}
	if o.Model != "" {
		cfg.Executor.Model = o.Model
	}
	return Validate(cfg)
}
