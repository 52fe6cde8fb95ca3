// Package config provides configuration types and defaults for xrmsync.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. XRMSYNC_DATABASE.
const EnvPrefix = "XRMSYNC"

// Config holds all configuration options for xrmsync.
type Config struct {
	Source   string `mapstructure:"source"`    // directory of CUE declarations
	Solution string `mapstructure:"solution"`  // overrides the declared solution
	Prefix   string `mapstructure:"prefix"`    // overrides the declared publisher prefix
	Database string `mapstructure:"database"`  // remote store path
	DryRun   bool   `mapstructure:"dry_run"`   // plan without writing
	LogLevel string `mapstructure:"log_level"` // debug, info, warn or error
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() Config {
	return Config{
		Source:   ".",
		Database: "xrmsync.db",
		LogLevel: "info",
	}
}

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Level returns the slog level named by LogLevel.
func (c Config) Level() slog.Level {
	if l, ok := levels[strings.ToLower(c.LogLevel)]; ok {
		return l
	}
	return slog.LevelInfo
}

// Validate checks option values.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Database) == "" {
		return errors.New("database path must not be empty")
	}
	if _, ok := levels[strings.ToLower(c.LogLevel)]; !ok {
		return fmt.Errorf("invalid log_level %q: must be debug, info, warn or error", c.LogLevel)
	}
	return nil
}

// Load reads configuration into v and returns it.
//
// Lookup order, later wins: defaults, the config file, XRMSYNC_* environment
// variables, then any flags already bound to v. With an empty path the file
// is ./xrmsync.yaml and may be absent; an explicit path must exist.
func Load(v *viper.Viper, path string) (Config, error) {
	defaults := Defaults()
	v.SetDefault("source", defaults.Source)
	v.SetDefault("solution", defaults.Solution)
	v.SetDefault("prefix", defaults.Prefix)
	v.SetDefault("database", defaults.Database)
	v.SetDefault("dry_run", defaults.DryRun)
	v.SetDefault("log_level", defaults.LogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("xrmsync")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
