package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// =============================================================================
// Config Types
// =============================================================================

// Config holds all application configuration.
type Config struct {
	Docker  DockerConfig  `mapstructure:"docker"`
	Compose ComposeConfig `mapstructure:"compose"`
	Log     LogConfig     `mapstructure:"log"`
	Health  HealthConfig  `mapstructure:"health"`
	History HistoryConfig `mapstructure:"history"`
	Copy    CopyConfig    `mapstructure:"copy"`
	Cleanup CleanupConfig `mapstructure:"cleanup"`
}

// DockerConfig holds Docker client configuration.
type DockerConfig struct {
	Host string `mapstructure:"host"`
}

// ComposeConfig locates the compose file the stack is defined in.
type ComposeConfig struct {
	File    string `mapstructure:"file"`
	Project string `mapstructure:"project"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// HealthConfig holds default health polling parameters, used by services
// that declare a health URL without their own timeout or interval.
type HealthConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// HistoryConfig holds run history configuration. History is opt-in: with
// Enabled false no database is ever opened.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

// CopyConfig holds the artifact copy configuration for copy-files.
type CopyConfig struct {
	// Container is the default copy target container name.
	Container string `mapstructure:"container"`

	Files []CopyFileConfig `mapstructure:"files"`
}

// CopyFileConfig maps one local file to a path inside the container.
type CopyFileConfig struct {
	Local  string `mapstructure:"local"`
	Remote string `mapstructure:"remote"`
}

// CleanupConfig lists the targets a cleanup run may touch.
type CleanupConfig struct {
	Targets []CleanupTargetConfig `mapstructure:"targets"`
}

// CleanupTargetConfig is one configured cleanup target.
type CleanupTargetConfig struct {
	// Kind is "directory", "volume", "container" or "logfile".
	Kind string `mapstructure:"kind"`

	// Target is the path, volume name or container name.
	Target string `mapstructure:"target"`

	// Destructive targets are only touched by a confirmed --full run.
	Destructive bool `mapstructure:"destructive"`
}

// =============================================================================
// Config Loading
// =============================================================================

// LoadConfig loads configuration from file and environment.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("docker.host", "")
	v.SetDefault("compose.file", "docker-compose.yml")
	v.SetDefault("compose.project", "watchvine")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("health.interval", "5s")
	v.SetDefault("health.timeout", "60s")
	v.SetDefault("history.enabled", false)
	v.SetDefault("history.dsn", "./data/vinectl.db")
	v.SetDefault("copy.container", "watch_bot")

	// Load from file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// Only return error if file was explicitly specified and is invalid
			if _, ok := err.(viper.ConfigParseError); ok {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
			// File not found is OK, we'll use defaults
		}
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("VINECTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// =============================================================================
// Logger Setup
// =============================================================================

// SetupLogger creates a logger with the configured level and format. The
// logger writes to stderr: stdout is reserved for the run report.
func SetupLogger(cfg *Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}
