package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Config Loading Tests
// =============================================================================

func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "VINECTL_") {
			key := strings.SplitN(kv, "=", 2)[0]
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
}

func TestLoadConfig_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "", cfg.Docker.Host)
	assert.Equal(t, "docker-compose.yml", cfg.Compose.File)
	assert.Equal(t, "watchvine", cfg.Compose.Project)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 5*time.Second, cfg.Health.Interval)
	assert.Equal(t, 60*time.Second, cfg.Health.Timeout)
	assert.False(t, cfg.History.Enabled)
	assert.Equal(t, "./data/vinectl.db", cfg.History.DSN)
	assert.Equal(t, "watch_bot", cfg.Copy.Container)
	assert.Empty(t, cfg.Cleanup.Targets)
}

func TestLoadConfig_FromFile(t *testing.T) {
	clearEnv(t)

	configContent := `
docker:
  host: "unix:///custom/docker.sock"

compose:
  file: "stack.yml"
  project: "watchvine-staging"

log:
  level: "debug"
  format: "json"

health:
  interval: 2s
  timeout: 90s

history:
  enabled: true
  dsn: "/tmp/runs.db"

copy:
  container: "watch_search_api"
  files:
    - local: "./config/rules.yml"
      remote: "/app/rules.yml"

cleanup:
  targets:
    - kind: directory
      target: "./downloads"
    - kind: volume
      target: "watch_db_data"
      destructive: true
`
	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(configContent), 0644))

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)

	assert.Equal(t, "unix:///custom/docker.sock", cfg.Docker.Host)
	assert.Equal(t, "stack.yml", cfg.Compose.File)
	assert.Equal(t, "watchvine-staging", cfg.Compose.Project)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 2*time.Second, cfg.Health.Interval)
	assert.Equal(t, 90*time.Second, cfg.Health.Timeout)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, "/tmp/runs.db", cfg.History.DSN)
	assert.Equal(t, "watch_search_api", cfg.Copy.Container)

	require.Len(t, cfg.Copy.Files, 1)
	assert.Equal(t, "./config/rules.yml", cfg.Copy.Files[0].Local)
	assert.Equal(t, "/app/rules.yml", cfg.Copy.Files[0].Remote)

	require.Len(t, cfg.Cleanup.Targets, 2)
	assert.Equal(t, "directory", cfg.Cleanup.Targets[0].Kind)
	assert.False(t, cfg.Cleanup.Targets[0].Destructive)
	assert.Equal(t, "watch_db_data", cfg.Cleanup.Targets[1].Target)
	assert.True(t, cfg.Cleanup.Targets[1].Destructive)
}

func TestLoadConfig_EnvironmentOverride(t *testing.T) {
	clearEnv(t)

	t.Setenv("VINECTL_DOCKER_HOST", "tcp://10.0.0.5:2375")
	t.Setenv("VINECTL_COMPOSE_FILE", "other.yml")
	t.Setenv("VINECTL_LOG_LEVEL", "warn")
	t.Setenv("VINECTL_HISTORY_ENABLED", "true")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "tcp://10.0.0.5:2375", cfg.Docker.Host)
	assert.Equal(t, "other.yml", cfg.Compose.File)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.History.Enabled)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "docker-compose.yml", cfg.Compose.File)
}

func TestLoadConfig_InvalidFileFails(t *testing.T) {
	clearEnv(t)

	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte("docker: [not: closed"), 0644))

	_, err := LoadConfig(tmpFile)
	require.Error(t, err)
}

// =============================================================================
// Logger Setup Tests
// =============================================================================

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		format string
	}{
		{"debug text", "debug", "text"},
		{"info json", "info", "json"},
		{"warn alias", "warning", "text"},
		{"unknown level falls back", "verbose", "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Log: LogConfig{Level: tt.level, Format: tt.format}}
			logger := SetupLogger(cfg)
			require.NotNil(t, logger)
		})
	}
}
