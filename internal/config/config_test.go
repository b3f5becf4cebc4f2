package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.Limits, cfg.Limits)
	assert.Equal(t, "ulid", cfg.IDScheme)
	assert.Equal(t, "* * * * *", cfg.RefreshSchedule)
	assert.Equal(t, filepath.Base(def.DBPath), filepath.Base(cfg.DBPath))
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
db_path: /tmp/desk/memory.db
id_scheme: uuid
refresh_schedule: "*/5 * * * *"
limits:
  max_messages: 30
logging:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/desk/memory.db", cfg.DBPath)
	assert.Equal(t, "uuid", cfg.IDScheme)
	assert.Equal(t, "*/5 * * * *", cfg.RefreshSchedule)
	assert.Equal(t, 30, cfg.Limits.MaxMessages)
	assert.Equal(t, 20, cfg.Limits.MaxActiveApps, "unset fields keep their defaults")
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "stderr", cfg.Logging.Output)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "db_path: /tmp/from-file.db\nlimits:\n  max_usage_events: 40\n")
	t.Setenv("DESK_MEMORY_DB", "/tmp/from-env.db")
	t.Setenv("DESK_MEMORY_MAX_USAGE_EVENTS", "75")
	t.Setenv("DESK_MEMORY_LOG_LEVEL", "error")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-env.db", cfg.DBPath)
	assert.Equal(t, 75, cfg.Limits.MaxUsageEvents)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestExpandHome(t *testing.T) {
	t.Setenv("DESK_MEMORY_DB", "~/memories/desk.db")
	cfg, err := Load("")
	require.NoError(t, err)
	home, _ := os.UserHomeDir()
	assert.Equal(t, filepath.Join(home, "memories", "desk.db"), cfg.DBPath)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero messages", func(c *Config) { c.Limits.MaxMessages = 0 }},
		{"negative apps", func(c *Config) { c.Limits.MaxActiveApps = -1 }},
		{"zero usage events", func(c *Config) { c.Limits.MaxUsageEvents = 0 }},
		{"unknown id scheme", func(c *Config) { c.IDScheme = "snowflake" }},
		{"bad cron", func(c *Config) { c.RefreshSchedule = "every minute" }},
		{"empty db path", func(c *Config) { c.DBPath = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeFile(t, "limits: [not, a, map]\n")
	_, err := Load(path)
	assert.Error(t, err)
}
