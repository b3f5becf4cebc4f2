// Package config loads desk-memory settings from defaults, an optional YAML
// file and DESK_MEMORY_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adhocore/gronx"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is the full configuration.
type Config struct {
	DBPath          string        `yaml:"db_path" env:"DESK_MEMORY_DB"`
	IDScheme        string        `yaml:"id_scheme" env:"DESK_MEMORY_ID_SCHEME"`
	RefreshSchedule string        `yaml:"refresh_schedule" env:"DESK_MEMORY_REFRESH_SCHEDULE"`
	Limits          LimitsConfig  `yaml:"limits"`
	Logging         LoggingConfig `yaml:"logging"`
}

// LimitsConfig caps the bounded tiers.
type LimitsConfig struct {
	MaxMessages    int `yaml:"max_messages" env:"DESK_MEMORY_MAX_MESSAGES"`
	MaxActiveApps  int `yaml:"max_active_apps" env:"DESK_MEMORY_MAX_ACTIVE_APPS"`
	MaxRecentTasks int `yaml:"max_recent_tasks" env:"DESK_MEMORY_MAX_RECENT_TASKS"`
	MaxUsageEvents int `yaml:"max_usage_events" env:"DESK_MEMORY_MAX_USAGE_EVENTS"`
}

// LoggingConfig selects the log level, encoding and destination.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"DESK_MEMORY_LOG_LEVEL"`
	Format string `yaml:"format" env:"DESK_MEMORY_LOG_FORMAT"`
	Output string `yaml:"output" env:"DESK_MEMORY_LOG_OUTPUT"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DBPath:          filepath.Join(homeDir(), ".desk-memory", "memory.db"),
		IDScheme:        "ulid",
		RefreshSchedule: "* * * * *",
		Limits: LimitsConfig{
			MaxMessages:    50,
			MaxActiveApps:  20,
			MaxRecentTasks: 10,
			MaxUsageEvents: 100,
		},
		Logging: DefaultLoggingConfig(),
	}
}

// DefaultLoggingConfig logs warnings and above as text on stderr.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{Level: "warn", Format: "text", Output: "stderr"}
}

// DefaultPath is where Load looks when no file is given.
func DefaultPath() string {
	return filepath.Join(homeDir(), ".desk-memory", "config.yaml")
}

// Load reads path over the defaults and applies environment overrides. A
// missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.DBPath = expandHome(cfg.DBPath)
	cfg.Logging.Output = expandHome(cfg.Logging.Output)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DBPath) == "" {
		return errors.New("config: db_path is required")
	}
	switch c.IDScheme {
	case "ulid", "uuid":
	default:
		return fmt.Errorf("config: unknown id_scheme %q (must be ulid or uuid)", c.IDScheme)
	}
	limits := []struct {
		name string
		v    int
	}{
		{"max_messages", c.Limits.MaxMessages},
		{"max_active_apps", c.Limits.MaxActiveApps},
		{"max_recent_tasks", c.Limits.MaxRecentTasks},
		{"max_usage_events", c.Limits.MaxUsageEvents},
	}
	for _, l := range limits {
		if l.v <= 0 {
			return fmt.Errorf("config: limits.%s must be positive, got %d", l.name, l.v)
		}
	}
	g := gronx.New()
	if !g.IsValid(c.RefreshSchedule) {
		return fmt.Errorf("config: invalid refresh_schedule %q", c.RefreshSchedule)
	}
	return nil
}

func homeDir() string {
	home, _ := os.UserHomeDir()
	return home
}

func expandHome(p string) string {
	if p == "~" {
		return homeDir()
	}
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(homeDir(), p[2:])
	}
	return p
}
