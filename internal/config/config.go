// ABOUTME: Configuration loading and parsing for guildkeeper
// ABOUTME: YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete guildkeeper configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Chat      ChatConfig      `yaml:"chat"`
	Bridges   BridgesConfig   `yaml:"bridges"`
	Reminders RemindersConfig `yaml:"reminders"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds the event intake listener address.
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ChatConfig holds the chat platform API configuration. BotUserID is the
// bot's own user id on the platform; the bridge manager uses it to avoid
// relaying its own forwards.
type ChatConfig struct {
	APIBaseURL string `yaml:"api_base_url"`
	Token      string `yaml:"token"`
	BotUserID  uint64 `yaml:"bot_user_id"`
}

// BridgesConfig holds bridge relation limits.
type BridgesConfig struct {
	MaxPerGuild int `yaml:"max_per_guild"`
}

// RemindersConfig holds reminder scheduler tuning.
type RemindersConfig struct {
	Interval   time.Duration `yaml:"-"`
	MaxHorizon time.Duration `yaml:"-"`
	MaxPerUser int           `yaml:"max_per_user"`

	// Raw string values for YAML unmarshaling
	IntervalRaw   string `yaml:"interval"`
	MaxHorizonRaw string `yaml:"max_horizon"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a
// parsed Config. Environment variables in the format ${VAR_NAME} are
// expanded. Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding
// environment variable values. Unset variables become empty strings.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Chat.APIBaseURL == "" {
		return fmt.Errorf("chat.api_base_url is required")
	}
	if c.Chat.Token == "" {
		return fmt.Errorf("chat.token is required")
	}
	if c.Chat.BotUserID == 0 {
		return fmt.Errorf("chat.bot_user_id is required")
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration
// values.
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Reminders.IntervalRaw != "" {
		cfg.Reminders.Interval, err = time.ParseDuration(cfg.Reminders.IntervalRaw)
		if err != nil {
			return fmt.Errorf("parsing interval %q: %w", cfg.Reminders.IntervalRaw, err)
		}
	}

	if cfg.Reminders.MaxHorizonRaw != "" {
		cfg.Reminders.MaxHorizon, err = time.ParseDuration(cfg.Reminders.MaxHorizonRaw)
		if err != nil {
			return fmt.Errorf("parsing max_horizon %q: %w", cfg.Reminders.MaxHorizonRaw, err)
		}
	}

	return nil
}
