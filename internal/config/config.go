// Package config loads server configuration from an optional YAML
// file with environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Game    GameConfig    `mapstructure:"game"`
	AI      AIConfig      `mapstructure:"ai"`
	Archive ArchiveConfig `mapstructure:"archive"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig configures the transport listeners.
type ServerConfig struct {
	WebSocket WebSocketConfig `mapstructure:"websocket"`
}

// WebSocketConfig configures the websocket gateway.
type WebSocketConfig struct {
	Address string `mapstructure:"address"`
	Path    string `mapstructure:"path"`
}

// GameConfig configures orchestrator pacing.
type GameConfig struct {
	PausePoll        time.Duration `mapstructure:"pause_poll"`
	AnnounceDelay    time.Duration `mapstructure:"announce_delay"`
	ReminderInterval time.Duration `mapstructure:"reminder_interval"`
}

// AIConfig configures the decision provider for automated seats.
type AIConfig struct {
	// Provider selects "scripted" or "openai".
	Provider       string `mapstructure:"provider"`
	CompletionsURL string `mapstructure:"completions_url"`
	Model          string `mapstructure:"model"`
	APIKey         string `mapstructure:"api_key"`
}

// ArchiveConfig configures the optional completed-game archive.
type ArchiveConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	DatabaseURL string `mapstructure:"database_url"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from the given file (optional) and the
// WEREWOLF_* environment, applying defaults for everything else.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.websocket.address", ":8081")
	v.SetDefault("server.websocket.path", "/ws")
	v.SetDefault("game.pause_poll", "200ms")
	v.SetDefault("game.announce_delay", "600ms")
	v.SetDefault("game.reminder_interval", "30s")
	v.SetDefault("ai.provider", "scripted")
	v.SetDefault("ai.completions_url", "")
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.database_url", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetEnvPrefix("WEREWOLF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	switch cfg.AI.Provider {
	case "scripted", "openai":
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.AI.Provider)
	}

	return &cfg, nil
}
