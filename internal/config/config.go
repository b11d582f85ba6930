// Package config loads server and explorer settings from a YAML file,
// with SQUEEZE_ environment variables taking precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every setting of the squeeze server and explorer.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Server   ServerConfig   `mapstructure:"server"`
	Problems ProblemsConfig `mapstructure:"problems"`
	Replay   ReplayConfig   `mapstructure:"replay"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// LoggingConfig selects the zap level and encoder.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig configures the WebSocket play server.
type ServerConfig struct {
	WebSocket   WebSocketConfig `mapstructure:"websocket"`
	MaxSessions int             `mapstructure:"max_sessions"`
}

// WebSocketConfig configures the listener and per-connection limits.
type WebSocketConfig struct {
	Address         string        `mapstructure:"address"`
	ReadLimit       int64         `mapstructure:"read_limit"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	PingInterval    time.Duration `mapstructure:"ping_interval"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// ProblemsConfig points at the problem library.
type ProblemsConfig struct {
	Directory string `mapstructure:"directory"`
}

// ReplayConfig configures transcript persistence and exploration.
type ReplayConfig struct {
	// Store is "file", "postgres", "redis" or "none".
	Store     string `mapstructure:"store"`
	Directory string `mapstructure:"directory"`
	MaxPasses int    `mapstructure:"max_passes"`
}

// DatabaseConfig configures the postgres transcript store.
type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConns       int32         `mapstructure:"max_conns"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// RedisConfig configures the redis transcript store.
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("server.websocket.address", ":8080")
	v.SetDefault("server.websocket.read_limit", 4096)
	v.SetDefault("server.websocket.write_timeout", 10*time.Second)
	v.SetDefault("server.websocket.ping_interval", 54*time.Second)
	v.SetDefault("server.websocket.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.max_sessions", 256)

	v.SetDefault("problems.directory", "problems")

	v.SetDefault("replay.store", "file")
	v.SetDefault("replay.directory", "data/transcripts")
	v.SetDefault("replay.max_passes", 64)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.connect_timeout", 5*time.Second)

	v.SetDefault("redis.url", "")
}

// Load reads path, if it exists, over the defaults. An empty path uses
// defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SQUEEZE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging.format %q", c.Logging.Format)
	}
	if c.Server.WebSocket.Address == "" {
		return errors.New("server.websocket.address is required")
	}
	if c.Server.WebSocket.ReadLimit <= 0 {
		return fmt.Errorf("server.websocket.read_limit must be positive, got %d", c.Server.WebSocket.ReadLimit)
	}
	if c.Server.MaxSessions <= 0 {
		return fmt.Errorf("server.max_sessions must be positive, got %d", c.Server.MaxSessions)
	}
	if c.Problems.Directory == "" {
		return errors.New("problems.directory is required")
	}
	if c.Replay.MaxPasses <= 0 {
		return fmt.Errorf("replay.max_passes must be positive, got %d", c.Replay.MaxPasses)
	}
	switch c.Replay.Store {
	case "none":
	case "file":
		if c.Replay.Directory == "" {
			return errors.New("replay.directory is required for the file store")
		}
	case "postgres":
		if c.Database.URL == "" {
			return errors.New("database.url is required for the postgres store")
		}
	case "redis":
		if c.Redis.URL == "" {
			return errors.New("redis.url is required for the redis store")
		}
	default:
		return fmt.Errorf("invalid replay.store %q", c.Replay.Store)
	}
	return nil
}
