// Package config loads the framework configuration from an optional
// YAML file with environment variable overrides (S8R_ prefix).
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration.
type Config struct {
	LogLevel  string          `yaml:"log_level" env:"LOG_LEVEL"`
	HTTP      HTTPConfig      `yaml:"http" envPrefix:"HTTP_"`
	Redis     RedisConfig     `yaml:"redis" envPrefix:"REDIS_"`
	Migration MigrationConfig `yaml:"migration" envPrefix:"MIGRATION_"`
}

// HTTPConfig configures the HTTP API server.
type HTTPConfig struct {
	Addr            string        `yaml:"addr" env:"ADDR"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// RedisConfig configures the optional Redis persistence backend. When
// Addr is empty the in-memory adapters are used.
type RedisConfig struct {
	Addr     string        `yaml:"addr" env:"ADDR"`
	Password string        `yaml:"password" env:"PASSWORD"`
	DB       int           `yaml:"db" env:"DB"`
	Prefix   string        `yaml:"prefix" env:"PREFIX"`
	TTL      time.Duration `yaml:"ttl" env:"TTL"`
	Lock     bool          `yaml:"lock" env:"LOCK"`
}

// MigrationConfig configures legacy tube migration.
type MigrationConfig struct {
	// TerminationDelay is how long a migrated tube lives before
	// terminating itself unless the delay is extended.
	TerminationDelay time.Duration `yaml:"termination_delay" env:"TERMINATION_DELAY"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel: "info",
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Redis: RedisConfig{
			Prefix: "s8r:",
		},
		Migration: MigrationConfig{
			TerminationDelay: 60 * time.Second,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path
// (if non-empty), then S8R_* environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "S8R_"}); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if _, err := cfg.SlogLevel(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SlogLevel converts the configured log level to a slog.Level.
func (c Config) SlogLevel() (slog.Level, error) {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", c.LogLevel)
	}
}

// RedisEnabled reports whether a Redis backend is configured.
func (c Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}
