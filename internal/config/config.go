// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads casauth settings from defaults, a YAML file and
// command-line flags, in that order of precedence.
package config

import (
	"log/slog"
	"net/url"
	"time"

	"github.com/samber/oops"
)

// Config is the complete casauth configuration.
type Config struct {
	Database     DatabaseConfig     `koanf:"database" json:"database,omitempty" yaml:"database"`
	Log          LogConfig          `koanf:"log" json:"log,omitempty" yaml:"log"`
	Server       ServerConfig       `koanf:"server" json:"server,omitempty" yaml:"server"`
	Registration RegistrationConfig `koanf:"registration" json:"registration,omitempty" yaml:"registration"`
}

// DatabaseConfig holds the account database settings.
type DatabaseConfig struct {
	URL   string      `koanf:"url" json:"url,omitempty" yaml:"url" jsonschema:"description=PostgreSQL connection URL. DATABASE_URL is used when unset."`
	Pool  PoolConfig  `koanf:"pool" json:"pool,omitempty" yaml:"pool"`
	Retry RetryConfig `koanf:"retry" json:"retry,omitempty" yaml:"retry"`
}

// PoolConfig sizes the connection pool.
type PoolConfig struct {
	MinConns int32 `koanf:"min_conns" json:"min_conns,omitempty" yaml:"min_conns" jsonschema:"minimum=0"`
	MaxConns int32 `koanf:"max_conns" json:"max_conns,omitempty" yaml:"max_conns" jsonschema:"minimum=1"`
}

// RetryConfig bounds retries of transient database errors.
type RetryConfig struct {
	MaxAttempts int           `koanf:"max_attempts" json:"max_attempts,omitempty" yaml:"max_attempts" jsonschema:"minimum=1,maximum=10"`
	BaseDelay   time.Duration `koanf:"base_delay" json:"base_delay,omitempty" yaml:"base_delay"`
}

// LogConfig selects the log encoding and threshold.
type LogConfig struct {
	Format string `koanf:"format" json:"format,omitempty" yaml:"format" jsonschema:"enum=json,enum=text"`
	Level  string `koanf:"level" json:"level,omitempty" yaml:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
}

// ServerConfig holds listener addresses for casauth serve.
type ServerConfig struct {
	GRPCAddr    string `koanf:"grpc_addr" json:"grpc_addr,omitempty" yaml:"grpc_addr"`
	MetricsAddr string `koanf:"metrics_addr" json:"metrics_addr,omitempty" yaml:"metrics_addr" jsonschema:"description=Metrics and health listener. Empty disables it."`
}

// RegistrationConfig points users at the account registration site.
type RegistrationConfig struct {
	BaseURL string `koanf:"base_url" json:"base_url,omitempty" yaml:"base_url" jsonschema:"format=uri"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Database: DatabaseConfig{
			Pool:  PoolConfig{MinConns: 6, MaxConns: 18},
			Retry: RetryConfig{MaxAttempts: 3, BaseDelay: 50 * time.Millisecond},
		},
		Log: LogConfig{Format: "json", Level: "info"},
		Server: ServerConfig{
			GRPCAddr:    "127.0.0.1:9400",
			MetricsAddr: "127.0.0.1:9401",
		},
		Registration: RegistrationConfig{BaseURL: "https://localhost:4201"},
	}
}

// Validate checks values the schema cannot express.
func (c *Config) Validate() error {
	switch c.Log.Format {
	case "json", "text":
	default:
		return invalid("log.format", c.Log.Format, "must be json or text")
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	if c.Database.Pool.MinConns < 0 || c.Database.Pool.MaxConns < 1 {
		return invalid("database.pool", c.Database.Pool, "min_conns must be >= 0 and max_conns >= 1")
	}
	if c.Database.Pool.MinConns > c.Database.Pool.MaxConns {
		return invalid("database.pool", c.Database.Pool, "min_conns exceeds max_conns")
	}
	if c.Database.Retry.MaxAttempts < 1 {
		return invalid("database.retry.max_attempts", c.Database.Retry.MaxAttempts, "must be at least 1")
	}
	if c.Database.Retry.BaseDelay <= 0 {
		return invalid("database.retry.base_delay", c.Database.Retry.BaseDelay, "must be positive")
	}
	if c.Server.GRPCAddr == "" {
		return invalid("server.grpc_addr", c.Server.GRPCAddr, "is required")
	}
	u, err := url.Parse(c.Registration.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return invalid("registration.base_url", c.Registration.BaseURL, "must be an absolute URL")
	}
	return nil
}

// RequireDatabase returns an error when no database URL is configured.
func (c *Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return oops.Code("CONFIG_MISSING_DATABASE").
			Errorf("database url is required: set database.url, --database-url or DATABASE_URL")
	}
	return nil
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, invalid("log.level", l.Level, "must be debug, info, warn or error")
	}
	return level, nil
}

func invalid(key string, value any, reason string) error {
	return oops.Code("CONFIG_INVALID").
		With("key", key).
		With("value", value).
		Errorf("%s %s", key, reason)
}
