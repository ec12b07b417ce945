// Package config defines the top-level configuration for the stock broker
// dashboard backend and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by STOCKD_* environment variables.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Engine   EngineConfig   `toml:"engine"`
	Feed     FeedConfig     `toml:"feed"`
	Auth     AuthConfig     `toml:"auth"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// EngineConfig holds price simulation and reconciliation parameters.
type EngineConfig struct {
	// Volatility scales the per-tick random walk step.
	Volatility float64 `toml:"volatility"`
	// TickInterval is how often prices advance and fan out.
	TickInterval duration `toml:"tick_interval"`
	// ReconcileInterval is how often the external feed overwrites baselines.
	ReconcileInterval duration `toml:"reconcile_interval"`
	// QuoteCacheWindow is how long an external quote stays fresh.
	QuoteCacheWindow duration `toml:"quote_cache_window"`
	// FetchTimeout bounds each external quote request.
	FetchTimeout duration `toml:"fetch_timeout"`
	// FetchBatch caps how many stale tickers one reconciliation fetches.
	FetchBatch int `toml:"fetch_batch"`
}

// FeedConfig holds external quote provider parameters.
type FeedConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
}

// AuthConfig holds token signing parameters.
type AuthConfig struct {
	Secret   string   `toml:"secret"`
	TokenTTL duration `toml:"token_ttl"`
}

// PostgresConfig holds PostgreSQL connection parameters for the user store.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters for the quote cache.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:        3001,
			CORSOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
		},
		Engine: EngineConfig{
			Volatility:        0.002,
			TickInterval:      duration{time.Second},
			ReconcileInterval: duration{5 * time.Minute},
			QuoteCacheWindow:  duration{time.Minute},
			FetchTimeout:      duration{5 * time.Second},
			FetchBatch:        10,
		},
		Feed: FeedConfig{
			BaseURL: "https://finnhub.io/api/v1",
			APIKey:  "demo",
		},
		Auth: AuthConfig{
			Secret:   "change-me-in-production",
			TokenTTL: duration{24 * time.Hour},
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "stockd",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"full":       true,
	"standalone": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: full, standalone)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Server
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}

	// Engine
	if c.Engine.Volatility <= 0 || c.Engine.Volatility >= 1 {
		errs = append(errs, fmt.Sprintf("engine: volatility must be in (0, 1), got %g", c.Engine.Volatility))
	}
	if c.Engine.TickInterval.Duration <= 0 {
		errs = append(errs, "engine: tick_interval must be positive")
	}
	if c.Engine.ReconcileInterval.Duration <= 0 {
		errs = append(errs, "engine: reconcile_interval must be positive")
	}
	if c.Engine.ReconcileInterval.Duration < c.Engine.TickInterval.Duration {
		errs = append(errs, "engine: reconcile_interval must not be shorter than tick_interval")
	}
	if c.Engine.QuoteCacheWindow.Duration <= 0 {
		errs = append(errs, "engine: quote_cache_window must be positive")
	}
	if c.Engine.FetchTimeout.Duration <= 0 {
		errs = append(errs, "engine: fetch_timeout must be positive")
	}
	if c.Engine.FetchBatch < 1 {
		errs = append(errs, "engine: fetch_batch must be >= 1")
	}

	// Feed
	if c.Feed.BaseURL == "" {
		errs = append(errs, "feed: base_url must not be empty")
	}

	// Auth
	if c.Auth.Secret == "" {
		errs = append(errs, "auth: secret must not be empty")
	}
	if c.Auth.TokenTTL.Duration <= 0 {
		errs = append(errs, "auth: token_ttl must be positive")
	}

	// Postgres — only required in full mode.
	if strings.ToLower(c.Mode) == "full" {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 {
			errs = append(errs, "postgres: pool_min_conns must be >= 0")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
