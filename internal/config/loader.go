package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies STOCKD_* environment variable overrides, and
// returns the final Config. A missing file is not an error; the defaults plus
// environment overrides apply. The returned Config has NOT been validated;
// the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known STOCKD_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This lets
// operators inject secrets at deploy time without touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Server ──
	setInt(&cfg.Server.Port, "STOCKD_SERVER_PORT")
	setInt(&cfg.Server.Port, "PORT") // compatibility alias
	setStringSlice(&cfg.Server.CORSOrigins, "STOCKD_SERVER_CORS_ORIGINS")

	// ── Engine ──
	setFloat64(&cfg.Engine.Volatility, "STOCKD_ENGINE_VOLATILITY")
	setFloat64(&cfg.Engine.Volatility, "VOLATILITY") // compatibility alias
	setDuration(&cfg.Engine.TickInterval, "STOCKD_ENGINE_TICK_INTERVAL")
	setDuration(&cfg.Engine.ReconcileInterval, "STOCKD_ENGINE_RECONCILE_INTERVAL")
	setDuration(&cfg.Engine.QuoteCacheWindow, "STOCKD_ENGINE_QUOTE_CACHE_WINDOW")
	setDuration(&cfg.Engine.FetchTimeout, "STOCKD_ENGINE_FETCH_TIMEOUT")
	setInt(&cfg.Engine.FetchBatch, "STOCKD_ENGINE_FETCH_BATCH")

	// ── Feed ──
	setStr(&cfg.Feed.BaseURL, "STOCKD_FEED_BASE_URL")
	setStr(&cfg.Feed.APIKey, "STOCKD_FEED_API_KEY")
	setStr(&cfg.Feed.APIKey, "FINNHUB_API_KEY") // compatibility alias

	// ── Auth ──
	setStr(&cfg.Auth.Secret, "STOCKD_AUTH_SECRET")
	setStr(&cfg.Auth.Secret, "JWT_SECRET") // compatibility alias
	setDuration(&cfg.Auth.TokenTTL, "STOCKD_AUTH_TOKEN_TTL")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "STOCKD_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "STOCKD_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "STOCKD_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "STOCKD_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "STOCKD_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "STOCKD_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "STOCKD_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "STOCKD_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "STOCKD_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "STOCKD_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "STOCKD_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "STOCKD_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "STOCKD_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "STOCKD_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "STOCKD_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "STOCKD_REDIS_TLS_ENABLED")

	// ── Top-level ──
	setStr(&cfg.Mode, "STOCKD_MODE")
	setStr(&cfg.LogLevel, "STOCKD_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
