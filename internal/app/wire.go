package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	memcache "github.com/ShrutiSutar/stock-broker-dashboard/internal/cache/memory"
	"github.com/ShrutiSutar/stock-broker-dashboard/internal/cache/redis"
	"github.com/ShrutiSutar/stock-broker-dashboard/internal/config"
	"github.com/ShrutiSutar/stock-broker-dashboard/internal/domain"
	"github.com/ShrutiSutar/stock-broker-dashboard/internal/feed"
	memstore "github.com/ShrutiSutar/stock-broker-dashboard/internal/store/memory"
	"github.com/ShrutiSutar/stock-broker-dashboard/internal/store/postgres"
)

// Dependencies bundles the infrastructure dependencies the serving loops need.
// It is constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	UserStore  domain.UserStore
	QuoteCache domain.QuoteCache
	Quotes     domain.QuoteProvider

	// Checks holds the backend connectivity checks surfaced by /health.
	// Empty in standalone mode.
	Checks map[string]domain.Pinger
}

// Wire constructs concrete dependency implementations from the configuration
// and returns them together with a cleanup function that should be called on
// shutdown. In standalone mode everything is in-process; full mode requires
// PostgreSQL and Redis.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{
		Quotes: feed.NewFinnhubClient(cfg.Feed.BaseURL, cfg.Feed.APIKey),
	}

	if strings.ToLower(cfg.Mode) == "standalone" {
		deps.UserStore = memstore.NewUserStore()
		deps.QuoteCache = memcache.NewQuoteCache()
		logger.InfoContext(ctx, "wired in-memory user store and quote cache")
		return deps, cleanup, nil
	}

	// --- PostgreSQL user store ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}
	deps.UserStore = postgres.NewUserStore(pgClient.Pool())

	// --- Redis quote cache ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	// Quote entries outlive the freshness window so a restart can still
	// serve the last reconciled baseline; expire them at 10x the window.
	deps.QuoteCache = redis.NewQuoteCache(redisClient, 10*cfg.Engine.QuoteCacheWindow.Duration)

	deps.Checks = map[string]domain.Pinger{
		"postgres": pgClient,
		"redis":    redisClient,
	}

	return deps, cleanup, nil
}
