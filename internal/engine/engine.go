// Package engine owns the authoritative current price for every catalog
// ticker. Prices advance on a fixed interval via a bounded random walk and
// are periodically reconciled against an external quote source. The random
// walk never stops: reconciliation failures keep the last known baseline and
// are reported only through the log.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/ShrutiSutar/stock-broker-dashboard/internal/catalog"
	"github.com/ShrutiSutar/stock-broker-dashboard/internal/domain"
)

// floorPrice is the lowest price any ticker can reach.
const floorPrice = 0.01

// Config holds the tunables for the price engine.
type Config struct {
	// Volatility scales the per-tick perturbation: a step multiplies the
	// price by 1 + Volatility*(U-0.5) for a uniform U in [0,1).
	Volatility float64

	// QuoteCacheWindow is how long an external quote stays fresh; tickers
	// fetched within the window are skipped by Reconcile.
	QuoteCacheWindow time.Duration

	// FetchTimeout bounds each individual external quote request.
	FetchTimeout time.Duration

	// FetchBatch caps how many stale tickers one Reconcile call fetches.
	FetchBatch int
}

// Engine generates and reconciles prices. All exported methods are safe for
// concurrent use; the price map is only ever written by Advance and
// Reconcile, each of which applies its update atomically.
type Engine struct {
	cfg      Config
	provider domain.QuoteProvider
	cache    domain.QuoteCache
	logger   *slog.Logger

	// randFn returns a uniform draw in [0,1). Injectable for tests.
	randFn func() float64

	mu     sync.Mutex
	prices map[string]float64
}

// New creates an Engine seeded from the catalog's initial reference prices.
// provider and cache may be nil, in which case Reconcile is a no-op beyond a
// debug log.
func New(cfg Config, provider domain.QuoteProvider, cache domain.QuoteCache, logger *slog.Logger) *Engine {
	if cfg.FetchBatch <= 0 {
		cfg.FetchBatch = 10
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 5 * time.Second
	}
	if cfg.QuoteCacheWindow <= 0 {
		cfg.QuoteCacheWindow = time.Minute
	}
	return &Engine{
		cfg:      cfg,
		provider: provider,
		cache:    cache,
		logger:   logger.With(slog.String("component", "engine")),
		randFn:   rand.Float64,
		prices:   catalog.InitialPrices(),
	}
}

// Advance applies one random-walk step to every ticker and returns the full
// updated price map. The returned map is owned by the caller.
func (e *Engine) Advance() map[string]float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	updated := make(map[string]float64, len(e.prices))
	for ticker, price := range e.prices {
		next := e.step(price)
		e.prices[ticker] = next
		updated[ticker] = next
	}
	return updated
}

// step computes one perturbation of price: a symmetric relative change of at
// most half the configured volatility, clamped to the floor and rounded to
// cents.
func (e *Engine) step(price float64) float64 {
	changePct := e.cfg.Volatility * (e.randFn() - 0.5)
	next := price * (1 + changePct)
	if next < floorPrice {
		next = floorPrice
	}
	return round2(next)
}

// CurrentPrices returns a point-in-time snapshot of all prices. The returned
// map is owned by the caller.
func (e *Engine) CurrentPrices() map[string]float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[string]float64, len(e.prices))
	for ticker, price := range e.prices {
		out[ticker] = price
	}
	return out
}

// Reconcile overwrites price baselines with external quotes for tickers whose
// cached quote is older than the cache window. At most FetchBatch tickers are
// fetched per call, each with its own timeout. Failures keep the prior price;
// Reconcile never returns an error and never blocks the tick loop beyond its
// own goroutine.
func (e *Engine) Reconcile(ctx context.Context) {
	if e.provider == nil {
		e.logger.DebugContext(ctx, "reconcile skipped: no quote provider")
		return
	}

	stale := e.staleTickers(ctx)
	if len(stale) == 0 {
		return
	}
	if len(stale) > e.cfg.FetchBatch {
		stale = stale[:e.cfg.FetchBatch]
	}

	now := time.Now()
	fetched := make(map[string]float64, len(stale))
	for _, ticker := range stale {
		price, err := e.fetchOne(ctx, ticker)
		if err != nil {
			e.logger.WarnContext(ctx, "quote fetch failed, keeping last price",
				slog.String("ticker", ticker),
				slog.String("error", err.Error()),
			)
			continue
		}
		fetched[ticker] = price
		if e.cache != nil {
			if err := e.cache.SetQuote(ctx, ticker, price, now); err != nil {
				e.logger.WarnContext(ctx, "quote cache write failed",
					slog.String("ticker", ticker),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	if len(fetched) == 0 {
		return
	}

	// Apply all successful quotes as one baseline update.
	e.mu.Lock()
	for ticker, price := range fetched {
		e.prices[ticker] = price
	}
	e.mu.Unlock()

	e.logger.InfoContext(ctx, "reconciled baselines with external quotes",
		slog.Int("updated", len(fetched)),
		slog.Int("stale", len(stale)),
	)
}

// staleTickers returns the catalog tickers whose cached quote is missing or
// older than the cache window. Without a cache every ticker is stale.
func (e *Engine) staleTickers(ctx context.Context) []string {
	symbols := catalog.Symbols()
	if e.cache == nil {
		return symbols
	}

	cutoff := time.Now().Add(-e.cfg.QuoteCacheWindow)
	stale := make([]string, 0, len(symbols))
	for _, ticker := range symbols {
		_, fetchedAt, err := e.cache.GetQuote(ctx, ticker)
		if err != nil || fetchedAt.Before(cutoff) {
			stale = append(stale, ticker)
		}
	}
	return stale
}

// fetchOne requests a single quote with the per-call timeout and validates it.
func (e *Engine) fetchOne(ctx context.Context, ticker string) (float64, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.FetchTimeout)
	defer cancel()

	price, err := e.provider.Quote(fetchCtx, ticker)
	if err != nil {
		return 0, err
	}
	if price < floorPrice {
		return 0, fmt.Errorf("engine: quote for %s out of range: %g", ticker, price)
	}
	return round2(price), nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
