// Package memory provides in-process implementations of the cache interfaces
// for standalone mode, where no Redis is available.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ShrutiSutar/stock-broker-dashboard/internal/domain"
)

// QuoteCache is a mutex-guarded in-memory domain.QuoteCache.
type QuoteCache struct {
	mu     sync.RWMutex
	quotes map[string]quoteEntry
}

type quoteEntry struct {
	price     float64
	fetchedAt time.Time
}

// NewQuoteCache creates an empty in-memory quote cache.
func NewQuoteCache() *QuoteCache {
	return &QuoteCache{quotes: make(map[string]quoteEntry)}
}

// SetQuote stores the latest external quote and fetch time for a ticker.
func (qc *QuoteCache) SetQuote(_ context.Context, ticker string, price float64, fetchedAt time.Time) error {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	qc.quotes[ticker] = quoteEntry{price: price, fetchedAt: fetchedAt}
	return nil
}

// GetQuote retrieves the latest external quote and fetch time for a ticker,
// or domain.ErrNotFound when the ticker has never been stored.
func (qc *QuoteCache) GetQuote(_ context.Context, ticker string) (float64, time.Time, error) {
	qc.mu.RLock()
	defer qc.mu.RUnlock()
	e, ok := qc.quotes[ticker]
	if !ok {
		return 0, time.Time{}, domain.ErrNotFound
	}
	return e.price, e.fetchedAt, nil
}

// Compile-time interface check.
var _ domain.QuoteCache = (*QuoteCache)(nil)
