package domain

import (
	"context"
	"time"
)

// QuoteCache stores the most recent externally fetched quote per ticker along
// with the fetch timestamp. The price engine uses it to decide which tickers
// are stale enough to re-fetch during reconciliation.
type QuoteCache interface {
	SetQuote(ctx context.Context, ticker string, price float64, fetchedAt time.Time) error

	// GetQuote returns the cached quote and when it was fetched, or
	// ErrNotFound when the ticker has never been fetched.
	GetQuote(ctx context.Context, ticker string) (float64, time.Time, error)
}

// QuoteProvider fetches an authoritative market price for one ticker from an
// external source.
type QuoteProvider interface {
	Quote(ctx context.Context, ticker string) (float64, error)
}
