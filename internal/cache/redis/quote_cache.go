package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ShrutiSutar/stock-broker-dashboard/internal/domain"
)

// QuoteCache implements domain.QuoteCache using Redis hashes. Each ticker's
// last external quote is stored at key "quote:{ticker}" with fields "price"
// and "fetched_at" (Unix nanosecond timestamp).
type QuoteCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewQuoteCache creates a QuoteCache backed by the given Client. Entries
// expire after ttl; zero means no expiry.
func NewQuoteCache(c *Client, ttl time.Duration) *QuoteCache {
	return &QuoteCache{rdb: c.Underlying(), ttl: ttl}
}

func quoteKey(ticker string) string {
	return "quote:" + ticker
}

// SetQuote stores the latest external quote and fetch time for a ticker.
func (qc *QuoteCache) SetQuote(ctx context.Context, ticker string, price float64, fetchedAt time.Time) error {
	key := quoteKey(ticker)
	fields := map[string]interface{}{
		"price":      strconv.FormatFloat(price, 'f', -1, 64),
		"fetched_at": strconv.FormatInt(fetchedAt.UnixNano(), 10),
	}
	if err := qc.rdb.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("redis: set quote %s: %w", ticker, err)
	}
	if qc.ttl > 0 {
		if err := qc.rdb.Expire(ctx, key, qc.ttl).Err(); err != nil {
			return fmt.Errorf("redis: expire quote %s: %w", ticker, err)
		}
	}
	return nil
}

// GetQuote retrieves the latest external quote and fetch time for a ticker.
// It returns domain.ErrNotFound when the key does not exist.
func (qc *QuoteCache) GetQuote(ctx context.Context, ticker string) (float64, time.Time, error) {
	vals, err := qc.rdb.HGetAll(ctx, quoteKey(ticker)).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: get quote %s: %w", ticker, err)
	}
	if len(vals) == 0 {
		return 0, time.Time{}, domain.ErrNotFound
	}

	priceStr, ok := vals["price"]
	if !ok {
		return 0, time.Time{}, domain.ErrNotFound
	}
	price, err := strconv.ParseFloat(priceStr, 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: parse quote price %s: %w", ticker, err)
	}

	tsStr, ok := vals["fetched_at"]
	if !ok {
		return 0, time.Time{}, domain.ErrNotFound
	}
	tsNano, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: parse quote ts %s: %w", ticker, err)
	}

	return price, time.Unix(0, tsNano), nil
}

// Compile-time interface check.
var _ domain.QuoteCache = (*QuoteCache)(nil)
