// Package feed implements the external quote provider used to reconcile
// simulated prices with real market data.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ShrutiSutar/stock-broker-dashboard/internal/domain"
)

// FinnhubClient fetches quotes from the Finnhub REST API (free tier: 60
// requests/min). It implements domain.QuoteProvider.
type FinnhubClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewFinnhubClient creates a quote client for the given API root, e.g.
// "https://finnhub.io/api/v1".
func NewFinnhubClient(baseURL, apiKey string) *FinnhubClient {
	return &FinnhubClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// quoteResponse is the wire shape of GET /quote. "c" is the current price.
type quoteResponse struct {
	Current float64 `json:"c"`
}

// Quote returns the current price for ticker. Cancellation and deadlines come
// from ctx; the caller applies the per-call timeout.
func (c *FinnhubClient) Quote(ctx context.Context, ticker string) (float64, error) {
	params := url.Values{}
	params.Set("symbol", ticker)
	params.Set("token", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/quote?"+params.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("feed: build quote request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("feed: quote %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("feed: quote %s: status %d: %s", ticker, resp.StatusCode, string(body))
	}

	var quote quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return 0, fmt.Errorf("feed: decode quote %s: %w", ticker, err)
	}
	if quote.Current <= 0 {
		return 0, fmt.Errorf("feed: quote %s: no price in response", ticker)
	}
	return quote.Current, nil
}

// Compile-time interface check.
var _ domain.QuoteProvider = (*FinnhubClient)(nil)
