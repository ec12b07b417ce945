// Package catalog holds the fixed set of supported stock tickers, their
// display metadata, and the initial reference prices used before the first
// external reconciliation.
package catalog

import "sort"

// Info describes one supported ticker.
type Info struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Sector string `json:"sector"`
}

// entry pairs ticker metadata with its initial reference price.
type entry struct {
	info         Info
	initialPrice float64
}

// The ten supported symbols. The catalog is closed for the process lifetime;
// tickers are never added or removed at runtime.
var entries = map[string]entry{
	"GOOG":  {Info{"GOOG", "Alphabet Inc.", "Technology"}, 145.50},
	"MSFT":  {Info{"MSFT", "Microsoft Corp.", "Technology"}, 420.00},
	"AAPL":  {Info{"AAPL", "Apple Inc.", "Technology"}, 235.00},
	"AMZN":  {Info{"AMZN", "Amazon.com Inc.", "Technology"}, 175.30},
	"NVDA":  {Info{"NVDA", "NVIDIA Corp.", "Semiconductors"}, 950.00},
	"META":  {Info{"META", "Meta Platforms Inc.", "Technology"}, 485.75},
	"TSLA":  {Info{"TSLA", "Tesla Inc.", "Automotive"}, 180.25},
	"NFLX":  {Info{"NFLX", "Netflix Inc.", "Entertainment"}, 280.00},
	"JPM":   {Info{"JPM", "JPMorgan Chase", "Finance"}, 190.00},
	"BRK.B": {Info{"BRK.B", "Berkshire Hathaway B", "Finance"}, 425.00},
}

// Supports reports whether symbol is in the catalog.
func Supports(symbol string) bool {
	_, ok := entries[symbol]
	return ok
}

// Symbols returns all supported symbols in sorted order.
func Symbols() []string {
	out := make([]string, 0, len(entries))
	for sym := range entries {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Lookup returns the metadata for symbol and whether it exists.
func Lookup(symbol string) (Info, bool) {
	e, ok := entries[symbol]
	return e.info, ok
}

// All returns metadata for every supported ticker, sorted by symbol.
func All() []Info {
	out := make([]Info, 0, len(entries))
	for _, sym := range Symbols() {
		out = append(out, entries[sym].info)
	}
	return out
}

// InitialPrices returns a fresh copy of the reference price map. Callers own
// the returned map.
func InitialPrices() map[string]float64 {
	out := make(map[string]float64, len(entries))
	for sym, e := range entries {
		out[sym] = e.initialPrice
	}
	return out
}
