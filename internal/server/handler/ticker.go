package handler

import (
	"log/slog"
	"net/http"

	"github.com/ShrutiSutar/stock-broker-dashboard/internal/catalog"
	"github.com/ShrutiSutar/stock-broker-dashboard/internal/engine"
)

// TickerHandler serves the read-only catalog and price snapshot endpoints.
// Both read outside the tick loop via engine snapshots.
type TickerHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

// NewTickerHandler creates a TickerHandler for the given engine.
func NewTickerHandler(eng *engine.Engine, logger *slog.Logger) *TickerHandler {
	return &TickerHandler{
		engine: eng,
		logger: logger.With(slog.String("handler", "ticker")),
	}
}

// ListTickers returns the supported ticker catalog with metadata.
// GET /api/tickers
func (h *TickerHandler) ListTickers(w http.ResponseWriter, r *http.Request) {
	symbols := catalog.Symbols()
	writeJSON(w, http.StatusOK, map[string]any{
		"tickers": symbols,
		"info":    catalog.All(),
		"count":   len(symbols),
	})
}

// GetPrices returns the current price snapshot for every ticker.
// GET /api/prices
func (h *TickerHandler) GetPrices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.CurrentPrices())
}
