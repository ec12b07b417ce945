// Package server assembles the HTTP API: REST endpoints for auth and the
// ticker catalog, plus the websocket endpoint served by the gateway.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ShrutiSutar/stock-broker-dashboard/internal/gateway"
	"github.com/ShrutiSutar/stock-broker-dashboard/internal/server/handler"
	"github.com/ShrutiSutar/stock-broker-dashboard/internal/server/middleware"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
}

// Handlers aggregates the HTTP handlers the server registers.
type Handlers struct {
	Health  *handler.HealthHandler
	Auth    *handler.AuthHandler
	Tickers *handler.TickerHandler
}

// Server is the HTTP + websocket API server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a Server with all routes registered and the middleware chain
// (CORS, request logging) applied.
func New(cfg Config, handlers Handlers, gw *gateway.Gateway, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", index)
	mux.HandleFunc("GET /health", handlers.Health.HealthCheck)
	mux.HandleFunc("POST /api/auth/login", handlers.Auth.Login)
	mux.HandleFunc("GET /api/tickers", handlers.Tickers.ListTickers)
	mux.HandleFunc("GET /api/prices", handlers.Tickers.GetPrices)
	mux.HandleFunc("GET /ws", gw.HandleWS)

	var h http.Handler = mux
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
	}
}

// index responds with a small API directory.
// GET /
func index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Write([]byte(`{"message":"Stock Broker Dashboard API","version":"1.0.0",` +
		`"endpoints":{"health":"/health","auth":"/api/auth/login",` +
		`"tickers":"/api/tickers","prices":"/api/prices","stream":"/ws"}}`))
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
