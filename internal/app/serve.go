package app

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ShrutiSutar/stock-broker-dashboard/internal/auth"
	"github.com/ShrutiSutar/stock-broker-dashboard/internal/engine"
	"github.com/ShrutiSutar/stock-broker-dashboard/internal/gateway"
	"github.com/ShrutiSutar/stock-broker-dashboard/internal/registry"
	"github.com/ShrutiSutar/stock-broker-dashboard/internal/server"
	"github.com/ShrutiSutar/stock-broker-dashboard/internal/server/handler"
)

// Serve builds the domain services on top of the wired dependencies and runs
// the delivery gateway, the reconciliation loop, and the HTTP server until
// the context is cancelled.
func (a *App) Serve(ctx context.Context, deps *Dependencies) error {
	g, ctx := errgroup.WithContext(ctx)

	reg := registry.New()
	eng := engine.New(engine.Config{
		Volatility:       a.cfg.Engine.Volatility,
		QuoteCacheWindow: a.cfg.Engine.QuoteCacheWindow.Duration,
		FetchTimeout:     a.cfg.Engine.FetchTimeout.Duration,
		FetchBatch:       a.cfg.Engine.FetchBatch,
	}, deps.Quotes, deps.QuoteCache, a.logger)

	tokens := auth.NewService(a.cfg.Auth.Secret, a.cfg.Auth.TokenTTL.Duration)

	gw := gateway.New(reg, eng, tokens, a.cfg.Engine.TickInterval.Duration, a.logger)
	g.Go(func() error {
		return gw.Run(ctx)
	})

	// Reconciliation loop: one fetch at startup, then on the slow timer.
	// Failures stay inside Reconcile; this loop only stops with the context.
	g.Go(func() error {
		eng.Reconcile(ctx)

		ticker := time.NewTicker(a.cfg.Engine.ReconcileInterval.Duration)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				eng.Reconcile(ctx)
			}
		}
	})

	srv := server.New(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
	}, server.Handlers{
		Health:  handler.NewHealthHandler(a.logger, deps.Checks),
		Auth:    handler.NewAuthHandler(tokens, deps.UserStore, a.logger),
		Tickers: handler.NewTickerHandler(eng, a.logger),
	}, gw, a.logger)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	a.logger.InfoContext(ctx, "serving",
		slog.Int("port", a.cfg.Server.Port),
		slog.Duration("tick_interval", a.cfg.Engine.TickInterval.Duration),
		slog.Duration("reconcile_interval", a.cfg.Engine.ReconcileInterval.Duration),
	)

	return g.Wait()
}
