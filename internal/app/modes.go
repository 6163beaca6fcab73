package app

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/predictamm/internal/server"
	"github.com/alanyoungcy/predictamm/internal/server/handler"
	"github.com/alanyoungcy/predictamm/internal/server/ws"
)

// shutdownGrace bounds how long in-flight requests may run after the
// context is cancelled.
const shutdownGrace = 10 * time.Second

// ServeMode runs the full stack: the HTTP API backed by Postgres snapshots
// and the event log, the Redis price cache and signal bus, and the
// WebSocket hub streaming market events to clients.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	g, ctx := errgroup.WithContext(ctx)

	hub := ws.NewHub(deps.SignalBus, a.logger, ws.Config{
		Mode:      a.cfg.Mode,
		StartedAt: time.Now().UTC(),
	})
	g.Go(func() error {
		err := hub.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	a.startHTTPServer(ctx, g, deps, hub)

	return g.Wait()
}

// StandaloneMode runs the in-memory core with the HTTP API only: no
// Postgres, no Redis, no WebSocket hub. Useful for local development and
// simulation.
func (a *App) StandaloneMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting standalone mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps, nil)
	return g.Wait()
}

// startHTTPServer builds the handler set and adds the HTTP server's run and
// shutdown goroutines to the errgroup. A nil hub disables the /ws endpoint.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, hub *ws.Hub) {
	if !a.cfg.Server.Enabled {
		a.logger.InfoContext(ctx, "http server disabled")
		return
	}

	svc := deps.Service
	handlers := server.Handlers{
		Health:     handler.NewHealthHandler(deps.Health, a.logger),
		Markets:    handler.NewMarketHandler(svc, a.logger),
		Liquidity:  handler.NewLiquidityHandler(svc, a.logger),
		Trades:     handler.NewTradeHandler(svc, a.logger),
		Resolution: handler.NewResolutionHandler(svc, a.logger),
		Fees:       handler.NewFeeHandler(svc, a.logger),
		Positions:  handler.NewPositionHandler(svc, a.logger),
		Admin:      handler.NewAdminHandler(svc, a.logger),
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		RateLimit:   a.cfg.Server.RateLimit,
		RateWindow:  time.Second,
	}, handlers, hub, deps.RateLimiter, a.logger)

	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}
