// Package server assembles the HTTP + WebSocket API for the market engine.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/predictamm/internal/domain"
	"github.com/alanyoungcy/predictamm/internal/server/handler"
	"github.com/alanyoungcy/predictamm/internal/server/middleware"
	"github.com/alanyoungcy/predictamm/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled

	// RateLimit caps requests per client IP per RateWindow. Zero disables
	// rate limiting even when a limiter is provided.
	RateLimit  int
	RateWindow time.Duration
}

// Handlers aggregates all HTTP handlers the server registers.
type Handlers struct {
	Health     *handler.HealthHandler
	Markets    *handler.MarketHandler
	Liquidity  *handler.LiquidityHandler
	Trades     *handler.TradeHandler
	Resolution *handler.ResolutionHandler
	Fees       *handler.FeeHandler
	Positions  *handler.PositionHandler
	Admin      *handler.AdminHandler
}

// Server is the headless HTTP + WebSocket API server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a Server with all routes registered and the middleware
// chain (rate limiting, CORS, logging, auth) applied. wsHub and limiter may
// be nil.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check.
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Market lifecycle and reads.
	mux.HandleFunc("POST /api/markets", handlers.Markets.CreateMarket)
	mux.HandleFunc("GET /api/markets", handlers.Markets.ListMarkets)
	mux.HandleFunc("GET /api/markets/{id}", handlers.Markets.GetMarket)
	mux.HandleFunc("GET /api/markets/{id}/prices", handlers.Markets.GetPrices)
	mux.HandleFunc("GET /api/markets/{id}/events", handlers.Markets.ListEvents)
	mux.HandleFunc("POST /api/markets/{id}/archive", handlers.Markets.ArchiveMarket)

	// Liquidity.
	mux.HandleFunc("POST /api/markets/{id}/liquidity", handlers.Liquidity.AddLiquidity)
	mux.HandleFunc("POST /api/markets/{id}/liquidity/remove", handlers.Liquidity.RemoveLiquidity)

	// Trading.
	mux.HandleFunc("POST /api/markets/{id}/trades", handlers.Trades.BuyShares)
	mux.HandleFunc("GET /api/markets/{id}/quote", handlers.Trades.Quote)

	// Settlement.
	mux.HandleFunc("POST /api/markets/{id}/resolve", handlers.Resolution.ResolveMarket)
	mux.HandleFunc("POST /api/markets/{id}/winnings/claim", handlers.Resolution.ClaimWinnings)

	// Liquidity-provider fees.
	mux.HandleFunc("GET /api/markets/{id}/fees/{holder}", handlers.Fees.ClaimableFees)
	mux.HandleFunc("POST /api/markets/{id}/fees/claim", handlers.Fees.ClaimFees)
	mux.HandleFunc("POST /api/markets/{id}/fees/residual", handlers.Fees.WithdrawResidualFees)

	// Positions.
	mux.HandleFunc("GET /api/markets/{id}/positions/{holder}", handlers.Positions.GetPosition)

	// Owner configuration.
	mux.HandleFunc("PUT /api/admin/resolver", handlers.Admin.SetResolver)
	mux.HandleFunc("PUT /api/admin/fee-rate", handlers.Admin.SetFeeRate)

	// WebSocket event stream.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey)(h)
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)
	if limiter != nil && cfg.RateLimit > 0 {
		window := cfg.RateWindow
		if window <= 0 {
			window = time.Second
		}
		h = middleware.RateLimit(limiter, cfg.RateLimit, window)(h)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
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
