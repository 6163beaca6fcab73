package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/predictamm/internal/domain"
)

// MarketService defines the methods the market handler requires from the
// service layer. It is declared locally so the handler package does not
// depend on the concrete service implementation.
type MarketService interface {
	CreateMarket(ctx context.Context, creator, question string, deadline time.Time) (uint64, error)
	Market(id uint64) (domain.Market, error)
	Markets() []domain.Market
	SpotPrices(ctx context.Context, id uint64) (domain.PricePair, error)
	Events(ctx context.Context, id uint64, opts domain.ListOpts) ([]domain.Event, error)
	ArchiveMarket(ctx context.Context, id uint64, force bool) (string, int64, error)
}

// MarketHandler serves market lifecycle and read endpoints.
type MarketHandler struct {
	markets MarketService
	logger  *slog.Logger
}

// NewMarketHandler creates a MarketHandler with the given service and logger.
func NewMarketHandler(markets MarketService, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{markets: markets, logger: logger}
}

type createMarketRequest struct {
	Creator  string    `json:"creator"`
	Question string    `json:"question"`
	Deadline time.Time `json:"deadline"`
}

type createMarketResponse struct {
	ID uint64 `json:"id"`
}

// CreateMarket opens a new market.
// POST /api/markets
func (h *MarketHandler) CreateMarket(w http.ResponseWriter, r *http.Request) {
	var req createMarketRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Creator == "" {
		writeError(w, http.StatusBadRequest, "missing creator")
		return
	}

	id, err := h.markets.CreateMarket(r.Context(), req.Creator, req.Question, req.Deadline)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, createMarketResponse{ID: id})
}

// listMarketsResponse wraps the list endpoint output with metadata.
type listMarketsResponse struct {
	Markets []domain.Market `json:"markets"`
	Total   int             `json:"total"`
}

// ListMarkets returns every market, optionally filtered by status.
// GET /api/markets?status=active
func (h *MarketHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	markets := h.markets.Markets()

	if status := r.URL.Query().Get("status"); status != "" {
		filtered := markets[:0]
		for _, m := range markets {
			if string(m.Status) == status {
				filtered = append(filtered, m)
			}
		}
		markets = filtered
	}

	writeJSON(w, http.StatusOK, listMarketsResponse{
		Markets: markets,
		Total:   len(markets),
	})
}

// GetMarket returns a single market by its id.
// GET /api/markets/{id}
func (h *MarketHandler) GetMarket(w http.ResponseWriter, r *http.Request) {
	id, err := marketID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	m, err := h.markets.Market(id)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, m)
}

// GetPrices returns a market's current implied probabilities in basis points.
// GET /api/markets/{id}/prices
func (h *MarketHandler) GetPrices(w http.ResponseWriter, r *http.Request) {
	id, err := marketID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	p, err := h.markets.SpotPrices(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// ListEvents returns a market's recorded event history.
// GET /api/markets/{id}/events?limit=50&offset=0&since=...&until=...
func (h *MarketHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	id, err := marketID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	// Reject unknown markets before touching the event log.
	if _, err := h.markets.Market(id); err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	events, err := h.markets.Events(r.Context(), id, parseListOpts(r))
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	if events == nil {
		events = []domain.Event{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"total":  len(events),
	})
}

type archiveRequest struct {
	Force bool `json:"force"`
}

type archiveResponse struct {
	Path  string `json:"path"`
	Count int64  `json:"count"`
}

// ArchiveMarket uploads a resolved market's event history to blob storage.
// POST /api/markets/{id}/archive
func (h *MarketHandler) ArchiveMarket(w http.ResponseWriter, r *http.Request) {
	id, err := marketID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	var req archiveRequest
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	path, count, err := h.markets.ArchiveMarket(r.Context(), id, req.Force)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, archiveResponse{Path: path, Count: count})
}
