package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/alanyoungcy/predictamm/internal/domain"
)

// TradeService defines the trading operations the handler requires.
type TradeService interface {
	BuyShares(ctx context.Context, caller string, id uint64, isYes bool, amountIn, minSharesOut uint64) (domain.TradeResult, error)
	Quote(id uint64, isYes bool, amountIn uint64) (domain.TradeResult, error)
}

// TradeHandler serves the trade execution and quote endpoints.
type TradeHandler struct {
	trades TradeService
	logger *slog.Logger
}

// NewTradeHandler creates a TradeHandler.
func NewTradeHandler(trades TradeService, logger *slog.Logger) *TradeHandler {
	return &TradeHandler{trades: trades, logger: logger}
}

type buySharesRequest struct {
	Caller       string `json:"caller"`
	IsYes        bool   `json:"is_yes"`
	AmountIn     uint64 `json:"amount_in"`
	MinSharesOut uint64 `json:"min_shares_out"`
}

// BuyShares executes a trade against the market's pool.
// POST /api/markets/{id}/trades
func (h *TradeHandler) BuyShares(w http.ResponseWriter, r *http.Request) {
	id, err := marketID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	var req buySharesRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Caller == "" {
		writeError(w, http.StatusBadRequest, "missing caller")
		return
	}

	res, err := h.trades.BuyShares(r.Context(), req.Caller, id, req.IsYes, req.AmountIn, req.MinSharesOut)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// Quote prices a hypothetical trade without executing it.
// GET /api/markets/{id}/quote?is_yes=true&amount_in=100
func (h *TradeHandler) Quote(w http.ResponseWriter, r *http.Request) {
	id, err := marketID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	q := r.URL.Query()
	isYes := q.Get("is_yes") == "true"
	amountIn, err := strconv.ParseUint(q.Get("amount_in"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount_in")
		return
	}

	res, err := h.trades.Quote(id, isYes, amountIn)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}
