package handler

import (
	"context"
	"log/slog"
	"net/http"
)

// LiquidityService defines the liquidity operations the handler requires.
type LiquidityService interface {
	AddLiquidity(ctx context.Context, caller string, id uint64, amount uint64) error
	RemoveLiquidity(ctx context.Context, caller string, id uint64, yesAmount, noAmount uint64) (uint64, error)
}

// LiquidityHandler serves the pool deposit and withdrawal endpoints.
type LiquidityHandler struct {
	liquidity LiquidityService
	logger    *slog.Logger
}

// NewLiquidityHandler creates a LiquidityHandler.
func NewLiquidityHandler(liquidity LiquidityService, logger *slog.Logger) *LiquidityHandler {
	return &LiquidityHandler{liquidity: liquidity, logger: logger}
}

type addLiquidityRequest struct {
	Caller string `json:"caller"`
	Amount uint64 `json:"amount"`
}

// AddLiquidity deposits collateral into a market's pool, minting a matched
// pair of outcome shares to the caller.
// POST /api/markets/{id}/liquidity
func (h *LiquidityHandler) AddLiquidity(w http.ResponseWriter, r *http.Request) {
	id, err := marketID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	var req addLiquidityRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Caller == "" {
		writeError(w, http.StatusBadRequest, "missing caller")
		return
	}

	if err := h.liquidity.AddLiquidity(r.Context(), req.Caller, id, req.Amount); err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]uint64{"amount": req.Amount})
}

type removeLiquidityRequest struct {
	Caller    string `json:"caller"`
	YesAmount uint64 `json:"yes_amount"`
	NoAmount  uint64 `json:"no_amount"`
}

// RemoveLiquidity burns a matched pair of the caller's outcome shares and
// pays out the corresponding collateral.
// POST /api/markets/{id}/liquidity/remove
func (h *LiquidityHandler) RemoveLiquidity(w http.ResponseWriter, r *http.Request) {
	id, err := marketID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	var req removeLiquidityRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Caller == "" {
		writeError(w, http.StatusBadRequest, "missing caller")
		return
	}

	paid, err := h.liquidity.RemoveLiquidity(r.Context(), req.Caller, id, req.YesAmount, req.NoAmount)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]uint64{"paid": paid})
}
