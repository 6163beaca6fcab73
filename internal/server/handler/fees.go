package handler

import (
	"context"
	"log/slog"
	"net/http"
)

// FeeService defines the fee operations the handler requires.
type FeeService interface {
	ClaimableFees(id uint64, holder string) (uint64, error)
	ClaimFees(ctx context.Context, caller string, id uint64) (uint64, error)
	WithdrawResidualFees(ctx context.Context, caller string, id uint64) (uint64, error)
}

// FeeHandler serves the liquidity-provider fee endpoints.
type FeeHandler struct {
	fees   FeeService
	logger *slog.Logger
}

// NewFeeHandler creates a FeeHandler.
func NewFeeHandler(fees FeeService, logger *slog.Logger) *FeeHandler {
	return &FeeHandler{fees: fees, logger: logger}
}

// ClaimableFees returns the fee amount a holder could claim right now.
// GET /api/markets/{id}/fees/{holder}
func (h *FeeHandler) ClaimableFees(w http.ResponseWriter, r *http.Request) {
	id, err := marketID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}
	holder := r.PathValue("holder")
	if holder == "" {
		writeError(w, http.StatusBadRequest, "missing holder")
		return
	}

	claimable, err := h.fees.ClaimableFees(id, holder)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]uint64{"claimable": claimable})
}

// ClaimFees pays out the caller's accrued fee share.
// POST /api/markets/{id}/fees/claim
func (h *FeeHandler) ClaimFees(w http.ResponseWriter, r *http.Request) {
	id, err := marketID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	var req claimRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Caller == "" {
		writeError(w, http.StatusBadRequest, "missing caller")
		return
	}

	paid, err := h.fees.ClaimFees(r.Context(), req.Caller, id)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]uint64{"paid": paid})
}

// WithdrawResidualFees sweeps unclaimable residual fees from a drained,
// resolved market. Owner only.
// POST /api/markets/{id}/fees/residual
func (h *FeeHandler) WithdrawResidualFees(w http.ResponseWriter, r *http.Request) {
	id, err := marketID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	var req claimRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Caller == "" {
		writeError(w, http.StatusBadRequest, "missing caller")
		return
	}

	paid, err := h.fees.WithdrawResidualFees(r.Context(), req.Caller, id)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]uint64{"paid": paid})
}
