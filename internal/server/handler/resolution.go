package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/predictamm/internal/domain"
)

// ResolutionService defines the settlement operations the handler requires.
type ResolutionService interface {
	ResolveMarket(ctx context.Context, caller string, id uint64, outcome domain.Outcome) error
	ForceResolveMarket(ctx context.Context, caller string, id uint64, outcome domain.Outcome) error
	ClaimWinnings(ctx context.Context, caller string, id uint64) (uint64, error)
}

// ResolutionHandler serves the market settlement endpoints.
type ResolutionHandler struct {
	resolution ResolutionService
	logger     *slog.Logger
}

// NewResolutionHandler creates a ResolutionHandler.
func NewResolutionHandler(resolution ResolutionService, logger *slog.Logger) *ResolutionHandler {
	return &ResolutionHandler{resolution: resolution, logger: logger}
}

type resolveRequest struct {
	Caller  string         `json:"caller"`
	Outcome domain.Outcome `json:"outcome"`
	Force   bool           `json:"force"`
}

// ResolveMarket settles a market to its final outcome. The resolver may set
// force to settle before the resolution deadline.
// POST /api/markets/{id}/resolve
func (h *ResolutionHandler) ResolveMarket(w http.ResponseWriter, r *http.Request) {
	id, err := marketID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	var req resolveRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Caller == "" {
		writeError(w, http.StatusBadRequest, "missing caller")
		return
	}

	if req.Force {
		err = h.resolution.ForceResolveMarket(r.Context(), req.Caller, id, req.Outcome)
	} else {
		err = h.resolution.ResolveMarket(r.Context(), req.Caller, id, req.Outcome)
	}
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":      id,
		"outcome": req.Outcome,
	})
}

type claimRequest struct {
	Caller string `json:"caller"`
}

// ClaimWinnings pays out the caller's winning (or refundable) shares on a
// resolved market.
// POST /api/markets/{id}/winnings/claim
func (h *ResolutionHandler) ClaimWinnings(w http.ResponseWriter, r *http.Request) {
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

	payout, err := h.resolution.ClaimWinnings(r.Context(), req.Caller, id)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]uint64{"payout": payout})
}
