package handler

import (
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/predictamm/internal/domain"
)

// PositionService defines the position queries the handler requires.
type PositionService interface {
	ShareBalance(id uint64, holder string) (domain.SharePosition, error)
}

// PositionHandler serves the share position endpoint.
type PositionHandler struct {
	positions PositionService
	logger    *slog.Logger
}

// NewPositionHandler creates a PositionHandler.
func NewPositionHandler(positions PositionService, logger *slog.Logger) *PositionHandler {
	return &PositionHandler{positions: positions, logger: logger}
}

// GetPosition returns a holder's outcome-share balances in a market.
// GET /api/markets/{id}/positions/{holder}
func (h *PositionHandler) GetPosition(w http.ResponseWriter, r *http.Request) {
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

	pos, err := h.positions.ShareBalance(id, holder)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, pos)
}
