package handler

import (
	"log/slog"
	"net/http"
)

// AdminService defines the administrative operations the handler requires.
type AdminService interface {
	SetResolver(caller, resolver string) error
	SetFeeRate(caller string, bps uint64) error
}

// AdminHandler serves the owner-only configuration endpoints.
type AdminHandler struct {
	admin  AdminService
	logger *slog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(admin AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, logger: logger}
}

type setResolverRequest struct {
	Caller   string `json:"caller"`
	Resolver string `json:"resolver"`
}

// SetResolver changes the identity allowed to settle markets.
// PUT /api/admin/resolver
func (h *AdminHandler) SetResolver(w http.ResponseWriter, r *http.Request) {
	var req setResolverRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Caller == "" || req.Resolver == "" {
		writeError(w, http.StatusBadRequest, "missing caller or resolver")
		return
	}

	if err := h.admin.SetResolver(req.Caller, req.Resolver); err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"resolver": req.Resolver})
}

type setFeeRateRequest struct {
	Caller     string `json:"caller"`
	FeeRateBps uint64 `json:"fee_rate_bps"`
}

// SetFeeRate changes the trading fee rate applied to new trades.
// PUT /api/admin/fee-rate
func (h *AdminHandler) SetFeeRate(w http.ResponseWriter, r *http.Request) {
	var req setFeeRateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Caller == "" {
		writeError(w, http.StatusBadRequest, "missing caller")
		return
	}

	if err := h.admin.SetFeeRate(req.Caller, req.FeeRateBps); err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]uint64{"fee_rate_bps": req.FeeRateBps})
}
