package handler

import (
	"net/http"

	"github.com/sakif/skillswap/internal/model"
)

// DashboardResponse is the body of GET /dashboard.
type DashboardResponse struct {
	User  *model.User           `json:"user"`
	Stats *model.DashboardStats `json:"stats"`
}

// HandleDashboard returns the caller's profile with their swap counts.
//
// HTTP: GET /api/dashboard
func (h *SwapHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	log := h.opLogger(r, "handler.dashboard")

	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	stats, err := h.swaps.DashboardStats(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, log, err)
		return
	}

	writeJSON(w, r, http.StatusOK, DashboardResponse{User: user, Stats: stats})
}
