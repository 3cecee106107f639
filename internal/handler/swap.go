package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator"

	"github.com/sakif/skillswap/internal/model"
	"github.com/sakif/skillswap/internal/service"
)

// SwapService is the part of service.SwapService the swap and dashboard
// handlers use.
type SwapService interface {
	Create(ctx context.Context, requester *model.User, in service.CreateSwapInput) (*model.SwapRequest, error)
	UpdateStatus(ctx context.Context, swapID, actorID string, next model.SwapStatus) (*model.SwapRequest, error)
	Delete(ctx context.Context, swapID, actorID string) error
	ListSent(ctx context.Context, userID string) ([]model.SwapRequest, error)
	ListReceived(ctx context.Context, userID string) ([]model.SwapRequest, error)
	DashboardStats(ctx context.Context, userID string) (*model.DashboardStats, error)
}

// SwapHandler serves the swap request endpoints and the dashboard.
type SwapHandler struct {
	swaps    SwapService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewSwapHandler creates a SwapHandler.
func NewSwapHandler(swaps SwapService, logger *slog.Logger) *SwapHandler {
	return &SwapHandler{
		swaps:    swaps,
		validate: newValidator(),
		logger:   logger,
	}
}

// CreateSwapRequest is the body of POST /swaps.
type CreateSwapRequest struct {
	RequestedUserID string  `json:"requested_user_id" validate:"required"`
	RequesterSkill  string  `json:"requester_skill" validate:"required,max=100"`
	RequestedSkill  string  `json:"requested_skill" validate:"required,max=100"`
	Message         *string `json:"message" validate:"omitempty,max=1000"`
}

// UpdateSwapStatusRequest is the body of PUT /swaps/{id}.
type UpdateSwapStatusRequest struct {
	Status model.SwapStatus `json:"status" validate:"required,oneof=pending accepted rejected completed cancelled"`
}

func (h *SwapHandler) opLogger(r *http.Request, op string) *slog.Logger {
	return h.logger.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// HandleCreate proposes a swap from the caller to another user.
//
// HTTP: POST /api/swaps
func (h *SwapHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	log := h.opLogger(r, "handler.swaps.create")

	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req CreateSwapRequest
	if !decodeJSON(w, r, log, h.validate, &req) {
		return
	}

	swap, err := h.swaps.Create(r.Context(), user, service.CreateSwapInput{
		RequestedUserID: req.RequestedUserID,
		RequesterSkill:  req.RequesterSkill,
		RequestedSkill:  req.RequestedSkill,
		Message:         req.Message,
	})
	if err != nil {
		writeError(w, r, log, err)
		return
	}

	writeJSON(w, r, http.StatusOK, swap)
}

// HandleListSent lists the requests the caller has made.
//
// HTTP: GET /api/swaps/sent
func (h *SwapHandler) HandleListSent(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "handler.swaps.list_sent", h.swaps.ListSent)
}

// HandleListReceived lists the requests addressed to the caller.
//
// HTTP: GET /api/swaps/received
func (h *SwapHandler) HandleListReceived(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "handler.swaps.list_received", h.swaps.ListReceived)
}

func (h *SwapHandler) list(
	w http.ResponseWriter,
	r *http.Request,
	op string,
	query func(ctx context.Context, userID string) ([]model.SwapRequest, error),
) {
	log := h.opLogger(r, op)

	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	swaps, err := query(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, log, err)
		return
	}

	writeJSON(w, r, http.StatusOK, swaps)
}

// HandleUpdateStatus changes the status of a swap the caller is party to.
//
// HTTP: PUT /api/swaps/{id}
func (h *SwapHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	log := h.opLogger(r, "handler.swaps.update_status")

	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req UpdateSwapStatusRequest
	if !decodeJSON(w, r, log, h.validate, &req) {
		return
	}

	swap, err := h.swaps.UpdateStatus(r.Context(), chi.URLParam(r, "id"), user.ID, req.Status)
	if err != nil {
		writeError(w, r, log, err)
		return
	}

	writeJSON(w, r, http.StatusOK, swap)
}

// HandleDelete removes a swap the caller requested.
//
// HTTP: DELETE /api/swaps/{id}
func (h *SwapHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	log := h.opLogger(r, "handler.swaps.delete")

	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.swaps.Delete(r.Context(), chi.URLParam(r, "id"), user.ID); err != nil {
		writeError(w, r, log, err)
		return
	}

	writeJSON(w, r, http.StatusOK, MessageResponse{Message: "Swap request deleted successfully"})
}
