package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator"

	"github.com/sakif/skillswap/internal/model"
)

// ProfileService is the part of service.ProfileService the user handlers use.
type ProfileService interface {
	Update(ctx context.Context, user *model.User, p model.Profile) (*model.User, error)
	Search(ctx context.Context, caller *model.User, skill, location string) ([]model.User, error)
	GetPublic(ctx context.Context, id string) (*model.User, error)
}

// UserHandler serves the caller's own profile, public profiles and search.
type UserHandler struct {
	profiles ProfileService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(profiles ProfileService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		profiles: profiles,
		validate: newValidator(),
		logger:   logger,
	}
}

// UpdateProfileRequest is the body of PUT /users/me. It replaces the whole
// profile: omitted optional fields are cleared, omitted skill lists become
// empty and an omitted is_profile_public means public.
type UpdateProfileRequest struct {
	Name            string   `json:"name" validate:"required,max=100"`
	Location        *string  `json:"location" validate:"omitempty,max=200"`
	ProfilePhoto    *string  `json:"profile_photo" validate:"omitempty,max=2048"`
	SkillsOffered   []string `json:"skills_offered" validate:"max=50,dive,max=100"`
	SkillsWanted    []string `json:"skills_wanted" validate:"max=50,dive,max=100"`
	Availability    *string  `json:"availability" validate:"omitempty,max=200"`
	IsProfilePublic *bool    `json:"is_profile_public"`
}

func (req UpdateProfileRequest) profile() model.Profile {
	public := true
	if req.IsProfilePublic != nil {
		public = *req.IsProfilePublic
	}
	return model.Profile{
		Name:            req.Name,
		Location:        req.Location,
		ProfilePhoto:    req.ProfilePhoto,
		SkillsOffered:   req.SkillsOffered,
		SkillsWanted:    req.SkillsWanted,
		Availability:    req.Availability,
		IsProfilePublic: public,
	}
}

// HandleMe returns the caller's own profile, public or not.
//
// HTTP: GET /api/users/me
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, user)
}

// HandleUpdateMe replaces the caller's profile.
//
// HTTP: PUT /api/users/me
func (h *UserHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	const op = "handler.users.update_me"
	log := h.logger.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if !decodeJSON(w, r, log, h.validate, &req) {
		return
	}

	updated, err := h.profiles.Update(r.Context(), user, req.profile())
	if err != nil {
		writeError(w, r, log, err)
		return
	}

	writeJSON(w, r, http.StatusOK, updated)
}

// HandleSearch lists public profiles by offered skill and location.
//
// HTTP: GET /api/users/search?skill=spanish&location=madrid
func (h *UserHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	const op = "handler.users.search"
	log := h.logger.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	users, err := h.profiles.Search(r.Context(), user, q.Get("skill"), q.Get("location"))
	if err != nil {
		writeError(w, r, log, err)
		return
	}

	writeJSON(w, r, http.StatusOK, users)
}

// HandleGet returns a public profile by ID.
//
// HTTP: GET /api/users/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "handler.users.get"
	log := h.logger.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if _, ok := currentUser(w, r); !ok {
		return
	}

	user, err := h.profiles.GetPublic(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, log, err)
		return
	}

	writeJSON(w, r, http.StatusOK, user)
}
