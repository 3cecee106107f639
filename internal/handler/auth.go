package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator"
	"github.com/rs/xid"

	"github.com/sakif/skillswap/internal/auth"
	"github.com/sakif/skillswap/internal/model"
	"github.com/sakif/skillswap/internal/service"
)

// AuthService is the part of service.AuthService the auth handlers use.
type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
	LoginWithGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*service.AuthResult, error)
}

// GitHubOAuth runs the GitHub authorization code flow. *auth.GitHubProvider
// implements it.
type GitHubOAuth interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GitHubUser, error)
}

// AuthHandler serves registration, password login and GitHub sign-in.
//
//   - HandleRegister       -> create an account, answer with a token
//   - HandleLogin          -> check credentials, answer with a token
//   - HandleGitHubLogin    -> redirect the browser to GitHub
//   - HandleGitHubCallback -> finish the GitHub flow, answer with a token
type AuthHandler struct {
	auth     AuthService
	github   GitHubOAuth // nil when GitHub sign-in is not configured
	validate *validator.Validate
	logger   *slog.Logger
}

// NewAuthHandler creates an AuthHandler. Pass a nil github to disable the
// GitHub routes; they then answer 404.
func NewAuthHandler(authSvc AuthService, github GitHubOAuth, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:     authSvc,
		github:   github,
		validate: newValidator(),
		logger:   logger,
	}
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,max=72"`
	Name     string  `json:"name" validate:"required,max=100"`
	Location *string `json:"location" validate:"omitempty,max=200"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is returned by every successful sign-in.
type TokenResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        *model.User `json:"user"`
}

func tokenResponse(res *service.AuthResult) TokenResponse {
	return TokenResponse{AccessToken: res.Token, TokenType: "bearer", User: res.User}
}

// HandleRegister creates an account.
//
// HTTP: POST /api/auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	const op = "handler.auth.register"
	log := h.logger.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req RegisterRequest
	if !decodeJSON(w, r, log, h.validate, &req) {
		return
	}

	res, err := h.auth.Register(r.Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Location: req.Location,
	})
	if err != nil {
		writeError(w, r, log, err)
		return
	}

	writeJSON(w, r, http.StatusOK, tokenResponse(res))
}

// HandleLogin exchanges email and password for a token.
//
// HTTP: POST /api/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	const op = "handler.auth.login"
	log := h.logger.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req LoginRequest
	if !decodeJSON(w, r, log, h.validate, &req) {
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, log, err)
		return
	}

	writeJSON(w, r, http.StatusOK, tokenResponse(res))
}

const oauthStateCookie = "oauth_state"

// HandleGitHubLogin redirects the browser to GitHub's authorization page.
//
// HTTP: GET /api/auth/github/login
//
// CSRF PROTECTION VIA STATE:
// A random state value goes into a short-lived HttpOnly cookie and into the
// authorization URL. The callback only proceeds when the two match, which
// proves the flow was started by this browser.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		writeJSON(w, r, http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "GitHub sign-in is not enabled"})
		return
	}

	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback finishes the GitHub flow and answers with a token,
// exactly like password login.
//
// HTTP: GET /api/auth/github/callback?code=xxx&state=yyy
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	const op = "handler.auth.github_callback"
	log := h.logger.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if h.github == nil {
		writeJSON(w, r, http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "GitHub sign-in is not enabled"})
		return
	}

	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		log.Warn("state cookie missing or mismatched")
		writeJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "Invalid OAuth state"})
		return
	}

	// The state is single-use.
	http.SetCookie(w, &http.Cookie{
		Name:   oauthStateCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		log.Info("user denied authorization", slog.String("error", errParam))
		writeJSON(w, r, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "GitHub authorization was denied"})
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "Missing OAuth code"})
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		log.Error("GitHub exchange failed", slog.String("error", err.Error()))
		writeJSON(w, r, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "GitHub authentication failed"})
		return
	}

	res, err := h.auth.LoginWithGitHub(r.Context(), ghUser)
	if err != nil {
		writeError(w, r, log, err)
		return
	}

	writeJSON(w, r, http.StatusOK, tokenResponse(res))
}
