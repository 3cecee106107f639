package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/sakif/skillswap/internal/apperror"
	"github.com/sakif/skillswap/internal/model"
)

// contextKey is unexported so only this package can read or write the
// caller stored in a request context.
type contextKey string

const userKey contextKey = "user"

// Authenticator resolves a bearer token to the user it was issued for.
// service.AuthService implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// It reads "Authorization: Bearer <token>", resolves the token to a user
// through the Authenticator and stores that user in the request context.
// A missing header, a malformed, expired or forged token, or a token whose
// user no longer exists all stop the chain with 401 Unauthorized. Any other
// Authenticate failure, such as the user lookup hitting a database error,
// answers 500 so the client does not discard a valid token.
//
// Chi applies middlewares in a chain: req -> M1 -> M2 -> Handler -> M2 -> M1 -> resp
func RequireAuth(authn Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w, r, "not authenticated")
				return
			}

			user, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				log := logger.With(slog.String("request_id", chimiddleware.GetReqID(r.Context())))

				if !errors.Is(err, apperror.ErrUnauthorized) {
					log.Error("authenticating request", slog.String("error", err.Error()))
					internalError(w, r)
					return
				}

				log.Debug("bearer token rejected", slog.String("error", err.Error()))
				msg := "invalid token"
				var appErr *apperror.AppError
				if errors.As(err, &appErr) {
					msg = appErr.Message
				}
				unauthorized(w, r, msg)
				return
			}

			ctx := WithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithUser returns a copy of ctx carrying the authenticated user.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext retrieves the authenticated user from the request context.
// Returns (nil, false) outside a RequireAuth-protected route.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok && u != nil
}

// bearerToken extracts the token from the Authorization header. The scheme
// is matched case-insensitively.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, map[string]string{
		"error":   "unauthorized",
		"message": msg,
	})
}

func internalError(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, map[string]string{
		"error":   "internal_error",
		"message": "An internal error occurred",
	})
}
