package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON and writeError so success bodies,
// error bodies and status codes stay consistent across the API.
//
// CONSISTENT ERROR FORMAT:
//
//	{"error": "not_found", "message": "Swap request not found"}
//
// "error" is a machine-readable kind, "message" is for humans.

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/sakif/skillswap/internal/apperror"
	"github.com/sakif/skillswap/internal/auth"
	"github.com/sakif/skillswap/internal/model"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// MessageResponse is a body carrying only a confirmation message.
type MessageResponse struct {
	Message string `json:"message"`
}

// writeJSON sends data as JSON with the given status code.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	render.Status(r, status)
	render.JSON(w, r, data)
}

// writeError maps a domain error to its HTTP status and sends it.
//
//	apperror.ErrValidation   -> 400 validation_error
//	apperror.ErrConflict     -> 400 conflict
//	apperror.ErrUnauthorized -> 401 unauthorized
//	apperror.ErrForbidden    -> 403 forbidden
//	apperror.ErrNotFound     -> 404 not_found
//	anything else            -> 500 internal_error, details logged only
//
// Conflicts are 400 rather than 409: clients of this API treat a duplicate
// email or a duplicate active swap as a bad request.
func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status, kind := http.StatusInternalServerError, "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status, kind = http.StatusBadRequest, "validation_error"
		case errors.Is(err, apperror.ErrConflict):
			status, kind = http.StatusBadRequest, "conflict"
		case errors.Is(err, apperror.ErrUnauthorized):
			status, kind = http.StatusUnauthorized, "unauthorized"
		case errors.Is(err, apperror.ErrForbidden):
			status, kind = http.StatusForbidden, "forbidden"
		case errors.Is(err, apperror.ErrNotFound):
			status, kind = http.StatusNotFound, "not_found"
		}

		if status == http.StatusUnauthorized {
			w.Header().Set("WWW-Authenticate", "Bearer")
		}
		writeJSON(w, r, status, ErrorResponse{Error: kind, Message: appErr.Message})
		return
	}

	// Never expose internal error text; it may contain SQL or file paths.
	log.Error("request failed", slog.String("error", err.Error()))
	writeJSON(w, r, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// newValidator returns a validator that reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON reads the request body into dst and validates it. On failure it
// has already written the 400 response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, log *slog.Logger, v *validator.Validate, dst any) bool {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		log.Debug("failed to decode request body", slog.String("error", err.Error()))
		writeJSON(w, r, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return false
	}

	if err := v.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			writeError(w, r, log, fmt.Errorf("handler: validating request: %w", err))
			return false
		}
		writeJSON(w, r, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: validationMessage(verrs),
		})
		return false
	}
	return true
}

// validationMessage turns validator errors into one readable sentence that
// names every offending field.
func validationMessage(errs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		field := e.Field()
		switch e.ActualTag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("field %s is required", field))
		case "email":
			msgs = append(msgs, fmt.Sprintf("field %s must be a valid email address", field))
		case "max":
			msgs = append(msgs, fmt.Sprintf("field %s must be at most %s long", field, e.Param()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("field %s must be at least %s long", field, e.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("field %s must be one of: %s", field, e.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("field %s is not valid", field))
		}
	}
	return strings.Join(msgs, ", ")
}

// currentUser returns the caller stored by auth.RequireAuth. Routes mounted
// without that middleware get a 401.
func currentUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeJSON(w, r, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Not authenticated",
		})
	}
	return user, ok
}
