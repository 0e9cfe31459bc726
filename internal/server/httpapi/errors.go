package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/lumina-journal/lumina/internal/annotate"
	"github.com/lumina-journal/lumina/internal/errs"
)

type errorPayload struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorPayload{Error: msg})
}

// writeError maps service errors onto HTTP statuses. Unknown errors become
// an opaque 500 so internals never leak to clients.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errs.ErrBadCredentials):
		writeJSONError(w, http.StatusUnauthorized, "bad credentials")
	case errors.Is(err, errs.ErrUnauthorized):
		writeJSONError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, errs.ErrEmailNotConfirmed):
		writeJSONError(w, http.StatusForbidden, "email not confirmed")
	case errors.Is(err, errs.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "not found")
	case errors.Is(err, errs.ErrAlreadyExists):
		writeJSONError(w, http.StatusConflict, "already exists")
	case errors.Is(err, errs.ErrRateLimited):
		writeJSONError(w, http.StatusTooManyRequests, "rate limited")
	case errors.Is(err, annotate.ErrTooShort):
		writeJSONError(w, http.StatusUnprocessableEntity, "text too short")
	case isValidation(err):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, "internal")
	}
}

// Services prefix validation errors so handlers do not need typed errors for
// every rejected field.
func isValidation(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "validation:")
}
