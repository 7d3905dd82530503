package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/darshanradadiya/ekharcha/internal/core"
)

func respondJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

func respondMessage(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, map[string]string{"message": message})
}

// respondError maps the domain error taxonomy onto HTTP statuses. notFoundMsg
// names the entity so clients see "Account not found" rather than a generic
// message.
func respondError(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		respondMessage(w, http.StatusBadRequest, ve.Reason)
	case errors.Is(err, core.ErrNotFound):
		respondMessage(w, http.StatusNotFound, notFoundMsg)
	case errors.Is(err, core.ErrForbidden):
		respondMessage(w, http.StatusForbidden, "Not authorized to access this resource")
	case errors.Is(err, core.ErrUnauthorized):
		respondMessage(w, http.StatusUnauthorized, "Invalid or expired token")
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"message": "Internal server error",
			"error":   err.Error(),
		})
	}
}
