package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"locallink/pkg/types"
)

func (s *Service) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("failed to encode response")
	}
}

// respondError maps the error taxonomy onto HTTP statuses. The body always
// carries a machine-readable reason plus whatever the concrete error knows.
func (s *Service) respondError(w http.ResponseWriter, err error) {
	body := map[string]any{"error": err.Error()}

	var status int
	switch {
	case errors.Is(err, types.ErrPostNotFound):
		status = http.StatusNotFound

	case errors.Is(err, types.ErrConflict):
		status = http.StatusConflict

	case errors.Is(err, types.ErrRateLimited):
		status = http.StatusTooManyRequests
		var rle *types.RateLimitError
		if errors.As(err, &rle) {
			body["retry_after_seconds"] = int(rle.RetryAfter.Seconds()) + 1
		}

	case errors.Is(err, types.ErrValidation):
		status = http.StatusUnprocessableEntity
		var ve *types.ValidationError
		if errors.As(err, &ve) {
			body["fields"] = ve.Fields
		}

	default:
		s.logger.WithError(err).Error("internal error")
		status = http.StatusInternalServerError
		body["error"] = "internal error"
	}

	s.respondJSON(w, status, body)
}
