package processor

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pauljones0/swapThemes/internal/logger"
	"github.com/pauljones0/swapThemes/internal/store"
	"github.com/pauljones0/swapThemes/internal/suggest"
)

type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps known errors to a status code; anything else is a 500 with the cause logged, not returned.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msg := http.StatusInternalServerError, "internal", "internal error"
	switch {
	case errors.Is(err, suggest.ErrInvalidArgument):
		status, code, msg = http.StatusBadRequest, "invalid_argument", err.Error()
	case errors.Is(err, store.ErrNotFound):
		status, code, msg = http.StatusNotFound, "not_found", "not found"
	default:
		logger.Error(r.Context(), "Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorBody{Error: msg, Code: code, RequestID: logger.GetRequestID(r.Context())})
}

func writeStatus(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: msg, Code: code, RequestID: logger.GetRequestID(r.Context())})
}
