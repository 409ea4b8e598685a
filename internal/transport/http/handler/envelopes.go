package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-autopost/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AuthEnvelope wraps login responses.
type AuthEnvelope struct {
	Bearer  string `json:"Bearer,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// VerificationEnvelope wraps single-record responses. ScreenshotURL is a
// presigned link, populated only when a challenge screenshot was captured.
type VerificationEnvelope struct {
	Verification  *domain.VerificationRequest `json:"verification,omitempty"`
	ScreenshotURL string                      `json:"screenshot_url,omitempty"`
	Error         string                      `json:"error,omitempty"`
}

// VerificationListEnvelope wraps list responses. Records are projected to
// summaries; the detail endpoint carries the full record.
type VerificationListEnvelope struct {
	Count int                          `json:"count"`
	Data  []domain.VerificationSummary `json:"data"`
}

// PendingCountEnvelope feeds the dashboard poller.
type PendingCountEnvelope struct {
	Pending int `json:"pending"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps domain sentinel errors to HTTP status codes.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
