package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-autopost/internal/application/verification"
	"github.com/go-autopost/internal/domain"
	"github.com/go-autopost/internal/pkg/validate"
	"github.com/go-chi/chi/v5"
)

// ScreenshotPresigner turns a stored screenshot key into a browsable URL.
type ScreenshotPresigner interface {
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// VerificationHandler handles the admin verification endpoints.
type VerificationHandler struct {
	svc       verification.Service
	presigner ScreenshotPresigner
}

func NewVerificationHandler(svc verification.Service, presigner ScreenshotPresigner) *VerificationHandler {
	return &VerificationHandler{svc: svc, presigner: presigner}
}

func (h *VerificationHandler) List(w http.ResponseWriter, r *http.Request) {
	pending, err := h.svc.ListPending(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	summaries := make([]domain.VerificationSummary, 0, len(pending))
	for i := range pending {
		summaries = append(summaries, pending[i].Summary())
	}
	writeJSON(w, http.StatusOK, VerificationListEnvelope{Count: len(summaries), Data: summaries})
}

func (h *VerificationHandler) PendingCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.svc.PendingCount(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PendingCountEnvelope{Pending: count})
}

func (h *VerificationHandler) Get(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	env := VerificationEnvelope{Verification: v}
	if v.ScreenshotKey != "" && h.presigner != nil {
		url, err := h.presigner.PresignedURL(r.Context(), v.ScreenshotKey, 15*time.Minute)
		if err != nil {
			slog.Warn("could not presign screenshot", "id", v.VerificationID, "err", err)
		} else {
			env.ScreenshotURL = url
		}
	}
	writeJSON(w, http.StatusOK, env)
}

func (h *VerificationHandler) SubmitCode(w http.ResponseWriter, r *http.Request) {
	var req domain.SubmitCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	v, err := h.svc.SubmitCode(r.Context(), chi.URLParam(r, "id"), req.Code)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, VerificationEnvelope{Verification: v})
}

func (h *VerificationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Reject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, VerificationEnvelope{Verification: v})
}

// Reset wipes every record. Destructive, so it demands ?confirm=yes.
func (h *VerificationHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "yes" {
		writeError(w, http.StatusBadRequest, "reset requires ?confirm=yes")
		return
	}
	if err := h.svc.Reset(r.Context()); err != nil {
		httpError(w, err)
		return
	}
	slog.Warn("verification store reset by operator")
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "verification store reset"})
}

// CreateTest synthesizes a pending record so the resolution flow can be
// exercised without live automation.
func (h *VerificationHandler) CreateTest(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.CreateTest(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, VerificationEnvelope{Verification: v})
}
