package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-autopost/internal/application/admin"
	"github.com/go-autopost/internal/transport/http/middleware"
)

// LoginHandler handles the shared-credential admin gate.
type LoginHandler struct {
	svc       admin.Service
	cookieTTL time.Duration
}

func NewLoginHandler(svc admin.Service, cookieTTL time.Duration) *LoginHandler {
	return &LoginHandler{svc: svc, cookieTTL: cookieTTL}
}

// Login checks the shared credential and issues a session token, both in
// the response body for API clients and as a cookie for the dashboard.
func (h *LoginHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password == "" {
		writeError(w, http.StatusBadRequest, "password required")
		return
	}
	token, err := h.svc.Login(req.Password)
	if err != nil {
		httpError(w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cookieTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, AuthEnvelope{Bearer: token})
}
