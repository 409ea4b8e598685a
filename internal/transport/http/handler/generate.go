package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-autopost/internal/domain"
	"github.com/go-autopost/internal/pkg/validate"
)

// ContentStyler rewrites a raw message in the platform's voice.
type ContentStyler interface {
	Style(ctx context.Context, message, platform string) (string, error)
}

// GenerateHandler exposes the content styler to the admin surface.
type GenerateHandler struct {
	styler ContentStyler
}

func NewGenerateHandler(styler ContentStyler) *GenerateHandler {
	return &GenerateHandler{styler: styler}
}

func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req domain.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	styled, err := h.styler.Style(r.Context(), req.Message, req.Platform)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, domain.GenerateResponse{StyledContent: styled, Platform: req.Platform})
}
