package handler

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-autopost/internal/application/verification"
	"github.com/go-chi/chi/v5"
)

//go:embed templates/*.html
var templateFS embed.FS

// DashboardHandler serves the server-rendered operator pages. The pages are
// glue around the JSON API: the list self-refreshes every 30s as a fallback
// while a small script polls the pending count every 2s for the badge and
// audio cue.
type DashboardHandler struct {
	svc  verification.Service
	tmpl *template.Template
}

func NewDashboardHandler(svc verification.Service) *DashboardHandler {
	return &DashboardHandler{
		svc:  svc,
		tmpl: template.Must(template.ParseFS(templateFS, "templates/*.html")),
	}
}

func (h *DashboardHandler) LoginPage(w http.ResponseWriter, _ *http.Request) {
	h.render(w, "login.html", nil)
}

func (h *DashboardHandler) Index(w http.ResponseWriter, r *http.Request) {
	pending, err := h.svc.ListPending(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.render(w, "dashboard.html", map[string]interface{}{
		"Pending": pending,
		"Count":   len(pending),
	})
}

func (h *DashboardHandler) Detail(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	h.render(w, "detail.html", map[string]interface{}{"V": v})
}

func (h *DashboardHandler) render(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("template render failed", "template", name, "err", err)
	}
}
