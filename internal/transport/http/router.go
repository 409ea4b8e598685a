package http

import (
	"net/http"

	"github.com/go-autopost/internal/application/verification"
	"github.com/go-autopost/internal/config"
	"github.com/go-autopost/internal/transport/http/handler"
	appmiddleware "github.com/go-autopost/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the admin-surface router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.JWTProvider)

	// 5 requests/second, burst of 10 — login and code submission are the
	// endpoints worth brute-forcing.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	svc := verification.NewService(deps.Store, cfg.RetentionMaxAge)

	healthH := handler.NewHealthHandler()
	loginH := handler.NewLoginHandler(deps.AdminAuth, cfg.AdminSessionTTL)
	verifH := handler.NewVerificationHandler(svc, deps.Presigner)
	generateH := handler.NewGenerateHandler(deps.Styler)
	dashH := handler.NewDashboardHandler(svc)

	// ── Public routes (no auth) ──────────────────────────────────────────
	r.Get("/health", healthH.Ping)
	r.Get("/admin/login", dashH.LoginPage)
	r.With(sensitiveRL.Limit).Post("/admin/login", loginH.Login)

	// ── Authenticated routes ─────────────────────────────────────────────
	r.Group(func(r chi.Router) {
		r.Use(authMw)

		r.Get("/admin/", dashH.Index)
		r.Get("/admin/verifications", verifH.List)
		r.Get("/admin/verifications/pending-count", verifH.PendingCount)
		r.Get("/admin/verifications/reset", verifH.Reset)
		r.Get("/admin/verifications/test", verifH.CreateTest)
		r.Get("/admin/verifications/{id}", verifH.Get)
		r.Get("/admin/verifications/{id}/view", dashH.Detail)
		r.With(sensitiveRL.Limit).Post("/admin/verifications/{id}", verifH.SubmitCode)
		r.Post("/admin/verifications/{id}/reject", verifH.Reject)

		r.Post("/api/generate", generateH.Generate)
	})

	return r
}
