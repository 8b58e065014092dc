package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/pratik-mahalle/tiergate/internal/api/handlers"
	"github.com/pratik-mahalle/tiergate/internal/api/middleware"
	"github.com/pratik-mahalle/tiergate/internal/auth"
	"github.com/pratik-mahalle/tiergate/internal/config"
	"github.com/pratik-mahalle/tiergate/internal/pkg/logger"
	"github.com/pratik-mahalle/tiergate/internal/pkg/metrics"
)

type Handlers struct {
	Health  *handlers.HealthHandler
	Auth    *handlers.AuthHandler
	Chat    *handlers.ChatHandler
	Billing *handlers.BillingHandler
	Admin   *handlers.AdminHandler

	// Users re-reads roles on admin routes
	Users middleware.RoleLookup
}

// New builds the API router. limiter may be nil to disable rate limiting.
func New(cfg *config.Config, log *logger.Logger, issuer *auth.Issuer, limiter *middleware.RateLimiter, h *Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.CleanPath)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(metrics.Middleware)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(cfg.Server.FrontendURL))

	rateLimit := func(next http.Handler) http.Handler { return next }
	if limiter != nil {
		rateLimit = middleware.RateLimit(limiter)
	}

	// Probes and docs
	r.Get("/healthz", h.Health.Healthz)
	r.Get("/readyz", h.Health.Readyz)
	r.Handle("/metrics", metrics.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Group(func(r chi.Router) {
			r.Use(rateLimit)
			r.Post("/auth/register", h.Auth.Register)
			r.Post("/auth/login", h.Auth.Login)
			r.Post("/auth/refresh", h.Auth.Refresh)
			r.Post("/auth/logout", h.Auth.Logout)
		})

		// Stripe signs webhooks, so they skip token auth and rate limits
		r.Post("/billing/webhook", h.Billing.Webhook)

		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuthMiddleware(issuer))
			r.Get("/plans", h.Billing.ListPlans)
		})

		// Protected routes (require authentication)
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(issuer))
			r.Use(rateLimit)

			r.Get("/auth/me", h.Auth.Me)
			r.Post("/chat", h.Chat.Send)
			r.Get("/usage", h.Chat.Usage)
			r.Post("/billing/checkout", h.Billing.Checkout)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin(h.Users))
				r.Post("/billing/subscription", h.Billing.ChangePlan)
				r.Get("/admin/users", h.Admin.ListUsers)
				r.Post("/admin/users/{id}/role", h.Admin.SetRole)
			})
		})
	})

	return r
}
