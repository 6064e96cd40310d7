/**
 * @description
 * This file sets up the HTTP router for the subscription tracker API using
 * go-chi/chi. Account routes are public but rate limited; everything under
 * /subscriptions requires a bearer token.
 */
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/subtrack/subtrack-backend/internal/config"
)

const authRateLimitWindow = time.Minute

// NewRouter creates a new Chi router and registers all API routes.
func NewRouter(h *Handler, tokens TokenVerifier, limiter RateLimiter, cfg config.Config, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// LoadConfig already rejected malformed entries.
	trusted, _ := cfg.TrustedProxyPrefixes()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any major browsers
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Subscription tracker is healthy"))
	})

	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(RateLimitMiddleware(limiter, "auth", cfg.AuthRateLimitPerMinute, authRateLimitWindow, trusted, logger))
			r.Post("/register", h.RegisterHandler)
			r.Post("/login", h.LoginHandler)
		})
		r.With(AuthMiddleware(tokens)).Get("/me", h.MeHandler)
	})

	r.Route("/subscriptions", func(r chi.Router) {
		r.Use(AuthMiddleware(tokens))

		r.Get("/", h.ListSubscriptionsHandler)
		r.Post("/", h.CreateSubscriptionHandler)
		r.Get("/stats", h.StatsHandler)
		r.Get("/categories", h.CategoriesHandler)
		r.Get("/export.xlsx", h.ExportHandler)
		r.Get("/{id}", h.GetSubscriptionHandler)
		r.Put("/{id}", h.UpdateSubscriptionHandler)
		r.Delete("/{id}", h.DeleteSubscriptionHandler)
	})

	return r
}
