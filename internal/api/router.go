package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/auth-api/internal/api/handlers"
	"github.com/isdelr/auth-api/internal/auth"
	"github.com/isdelr/auth-api/internal/config"
	"github.com/isdelr/auth-api/internal/services"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(cfg *config.Config, issuer *auth.Issuer, userService services.UserServiceProvider) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration; origins come from config so the frontend URL
	// is not baked into the binary. Credentials must be allowed for the
	// session cookie to travel cross-origin.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, issuer, cfg)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)

		// Token-protected routes
		r.Group(func(r chi.Router) {
			r.Use(issuer.Middleware())
			r.Get("/me", authHandler.Me)
		})
	})

	return r
}
