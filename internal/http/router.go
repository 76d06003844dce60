package http

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/fitpulse/fitpulse-api/internal/auth"
	"github.com/fitpulse/fitpulse-api/internal/compare"
	"github.com/fitpulse/fitpulse-api/internal/config"
	"github.com/fitpulse/fitpulse-api/internal/group"
	"github.com/fitpulse/fitpulse-api/internal/httputil"
	"github.com/fitpulse/fitpulse-api/internal/logging"
	"github.com/fitpulse/fitpulse-api/internal/notification"
	"github.com/fitpulse/fitpulse-api/internal/progress"
	"github.com/fitpulse/fitpulse-api/internal/settings"
	"github.com/fitpulse/fitpulse-api/internal/subscription"
	"github.com/fitpulse/fitpulse-api/internal/user"
)

// Handlers bundles the per-domain HTTP handlers the router mounts
type Handlers struct {
	Auth          *auth.Handler
	Users         *user.Handler
	Groups        *group.Handler
	Progress      *progress.Handler
	Compare       *compare.Handler
	Notifications *notification.Handler
	Settings      *settings.Handler
	Subscriptions *subscription.Handler
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, h Handlers, authMiddleware *auth.Middleware, logger *logging.Logger) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders)               // Security headers on all responses
	r.Use(middleware.Recoverer)          // Recover from panics
	r.Use(middleware.RequestID)          // Add request ID
	r.Use(middleware.RealIP)             // Set RemoteAddr to real IP
	r.Use(logging.RequestLogger(logger)) // Structured logging with request context
	r.Use(middleware.Compress(5))        // Compress responses

	// Public routes
	r.Get("/health", handleHealth)

	// Swagger UI - only in development
	// Production builds will not have this route at all
	if cfg.Server.IsDevelopment() {
		log.Println("Swagger UI enabled at /swagger/*")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	}

	// Auth routes (public)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Auth.Register)
		r.Post("/login", h.Auth.Login)
		r.Post("/refresh", h.Auth.Refresh)
		r.Post("/logout", h.Auth.Logout)
		r.Post("/forgot-password", h.Auth.ForgotPassword)
		r.Post("/reset-password", h.Auth.ResetPassword)

		// Authenticated auth routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireAuth)
			r.Get("/me", h.Auth.Me)
			r.Post("/change-password", h.Auth.ChangePassword)
		})
	})

	// Payment provider webhook (provider-authenticated, no bearer token)
	r.Post("/subscriptions/webhook", h.Subscriptions.Webhook)

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)

		r.Mount("/users", h.Users.Routes())
		r.Mount("/groups", h.Groups.Routes())
		r.Mount("/progress", h.Progress.Routes())
		r.Mount("/compare", h.Compare.Routes())
		r.Mount("/notifications", h.Notifications.Routes())
		r.Mount("/settings", h.Settings.Routes())
		r.Mount("/subscriptions", h.Subscriptions.Routes())
	})

	return r
}

// handleHealth is a simple health check endpoint
// @Summary      Health check
// @Description  Check if the API is running
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /health [get]
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "api is running"}, http.StatusOK)
}
