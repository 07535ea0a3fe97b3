package http

import (
	"net/http"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"gatehouse/internal/auth"
	"gatehouse/internal/backend"
	"gatehouse/internal/config"
	"gatehouse/internal/turnstile"
)

// NewRouter wires application routes and middleware using chi.
// The oauthHandler may be nil when Google sign-in is not configured; the
// verifier may be nil when the bot-challenge provider is not configured.
func NewRouter(cfg config.Config, authenticator *auth.Authenticator, oauthHandler *OAuthHandler, client *backend.Client, sessions *auth.Sessions, verifier *turnstile.Verifier, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	metrics := NewMetrics()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(newSlogMiddleware(logger))
	r.Use(metrics.Middleware)
	r.Use(newSecurityHeadersMiddleware(cfg.Environment))

	guard := NewGuard(sessions, cfg)
	r.Use(guard.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":      "ok",
			"environment": cfg.Environment,
		})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	authHandler := NewAuthHandler(authenticator, client, sessions, cfg.Environment, logger)
	accountHandler := NewAccountHandler(client, sessions, logger)
	sessionHandler := NewSessionHandler(sessions, cfg.Environment, logger)
	turnstileHandler := NewTurnstileHandler(verifier, logger)

	r.Route("/api", func(r chi.Router) {
		r.Route("/session", func(r chi.Router) {
			r.Get("/", sessionHandler.Status)
			r.Delete("/", sessionHandler.Logout)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/register", authHandler.Register)
			r.Post("/forgot-password", authHandler.ForgotPassword)
			r.Post("/reset-password", authHandler.ResetPassword)
			r.Post("/send-email-confirmation", authHandler.ResendConfirmation)

			if oauthHandler != nil {
				r.Get("/google", oauthHandler.InitiateGoogle)
				r.Get("/google/callback", oauthHandler.CallbackGoogle)
			}
		})

		r.Get("/check-user-status", authHandler.CheckUserStatus)
		r.Post("/check-user-status", authHandler.CheckUserStatus)

		r.Route("/account", func(r chi.Router) {
			r.Post("/change-password", accountHandler.ChangePassword)
			r.Post("/update", accountHandler.UpdateProfile)
		})

		r.Post("/turnstile/verify", turnstileHandler.Verify)
	})

	r.NotFound(http.NotFoundHandler().ServeHTTP)

	return r
}
