package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config aggregates runtime configuration for the Gatehouse service.
type Config struct {
	Environment    string   `env:"APP_ENV" envDefault:"development"`
	HTTPPort       int      `env:"PORT" envDefault:"8080"`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"info"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:8080"`
	PublicURL      string   `env:"PUBLIC_URL" envDefault:"http://localhost:8080"`

	// Identity backend. Both values are required; the backend holds all
	// durable user state and every auth flow goes through it.
	BackendURL   string `env:"BACKEND_URL"`
	BackendToken string `env:"BACKEND_TOKEN"`

	SessionSecret string        `env:"SESSION_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"12h"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL"`

	TurnstileSecret string `env:"TURNSTILE_SECRET_KEY"`

	ProtectedRoutes []string `env:"PROTECTED_ROUTES" envSeparator:"," envDefault:"/dashboard,/profile,/settings"`
	AuthRoutes      []string `env:"AUTH_ROUTES" envSeparator:"," envDefault:"/auth/login,/auth/register"`
	LandingPath     string   `env:"LANDING_PATH" envDefault:"/dashboard"`
	LoginPath       string   `env:"LOGIN_PATH" envDefault:"/auth/login"`
}

// MissingError reports required configuration that was not provided.
// It is returned at startup; a missing value is never a per-request error.
type MissingError struct {
	Vars []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("config: missing required environment variables: %s", strings.Join(e.Vars, ", "))
}

// Load reads configuration from environment variables and validates
// the values the service cannot run without.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}

	cfg.BackendURL = strings.TrimRight(strings.TrimSpace(cfg.BackendURL), "/")
	cfg.BackendToken = strings.TrimSpace(cfg.BackendToken)
	cfg.SessionSecret = strings.TrimSpace(cfg.SessionSecret)

	var missing []string
	if cfg.BackendURL == "" {
		missing = append(missing, "BACKEND_URL")
	}
	if cfg.BackendToken == "" {
		missing = append(missing, "BACKEND_TOKEN")
	}
	if cfg.SessionSecret == "" {
		missing = append(missing, "SESSION_SECRET")
	}
	if len(missing) > 0 {
		return Config{}, &MissingError{Vars: missing}
	}

	return cfg, nil
}

// HTTPAddress returns the address the HTTP server should bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// GoogleEnabled reports whether Google sign-in is configured.
func (c Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRedirectURL != ""
}

// TurnstileEnabled reports whether bot-challenge verification is configured.
func (c Config) TurnstileEnabled() bool {
	return c.TurnstileSecret != ""
}
