package http

import (
	"net/http"
	"net/url"
	"strings"

	"gatehouse/internal/auth"
	"gatehouse/internal/config"
)

// RouteClass is the static classification of a request path.
type RouteClass int

const (
	// RouteOther passes through the guard untouched.
	RouteOther RouteClass = iota
	// RouteProtected requires an authenticated session.
	RouteProtected
	// RouteAuthOnly is for signed-out visitors (login, register pages).
	RouteAuthOnly
)

// Guard redirects between protected and auth-only routes based on
// session presence. It runs once per request, before any handler.
type Guard struct {
	sessions    *auth.Sessions
	protected   []string
	authOnly    []string
	landingPath string
	loginPath   string
}

// NewGuard creates a Guard from the configured route prefixes.
func NewGuard(sessions *auth.Sessions, cfg config.Config) *Guard {
	return &Guard{
		sessions:    sessions,
		protected:   cfg.ProtectedRoutes,
		authOnly:    cfg.AuthRoutes,
		landingPath: cfg.LandingPath,
		loginPath:   cfg.LoginPath,
	}
}

// Classify maps a path onto its route class by prefix match.
func (g *Guard) Classify(path string) RouteClass {
	for _, prefix := range g.authOnly {
		if strings.HasPrefix(path, prefix) {
			return RouteAuthOnly
		}
	}
	for _, prefix := range g.protected {
		if strings.HasPrefix(path, prefix) {
			return RouteProtected
		}
	}
	return RouteOther
}

// Middleware applies the per-request redirect decision. A session whose
// email is unverified never counts as authenticated for protected
// routes; such principals can only come from sessions issued before the
// reject-unverified policy and carry the flag for display purposes.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := principalFromRequest(r, g.sessions)
		authenticated := principal != nil && principal.EmailVerified

		switch g.Classify(r.URL.Path) {
		case RouteAuthOnly:
			if authenticated {
				http.Redirect(w, r, g.landingPath, http.StatusTemporaryRedirect)
				return
			}
		case RouteProtected:
			if !authenticated {
				target := g.loginPath + "?callbackUrl=" + url.QueryEscape(r.URL.Path)
				http.Redirect(w, r, target, http.StatusTemporaryRedirect)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}
