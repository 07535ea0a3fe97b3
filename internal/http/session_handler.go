package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"gatehouse/internal/auth"
)

const sessionCookieName = "gatehouse_session"

func newSessionCookie(value string, ttl time.Duration, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     sessionCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
	}
}

func clearedSessionCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	}
}

// principalFromRequest unpacks the session cookie, if any. Any parse
// failure means "no session".
func principalFromRequest(r *http.Request, sessions *auth.Sessions) *auth.Principal {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	principal, err := sessions.Parse(cookie.Value)
	if err != nil {
		return nil
	}
	return principal
}

// SessionHandler exposes the session status and logout endpoints.
type SessionHandler struct {
	sessions     *auth.Sessions
	secureCookie bool
	logger       *slog.Logger
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(sessions *auth.Sessions, env string, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		sessions:     sessions,
		secureCookie: !strings.EqualFold(env, "development"),
		logger:       logger,
	}
}

// Status reports whether the request holds a valid session. The response
// carries the outward-facing view only; the backend token never leaves
// the server.
func (h *SessionHandler) Status(w http.ResponseWriter, r *http.Request) {
	principal := principalFromRequest(r, h.sessions)
	if principal == nil {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user":          principal.View(),
	})
}

// Logout removes the session cookie, if present.
func (h *SessionHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, clearedSessionCookie(h.secureCookie))
	w.WriteHeader(http.StatusNoContent)
}
