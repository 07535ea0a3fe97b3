package http

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gatehouse/internal/auth"
)

// oauthStatePayload holds the CSRF state and optional redirect path.
type oauthStatePayload struct {
	State      string `json:"s"`
	RedirectTo string `json:"r,omitempty"`
}

// isValidRedirectPath validates that a path is a safe relative redirect.
// It prevents open redirect attacks by ensuring the path:
// - Starts with a single "/" (not "//")
// - Has no scheme or host component
// - Cannot be bypassed via URL encoding
func isValidRedirectPath(path string) bool {
	if path == "" {
		return false
	}

	// Decode to catch encoded bypass attempts like /%2f%2f
	decoded, err := url.QueryUnescape(path)
	if err != nil {
		return false
	}

	// Must start with / but not //
	if !strings.HasPrefix(decoded, "/") || strings.HasPrefix(decoded, "//") {
		return false
	}

	// Parse as URL to ensure no scheme or host
	parsed, err := url.Parse(decoded)
	if err != nil {
		return false
	}

	if parsed.Scheme != "" || parsed.Host != "" {
		return false
	}

	return true
}

const (
	oauthStateCookieName = "gatehouse_oauth_state"
	oauthStateCookieTTL  = 10 * time.Minute
	oauthProviderGoogle  = "google"
)

type googleAuthenticator interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.ProviderToken, error)
}

type oauthBridge interface {
	OnExternalSignIn(ctx context.Context, provider, accessToken string) error
	OnSessionMaterialize(ctx context.Context, provider, accessToken string) (auth.Principal, error)
}

// OAuthHandler handles the Google sign-in endpoints. The handshake with
// the provider is delegated to the authenticator; the backend exchange
// goes through the bridge pipeline.
type OAuthHandler struct {
	google       googleAuthenticator
	bridge       oauthBridge
	sessions     *auth.Sessions
	logger       *slog.Logger
	secureCookie bool
	landingPath  string
	loginPath    string
}

// NewOAuthHandler creates an OAuthHandler.
func NewOAuthHandler(google googleAuthenticator, bridge oauthBridge, sessions *auth.Sessions, landingPath, loginPath, env string, logger *slog.Logger) *OAuthHandler {
	return &OAuthHandler{
		google:       google,
		bridge:       bridge,
		sessions:     sessions,
		logger:       logger,
		secureCookie: !strings.EqualFold(env, "development"),
		landingPath:  landingPath,
		loginPath:    loginPath,
	}
}

// InitiateGoogle handles GET /api/auth/google
// Redirects the user to Google's OAuth consent screen.
func (h *OAuthHandler) InitiateGoogle(w http.ResponseWriter, r *http.Request) {
	state, err := auth.GenerateState()
	if err != nil {
		h.logger.Error("failed to generate state", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	// Store state in cookie for CSRF protection
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookieName,
		Value:    state,
		Path:     "/api/auth",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(oauthStateCookieTTL.Seconds()),
	})

	// Preserve callbackUrl query param in state payload
	redirectTo := r.URL.Query().Get("callbackUrl")
	payload := oauthStatePayload{State: state}
	if redirectTo != "" && isValidRedirectPath(redirectTo) {
		payload.RedirectTo = redirectTo
	}

	// Encode state as base64 JSON to avoid delimiter issues
	stateJSON, _ := json.Marshal(payload)
	fullState := base64.RawURLEncoding.EncodeToString(stateJSON)

	http.Redirect(w, r, h.google.AuthURL(fullState), http.StatusTemporaryRedirect)
}

// CallbackGoogle handles GET /api/auth/google/callback
// Exchanges the authorization code with the provider, runs the backend
// bridge pipeline and issues the session cookie.
func (h *OAuthHandler) CallbackGoogle(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(oauthStateCookieName)
	if err != nil {
		h.logger.Warn("oauth callback: missing state cookie")
		h.redirectWithError(w, r, "invalid_request")
		return
	}

	redirectTo := h.landingPath

	stateBytes, err := base64.RawURLEncoding.DecodeString(r.URL.Query().Get("state"))
	if err != nil {
		h.logger.Warn("oauth callback: invalid state encoding")
		h.redirectWithError(w, r, "invalid_request")
		return
	}

	var statePayload oauthStatePayload
	if err := json.Unmarshal(stateBytes, &statePayload); err != nil {
		h.logger.Warn("oauth callback: invalid state JSON")
		h.redirectWithError(w, r, "invalid_request")
		return
	}

	if statePayload.RedirectTo != "" && isValidRedirectPath(statePayload.RedirectTo) {
		redirectTo = statePayload.RedirectTo
	}

	if subtle.ConstantTimeCompare([]byte(statePayload.State), []byte(stateCookie.Value)) != 1 {
		h.logger.Warn("oauth callback: state mismatch")
		h.redirectWithError(w, r, "invalid_request")
		return
	}

	// Clear state cookie
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookieName,
		Value:    "",
		Path:     "/api/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Warn("oauth callback: provider error", "error", errParam)
		h.redirectWithError(w, r, errParam)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.redirectWithError(w, r, "invalid_request")
		return
	}

	providerToken, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("oauth callback: provider exchange failed", "error", err)
		h.redirectWithError(w, r, "exchange_error")
		return
	}

	if !providerToken.EmailVerified {
		h.logger.Warn("oauth callback: provider email not verified", "email", providerToken.Email)
		h.redirectWithError(w, r, "email_not_verified")
		return
	}

	// Gate first, then materialize. Both steps run the same exchange
	// logic against the backend.
	if err := h.bridge.OnExternalSignIn(r.Context(), oauthProviderGoogle, providerToken.AccessToken); err != nil {
		h.logger.Warn("oauth callback: sign-in gate rejected", "error", err)
		h.redirectWithError(w, r, "access_denied")
		return
	}

	principal, err := h.bridge.OnSessionMaterialize(r.Context(), oauthProviderGoogle, providerToken.AccessToken)
	if err != nil {
		h.logger.Error("oauth callback: session materialize failed", "error", err)
		h.redirectWithError(w, r, "access_denied")
		return
	}

	token, err := h.sessions.Issue(principal)
	if err != nil {
		h.logger.Error("oauth callback: session issue failed", "error", err)
		h.redirectWithError(w, r, "internal_error")
		return
	}

	http.SetCookie(w, newSessionCookie(token, h.sessions.TTL(), h.secureCookie))

	h.logger.Info("oauth login successful", "user_id", principal.UserID, "email", principal.Email)

	http.Redirect(w, r, redirectTo, http.StatusTemporaryRedirect)
}

// redirectWithError redirects to the login page with an error code.
func (h *OAuthHandler) redirectWithError(w http.ResponseWriter, r *http.Request, code string) {
	target := h.loginPath + "?error=" + url.QueryEscape(code)
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}
