package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"gatehouse/internal/auth"
	"gatehouse/internal/backend"
)

// identityBackend is the slice of the backend client the auth endpoints
// consume directly, without going through the authenticator.
type identityBackend interface {
	Register(ctx context.Context, in backend.RegisterInput) (*backend.AuthResponse, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, in backend.ResetPasswordInput) (*backend.AuthResponse, error)
	SendEmailConfirmation(ctx context.Context, email string) error
	FindUserByEmail(ctx context.Context, email string) (*backend.User, error)
}

// AuthHandler exposes the browser-facing authentication endpoints.
type AuthHandler struct {
	authenticator *auth.Authenticator
	backend       identityBackend
	sessions      *auth.Sessions
	secureCookie  bool
	logger        *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authenticator *auth.Authenticator, b identityBackend, sessions *auth.Sessions, env string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authenticator: authenticator,
		backend:       b,
		sessions:      sessions,
		secureCookie:  !strings.EqualFold(env, "development"),
		logger:        logger,
	}
}

// Login handles POST /api/auth/login. A successful attempt materializes
// the session cookie; every rejection leaves the browser without one.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}

	result, err := h.authenticator.Authenticate(r.Context(), payload.Email, payload.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMissingCredentials):
			writeError(w, http.StatusBadRequest, "email and password are required")
		case errors.Is(err, auth.ErrUnverified):
			writeErrorCode(w, http.StatusUnauthorized, "your account email is not confirmed", "email_not_confirmed")
		case errors.Is(err, auth.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "invalid email or password")
		default:
			h.logger.Error("login failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	token, err := h.sessions.Issue(auth.PrincipalFromResult(*result))
	if err != nil {
		h.logger.Error("session issue failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	http.SetCookie(w, newSessionCookie(token, h.sessions.TTL(), h.secureCookie))
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"user": auth.PrincipalFromResult(*result).View(),
	})
}

// Register handles POST /api/auth/register. The backend sends the
// confirmation email; no session is issued until the account confirms.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}

	if payload.Username == "" || payload.Email == "" || payload.Password == "" {
		writeError(w, http.StatusBadRequest, "username, email and password are required")
		return
	}

	resp, err := h.backend.Register(r.Context(), backend.RegisterInput{
		Username: payload.Username,
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		var berr *backend.Error
		if !errors.As(err, &berr) {
			h.logger.Error("register failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		switch berr.Code {
		case backend.CodeEmailTaken:
			writeError(w, http.StatusBadRequest, "email or username already in use")
		case backend.CodePasswordPolicy:
			writeError(w, http.StatusBadRequest, "password does not meet the requirements")
		default:
			writeError(w, statusForBackendError(berr), "registration failed")
		}
		return
	}

	if resp == nil || resp.User == nil {
		h.logger.Error("register response missing user record")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	// The backend-issued token is deliberately not returned.
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"user": map[string]any{
			"id":       resp.User.ID,
			"username": resp.User.Username,
			"email":    resp.User.Email,
		},
	})
}

// ForgotPassword handles POST /api/auth/forgot-password. The response is
// identical whether or not the account exists.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	email, ok := h.decodeEmail(w, r)
	if !ok {
		return
	}

	if err := h.backend.ForgotPassword(r.Context(), email); err != nil {
		h.logger.Error("forgot password failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not process the request, try again later")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"message": "if the address exists, a reset link has been sent",
	})
}

// ResetPassword handles POST /api/auth/reset-password.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Code                 string `json:"code"`
		Password             string `json:"password"`
		PasswordConfirmation string `json:"passwordConfirmation"`
	}
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}

	if payload.Code == "" || payload.Password == "" || payload.PasswordConfirmation == "" {
		writeError(w, http.StatusBadRequest, "code, password and password confirmation are required")
		return
	}
	if payload.Password != payload.PasswordConfirmation {
		writeError(w, http.StatusBadRequest, "passwords do not match")
		return
	}

	_, err := h.backend.ResetPassword(r.Context(), backend.ResetPasswordInput{
		Code:                 payload.Code,
		Password:             payload.Password,
		PasswordConfirmation: payload.PasswordConfirmation,
	})
	if err != nil {
		var berr *backend.Error
		if !errors.As(err, &berr) {
			h.logger.Error("reset password failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		switch berr.Code {
		case backend.CodeInvalidResetCode:
			writeError(w, http.StatusBadRequest, "the reset code is invalid or has expired")
		case backend.CodePasswordPolicy:
			writeError(w, http.StatusBadRequest, "password does not meet the requirements")
		default:
			writeError(w, statusForBackendError(berr), "could not reset the password")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// ResendConfirmation handles POST /api/auth/send-email-confirmation.
// Like ForgotPassword it never reveals whether the account exists.
func (h *AuthHandler) ResendConfirmation(w http.ResponseWriter, r *http.Request) {
	email, ok := h.decodeEmail(w, r)
	if !ok {
		return
	}

	if err := h.backend.SendEmailConfirmation(r.Context(), email); err != nil {
		h.logger.Error("resend confirmation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not process the request, try again later")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"message": "if the address exists, a confirmation email has been sent",
	})
}

// CheckUserStatus handles GET and POST /api/check-user-status. Backend
// lookup rejections for unknown addresses read as "does not exist".
func (h *AuthHandler) CheckUserStatus(w http.ResponseWriter, r *http.Request) {
	var email string
	if r.Method == http.MethodGet {
		email = strings.TrimSpace(r.URL.Query().Get("email"))
	} else {
		var ok bool
		email, ok = h.decodeEmail(w, r)
		if !ok {
			return
		}
	}
	if email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	user, err := h.backend.FindUserByEmail(r.Context(), email)
	if err != nil {
		var berr *backend.Error
		if errors.As(err, &berr) && (berr.Status == http.StatusBadRequest || berr.Status == http.StatusNotFound) {
			writeJSON(w, http.StatusOK, map[string]any{"ok": true, "exists": false, "confirmed": false})
			return
		}
		h.logger.Error("user status lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if user == nil {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "exists": false, "confirmed": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "exists": true, "confirmed": user.Confirmed})
}

func (h *AuthHandler) decodeEmail(w http.ResponseWriter, r *http.Request) (string, bool) {
	var payload struct {
		Email string `json:"email"`
	}
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return "", false
	}
	email := strings.TrimSpace(payload.Email)
	if email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return "", false
	}
	return email, true
}

func statusForBackendError(err *backend.Error) int {
	if err.Status >= 400 && err.Status < 500 {
		return err.Status
	}
	return http.StatusInternalServerError
}
