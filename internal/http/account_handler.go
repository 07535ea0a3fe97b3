package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"gatehouse/internal/auth"
	"gatehouse/internal/backend"
)

type accountBackend interface {
	ChangePassword(ctx context.Context, userToken string, in backend.ChangePasswordInput) error
	UpdateUser(ctx context.Context, userToken string, userID int, in backend.UpdateUserInput) (*backend.User, error)
}

// AccountHandler exposes the authenticated account-management endpoints.
// Calls are forwarded with the session's backend token, never the
// service token.
type AccountHandler struct {
	backend  accountBackend
	sessions *auth.Sessions
	logger   *slog.Logger
}

// NewAccountHandler creates an AccountHandler.
func NewAccountHandler(b accountBackend, sessions *auth.Sessions, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{backend: b, sessions: sessions, logger: logger}
}

// ChangePassword handles POST /api/account/change-password.
func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	principal := principalFromRequest(r, h.sessions)
	if principal == nil || principal.BackendToken == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var payload struct {
		CurrentPassword      string `json:"currentPassword"`
		Password             string `json:"password"`
		PasswordConfirmation string `json:"passwordConfirmation"`
	}
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}

	if payload.CurrentPassword == "" || payload.Password == "" || payload.PasswordConfirmation == "" {
		writeError(w, http.StatusBadRequest, "all fields are required")
		return
	}
	if payload.Password != payload.PasswordConfirmation {
		writeError(w, http.StatusBadRequest, "passwords do not match")
		return
	}

	err := h.backend.ChangePassword(r.Context(), principal.BackendToken, backend.ChangePasswordInput{
		CurrentPassword:      payload.CurrentPassword,
		Password:             payload.Password,
		PasswordConfirmation: payload.PasswordConfirmation,
	})
	if err != nil {
		var berr *backend.Error
		if !errors.As(err, &berr) {
			h.logger.Error("change password failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeError(w, statusForBackendError(berr), "could not change the password")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// UpdateProfile handles POST /api/account/update. Absent fields are left
// untouched on the backend.
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	principal := principalFromRequest(r, h.sessions)
	if principal == nil || principal.BackendToken == "" || principal.UserID == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var payload struct {
		Name  *string `json:"name"`
		Phone *string `json:"phone"`
	}
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}

	if payload.Name == nil && payload.Phone == nil {
		writeError(w, http.StatusBadRequest, "no fields to update")
		return
	}

	userID, err := strconv.Atoi(principal.UserID)
	if err != nil {
		h.logger.Error("invalid user id in session", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	user, err := h.backend.UpdateUser(r.Context(), principal.BackendToken, userID, backend.UpdateUserInput{
		Name:  payload.Name,
		Phone: payload.Phone,
	})
	if err != nil {
		var berr *backend.Error
		if !errors.As(err, &berr) {
			h.logger.Error("profile update failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeError(w, statusForBackendError(berr), "could not update the profile")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"user": map[string]any{
			"id":    user.ID,
			"name":  user.Name,
			"phone": user.Phone,
			"email": user.Email,
		},
	})
}
