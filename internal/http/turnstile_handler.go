package http

import (
	"log/slog"
	"net"
	"net/http"

	"gatehouse/internal/turnstile"
)

// TurnstileHandler verifies bot-challenge tokens submitted by the browser.
type TurnstileHandler struct {
	verifier *turnstile.Verifier
	logger   *slog.Logger
}

// NewTurnstileHandler creates a TurnstileHandler. A nil verifier means
// the challenge provider is not configured.
func NewTurnstileHandler(verifier *turnstile.Verifier, logger *slog.Logger) *TurnstileHandler {
	return &TurnstileHandler{verifier: verifier, logger: logger}
}

// Verify handles POST /api/turnstile/verify.
func (h *TurnstileHandler) Verify(w http.ResponseWriter, r *http.Request) {
	if h.verifier == nil {
		writeError(w, http.StatusInternalServerError, "bot verification is not configured")
		return
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}
	if payload.Token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	result, err := h.verifier.Verify(r.Context(), payload.Token, clientIP(r))
	if err != nil {
		h.logger.Error("turnstile verification failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if !result.Success {
		writeError(w, http.StatusBadRequest, "challenge verification failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// clientIP relies on the RealIP middleware having rewritten RemoteAddr
// from forwarding headers where present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
