package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gatehouse/internal/backend"
)

var (
	// ErrMissingCredentials rejects an attempt before any backend call.
	ErrMissingCredentials = errors.New("email and password are required")
	// ErrInvalidCredentials is the normalized rejection for wrong
	// credentials and unknown accounts alike.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUnverified rejects a correct password on an unconfirmed account.
	// No session is ever materialized on this path; callers may use the
	// sentinel to point the browser at the verification-resend screen.
	ErrUnverified = errors.New("account email is not confirmed")
	// ErrUpstream marks transport-level failures talking to the backend.
	ErrUpstream = errors.New("identity backend unavailable")
)

type loginBackend interface {
	Login(ctx context.Context, identifier, password string) (*backend.AuthResponse, error)
	FindUserByEmail(ctx context.Context, email string) (*backend.User, error)
}

// Authenticator resolves email/password pairs into backend auth results.
type Authenticator struct {
	backend loginBackend
	logger  *slog.Logger
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(b loginBackend, logger *slog.Logger) *Authenticator {
	return &Authenticator{backend: b, logger: logger}
}

// Authenticate attempts a credential sign-in. Every failure path rejects
// with no session; an unconfirmed account rejects with ErrUnverified even
// when the password is correct. A single failed backend call is terminal,
// there are no retries.
func (a *Authenticator) Authenticate(ctx context.Context, email, password string) (*Result, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	resp, err := a.backend.Login(ctx, email, password)
	if err != nil {
		var berr *backend.Error
		if !errors.As(err, &berr) {
			a.logger.Error("login call failed", "error", err)
			return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
		}

		switch berr.Code {
		case backend.CodeNotConfirmed:
			return nil, ErrUnverified
		case backend.CodeInvalidCredentials:
			return nil, a.classifyRejection(ctx, email)
		default:
			a.logger.Warn("login rejected", "status", berr.Status, "code", berr.Code)
			return nil, ErrInvalidCredentials
		}
	}

	if resp == nil || resp.User == nil || resp.JWT == "" {
		a.logger.Error("login response missing token or user record")
		return nil, fmt.Errorf("%w: malformed login response", ErrUpstream)
	}

	if !resp.User.Confirmed {
		return nil, ErrUnverified
	}

	return resultFromResponse(resp, true), nil
}

// classifyRejection probes the backend's user lookup so the caller can
// tell an unverified account apart from bad credentials. The probe only
// selects the error message; every branch stays a rejection, and a failed
// probe degrades to the generic one.
func (a *Authenticator) classifyRejection(ctx context.Context, email string) error {
	user, err := a.backend.FindUserByEmail(ctx, email)
	if err != nil || user == nil {
		return ErrInvalidCredentials
	}
	if !user.Confirmed {
		return ErrUnverified
	}
	return ErrInvalidCredentials
}
