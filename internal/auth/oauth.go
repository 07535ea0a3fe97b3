package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gatehouse/internal/backend"
)

var (
	// ErrMissingProviderToken rejects an exchange with no access token.
	ErrMissingProviderToken = errors.New("missing provider access token")
	// ErrExchangeRejected covers a backend refusal or a response lacking
	// the issued token or the user record.
	ErrExchangeRejected = errors.New("provider token exchange rejected")
)

type exchangeBackend interface {
	OAuthCallback(ctx context.Context, provider, accessToken string) (*backend.AuthResponse, error)
}

// Bridge converts a third-party provider's access token into a
// backend-issued token and user record.
type Bridge struct {
	backend exchangeBackend
	logger  *slog.Logger
}

// NewBridge creates a Bridge.
func NewBridge(b exchangeBackend, logger *slog.Logger) *Bridge {
	return &Bridge{backend: b, logger: logger}
}

// Exchange performs the token exchange. OAuth accounts are treated as
// pre-verified, so EmailVerified is forced true on success. Both pipeline
// steps below funnel through here, which keeps their accept/reject
// decisions identical by construction.
func (b *Bridge) Exchange(ctx context.Context, provider, accessToken string) (*Result, error) {
	if accessToken == "" {
		return nil, ErrMissingProviderToken
	}

	resp, err := b.backend.OAuthCallback(ctx, provider, accessToken)
	if err != nil {
		var berr *backend.Error
		if errors.As(err, &berr) {
			b.logger.Warn("oauth exchange rejected", "provider", provider, "status", berr.Status)
			return nil, ErrExchangeRejected
		}
		b.logger.Error("oauth exchange failed", "provider", provider, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if resp == nil || resp.JWT == "" || resp.User == nil {
		b.logger.Warn("oauth exchange response missing token or user record", "provider", provider)
		return nil, ErrExchangeRejected
	}

	return resultFromResponse(resp, true), nil
}

// OnExternalSignIn is the gate step: it decides whether the external
// sign-in may proceed, before any session work happens.
func (b *Bridge) OnExternalSignIn(ctx context.Context, provider, accessToken string) error {
	_, err := b.Exchange(ctx, provider, accessToken)
	return err
}

// OnSessionMaterialize is the second step: it produces the principal that
// the session token will carry. It must agree with OnExternalSignIn for
// the same input.
func (b *Bridge) OnSessionMaterialize(ctx context.Context, provider, accessToken string) (Principal, error) {
	result, err := b.Exchange(ctx, provider, accessToken)
	if err != nil {
		return Principal{}, err
	}
	return PrincipalFromResult(*result), nil
}
