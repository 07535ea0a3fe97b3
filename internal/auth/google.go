package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// ProviderToken is what the browser-side OAuth handshake yields: the
// provider access token to forward to the backend exchange, plus the
// verified identity claims used for gating.
type ProviderToken struct {
	AccessToken   string
	Email         string
	EmailVerified bool
}

// GoogleAuthenticator handles the Google OAuth 2.0 / OIDC handshake.
// The protocol itself is delegated to go-oidc and oauth2; this service
// only consumes the resulting access token.
type GoogleAuthenticator struct {
	config   *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// NewGoogleAuthenticator creates a new GoogleAuthenticator.
func NewGoogleAuthenticator(ctx context.Context, clientID, clientSecret, redirectURL string) (*GoogleAuthenticator, error) {
	provider, err := oidc.NewProvider(ctx, "https://accounts.google.com")
	if err != nil {
		return nil, fmt.Errorf("oidc provider: %w", err)
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     google.Endpoint,
		Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
	}

	return &GoogleAuthenticator{
		config:   config,
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

// AuthURL generates the Google OAuth consent URL with the given state.
func (g *GoogleAuthenticator) AuthURL(state string) string {
	return g.config.AuthCodeURL(
		state,
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
}

// Exchange exchanges the authorization code for tokens, verifies the ID
// token and returns the provider access token with its identity claims.
func (g *GoogleAuthenticator) Exchange(ctx context.Context, code string) (*ProviderToken, error) {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("token exchange: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, fmt.Errorf("no id_token in response")
	}

	idToken, err := g.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("verify id_token: %w", err)
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("parse claims: %w", err)
	}

	return &ProviderToken{
		AccessToken:   token.AccessToken,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
	}, nil
}

// GenerateState generates a cryptographically secure random state string.
func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
