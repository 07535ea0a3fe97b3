package auth

import (
	"context"

	"gatehouse/internal/backend"
)

type backendStub struct {
	loginCalls    int
	findCalls     int
	exchangeCalls int

	login         func(ctx context.Context, identifier, password string) (*backend.AuthResponse, error)
	findByEmail   func(ctx context.Context, email string) (*backend.User, error)
	oauthCallback func(ctx context.Context, provider, accessToken string) (*backend.AuthResponse, error)
}

func (s *backendStub) Login(ctx context.Context, identifier, password string) (*backend.AuthResponse, error) {
	s.loginCalls++
	if s.login != nil {
		return s.login(ctx, identifier, password)
	}
	return nil, nil
}

func (s *backendStub) FindUserByEmail(ctx context.Context, email string) (*backend.User, error) {
	s.findCalls++
	if s.findByEmail != nil {
		return s.findByEmail(ctx, email)
	}
	return nil, nil
}

func (s *backendStub) OAuthCallback(ctx context.Context, provider, accessToken string) (*backend.AuthResponse, error) {
	s.exchangeCalls++
	if s.oauthCallback != nil {
		return s.oauthCallback(ctx, provider, accessToken)
	}
	return nil, nil
}
