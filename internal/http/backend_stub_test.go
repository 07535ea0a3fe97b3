package http

import (
	"context"

	"gatehouse/internal/backend"
)

// gatewayStub satisfies the backend-facing interfaces the handlers and
// the authenticator consume.
type gatewayStub struct {
	loginCalls int

	login             func(ctx context.Context, identifier, password string) (*backend.AuthResponse, error)
	register          func(ctx context.Context, in backend.RegisterInput) (*backend.AuthResponse, error)
	forgotPassword    func(ctx context.Context, email string) error
	resetPassword     func(ctx context.Context, in backend.ResetPasswordInput) (*backend.AuthResponse, error)
	sendConfirmation  func(ctx context.Context, email string) error
	findByEmail       func(ctx context.Context, email string) (*backend.User, error)
	oauthCallback     func(ctx context.Context, provider, accessToken string) (*backend.AuthResponse, error)
	changePasswordFn  func(ctx context.Context, userToken string, in backend.ChangePasswordInput) error
	updateUserFn      func(ctx context.Context, userToken string, userID int, in backend.UpdateUserInput) (*backend.User, error)
}

func (s *gatewayStub) Login(ctx context.Context, identifier, password string) (*backend.AuthResponse, error) {
	s.loginCalls++
	if s.login != nil {
		return s.login(ctx, identifier, password)
	}
	return nil, nil
}

func (s *gatewayStub) Register(ctx context.Context, in backend.RegisterInput) (*backend.AuthResponse, error) {
	if s.register != nil {
		return s.register(ctx, in)
	}
	return &backend.AuthResponse{User: &backend.User{ID: 1, Username: in.Username, Email: in.Email}}, nil
}

func (s *gatewayStub) ForgotPassword(ctx context.Context, email string) error {
	if s.forgotPassword != nil {
		return s.forgotPassword(ctx, email)
	}
	return nil
}

func (s *gatewayStub) ResetPassword(ctx context.Context, in backend.ResetPasswordInput) (*backend.AuthResponse, error) {
	if s.resetPassword != nil {
		return s.resetPassword(ctx, in)
	}
	return &backend.AuthResponse{}, nil
}

func (s *gatewayStub) SendEmailConfirmation(ctx context.Context, email string) error {
	if s.sendConfirmation != nil {
		return s.sendConfirmation(ctx, email)
	}
	return nil
}

func (s *gatewayStub) FindUserByEmail(ctx context.Context, email string) (*backend.User, error) {
	if s.findByEmail != nil {
		return s.findByEmail(ctx, email)
	}
	return nil, nil
}

func (s *gatewayStub) OAuthCallback(ctx context.Context, provider, accessToken string) (*backend.AuthResponse, error) {
	if s.oauthCallback != nil {
		return s.oauthCallback(ctx, provider, accessToken)
	}
	return nil, nil
}

func (s *gatewayStub) ChangePassword(ctx context.Context, userToken string, in backend.ChangePasswordInput) error {
	if s.changePasswordFn != nil {
		return s.changePasswordFn(ctx, userToken, in)
	}
	return nil
}

func (s *gatewayStub) UpdateUser(ctx context.Context, userToken string, userID int, in backend.UpdateUserInput) (*backend.User, error) {
	if s.updateUserFn != nil {
		return s.updateUserFn(ctx, userToken, userID, in)
	}
	return &backend.User{ID: userID}, nil
}
