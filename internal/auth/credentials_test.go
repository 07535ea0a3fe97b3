package auth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"log/slog"

	"gatehouse/internal/backend"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func confirmedLogin(jwt string) func(ctx context.Context, identifier, password string) (*backend.AuthResponse, error) {
	return func(ctx context.Context, identifier, password string) (*backend.AuthResponse, error) {
		return &backend.AuthResponse{
			JWT:  jwt,
			User: &backend.User{ID: 7, Username: "alice", Email: identifier, Confirmed: true},
		}, nil
	}
}

func TestAuthenticateRejectsEmptyCredentialsWithoutBackendCall(t *testing.T) {
	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"empty email", "", "pw"},
		{"empty password", "a@b.com", ""},
		{"both empty", "", ""},
		{"whitespace email", "   ", "pw"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &backendStub{login: confirmedLogin("jwt")}
			authenticator := NewAuthenticator(stub, discardLogger())

			_, err := authenticator.Authenticate(context.Background(), tc.email, tc.password)
			if !errors.Is(err, ErrMissingCredentials) {
				t.Fatalf("expected ErrMissingCredentials, got %v", err)
			}
			if stub.loginCalls != 0 || stub.findCalls != 0 {
				t.Fatalf("expected no backend calls, got login=%d find=%d", stub.loginCalls, stub.findCalls)
			}
		})
	}
}

func TestAuthenticateConfirmedUser(t *testing.T) {
	stub := &backendStub{login: confirmedLogin("backend-jwt")}
	authenticator := NewAuthenticator(stub, discardLogger())

	result, err := authenticator.Authenticate(context.Background(), "a@b.com", "pw")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if result.Token != "backend-jwt" {
		t.Fatalf("unexpected token %q", result.Token)
	}
	if result.UserID != "7" || result.Email != "a@b.com" || result.DisplayName != "alice" {
		t.Fatalf("unexpected result %+v", result)
	}
	if !result.EmailVerified {
		t.Fatal("expected emailVerified=true for confirmed user")
	}
}

func TestAuthenticateUnconfirmedUserNeverYieldsResult(t *testing.T) {
	stub := &backendStub{
		login: func(ctx context.Context, identifier, password string) (*backend.AuthResponse, error) {
			return &backend.AuthResponse{
				JWT:  "x",
				User: &backend.User{ID: 7, Email: identifier, Confirmed: false},
			}, nil
		},
	}
	authenticator := NewAuthenticator(stub, discardLogger())

	result, err := authenticator.Authenticate(context.Background(), "a@b.com", "pw")
	if !errors.Is(err, ErrUnverified) {
		t.Fatalf("expected ErrUnverified, got %v", err)
	}
	if result != nil {
		t.Fatalf("no result may be materialized for unconfirmed accounts, got %+v", result)
	}
}

func TestAuthenticateNotConfirmedBackendError(t *testing.T) {
	stub := &backendStub{
		login: func(ctx context.Context, identifier, password string) (*backend.AuthResponse, error) {
			return nil, &backend.Error{Status: http.StatusBadRequest, Code: backend.CodeNotConfirmed, Message: "Your account email is not confirmed"}
		},
	}
	authenticator := NewAuthenticator(stub, discardLogger())

	_, err := authenticator.Authenticate(context.Background(), "a@b.com", "pw")
	if !errors.Is(err, ErrUnverified) {
		t.Fatalf("expected ErrUnverified, got %v", err)
	}
	if stub.findCalls != 0 {
		t.Fatalf("no probe expected for an explicit not-confirmed rejection, got %d", stub.findCalls)
	}
}

func TestAuthenticateInvalidCredentialsProbe(t *testing.T) {
	invalidLogin := func(ctx context.Context, identifier, password string) (*backend.AuthResponse, error) {
		return nil, &backend.Error{Status: http.StatusBadRequest, Code: backend.CodeInvalidCredentials, Message: "Invalid identifier or password"}
	}

	cases := []struct {
		name        string
		findByEmail func(ctx context.Context, email string) (*backend.User, error)
		want        error
	}{
		{
			"unknown user",
			func(ctx context.Context, email string) (*backend.User, error) { return nil, nil },
			ErrInvalidCredentials,
		},
		{
			"existing unconfirmed user",
			func(ctx context.Context, email string) (*backend.User, error) {
				return &backend.User{ID: 7, Email: email, Confirmed: false}, nil
			},
			ErrUnverified,
		},
		{
			"existing confirmed user with wrong password",
			func(ctx context.Context, email string) (*backend.User, error) {
				return &backend.User{ID: 7, Email: email, Confirmed: true}, nil
			},
			ErrInvalidCredentials,
		},
		{
			"probe failure degrades to generic rejection",
			func(ctx context.Context, email string) (*backend.User, error) {
				return nil, errors.New("lookup unavailable")
			},
			ErrInvalidCredentials,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &backendStub{login: invalidLogin, findByEmail: tc.findByEmail}
			authenticator := NewAuthenticator(stub, discardLogger())

			result, err := authenticator.Authenticate(context.Background(), "a@b.com", "wrong")
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if result != nil {
				t.Fatalf("the probe must never change the outcome into success, got %+v", result)
			}
			if stub.findCalls != 1 {
				t.Fatalf("expected exactly one probe call, got %d", stub.findCalls)
			}
		})
	}
}

func TestAuthenticateTransportFailure(t *testing.T) {
	stub := &backendStub{
		login: func(ctx context.Context, identifier, password string) (*backend.AuthResponse, error) {
			return nil, errors.New("connection refused")
		},
	}
	authenticator := NewAuthenticator(stub, discardLogger())

	_, err := authenticator.Authenticate(context.Background(), "a@b.com", "pw")
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if stub.loginCalls != 1 {
		t.Fatalf("expected a single attempt without retries, got %d", stub.loginCalls)
	}
}

func TestAuthenticateMalformedSuccessResponse(t *testing.T) {
	cases := []struct {
		name string
		resp *backend.AuthResponse
	}{
		{"nil response", nil},
		{"missing user", &backend.AuthResponse{JWT: "jwt"}},
		{"missing jwt", &backend.AuthResponse{User: &backend.User{ID: 7, Confirmed: true}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &backendStub{
				login: func(ctx context.Context, identifier, password string) (*backend.AuthResponse, error) {
					return tc.resp, nil
				},
			}
			authenticator := NewAuthenticator(stub, discardLogger())

			_, err := authenticator.Authenticate(context.Background(), "a@b.com", "pw")
			if !errors.Is(err, ErrUpstream) {
				t.Fatalf("expected ErrUpstream, got %v", err)
			}
		})
	}
}

func TestAuthenticateOtherBackendRejection(t *testing.T) {
	stub := &backendStub{
		login: func(ctx context.Context, identifier, password string) (*backend.AuthResponse, error) {
			return nil, &backend.Error{Status: http.StatusTooManyRequests, Code: backend.CodeUnknown, Message: "rate limited"}
		},
	}
	authenticator := NewAuthenticator(stub, discardLogger())

	_, err := authenticator.Authenticate(context.Background(), "a@b.com", "pw")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected normalized rejection, got %v", err)
	}
}
