package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Client is a stateless typed client for the headless identity backend.
// It owns URL construction and default headers; callers get parsed
// responses or classified errors, never raw payloads.
type Client struct {
	baseURL      string
	serviceToken string
	httpClient   *http.Client
	logger       *slog.Logger
}

// ErrNotConfigured is returned when the client is constructed without a
// backend base URL or service token. This is a startup-time fatal
// condition, not a per-request error.
var ErrNotConfigured = errors.New("backend: base URL and service token are required")

// Option configures the Client during construction.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for backend calls.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger overrides the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient constructs a Client. The base URL and service token are
// mandatory; the service token authenticates calls that carry no
// user-scoped bearer token.
func NewClient(baseURL, serviceToken string, opts ...Option) (*Client, error) {
	if baseURL == "" || serviceToken == "" {
		return nil, ErrNotConfigured
	}

	c := &Client{
		baseURL:      baseURL,
		serviceToken: serviceToken,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// User is the backend's user record.
type User struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Confirmed bool   `json:"confirmed"`
	Blocked   bool   `json:"blocked"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
}

// AuthResponse is the backend's answer to a successful login, registration,
// password reset or OAuth token exchange. The JWT is opaque to this service
// and must never appear in logs or client-readable payloads.
type AuthResponse struct {
	JWT  string `json:"jwt"`
	User *User  `json:"user"`
}

// RegisterInput carries a new account registration.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ResetPasswordInput carries a password reset with the emailed code.
type ResetPasswordInput struct {
	Code                 string `json:"code"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"passwordConfirmation"`
}

// ChangePasswordInput carries an authenticated password change.
type ChangePasswordInput struct {
	CurrentPassword      string `json:"currentPassword"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"passwordConfirmation"`
}

// UpdateUserInput carries a partial profile update. Nil fields are omitted
// from the request so the backend leaves them untouched.
type UpdateUserInput struct {
	Name  *string `json:"name,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

// Login authenticates an email/password pair against the backend.
func (c *Client) Login(ctx context.Context, identifier, password string) (*AuthResponse, error) {
	payload := map[string]string{"identifier": identifier, "password": password}
	return c.postAuth(ctx, "/api/auth/local", payload)
}

// Register creates a new account. The backend sends the confirmation email.
func (c *Client) Register(ctx context.Context, in RegisterInput) (*AuthResponse, error) {
	return c.postAuth(ctx, "/api/auth/local/register", in)
}

// ForgotPassword asks the backend to email a reset code.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	resp, err := c.do(ctx, http.MethodPost, "/api/auth/forgot-password", nil, "", map[string]string{"email": email})
	if err != nil {
		return err
	}
	defer closeBody(resp)
	return errorFromResponse(resp)
}

// ResetPassword redeems an emailed reset code for a new password.
func (c *Client) ResetPassword(ctx context.Context, in ResetPasswordInput) (*AuthResponse, error) {
	return c.postAuth(ctx, "/api/auth/reset-password", in)
}

// SendEmailConfirmation asks the backend to resend the confirmation email.
func (c *Client) SendEmailConfirmation(ctx context.Context, email string) error {
	resp, err := c.do(ctx, http.MethodPost, "/api/auth/send-email-confirmation", nil, "", map[string]string{"email": email})
	if err != nil {
		return err
	}
	defer closeBody(resp)
	return errorFromResponse(resp)
}

// OAuthCallback exchanges a third-party provider access token for a
// backend-issued token and user record.
func (c *Client) OAuthCallback(ctx context.Context, provider, accessToken string) (*AuthResponse, error) {
	query := url.Values{"access_token": {accessToken}}
	resp, err := c.do(ctx, http.MethodGet, "/api/auth/"+url.PathEscape(provider)+"/callback", query, "", nil)
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	if err := errorFromResponse(resp); err != nil {
		return nil, err
	}
	return decodeAuthResponse(resp)
}

// FindUserByEmail looks up a user record by exact email match.
// It returns (nil, nil) when no user matches.
func (c *Client) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	query := url.Values{"filters[email][$eq]": {email}}
	resp, err := c.do(ctx, http.MethodGet, "/api/users", query, "", nil)
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	if err := errorFromResponse(resp); err != nil {
		return nil, err
	}

	var users []User
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return nil, fmt.Errorf("backend: decode user list: %w", err)
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

// ChangePassword changes the password of the user identified by userToken.
func (c *Client) ChangePassword(ctx context.Context, userToken string, in ChangePasswordInput) error {
	resp, err := c.do(ctx, http.MethodPost, "/api/auth/change-password", nil, userToken, in)
	if err != nil {
		return err
	}
	defer closeBody(resp)
	return errorFromResponse(resp)
}

// UpdateUser applies a partial profile update on behalf of the user
// identified by userToken.
func (c *Client) UpdateUser(ctx context.Context, userToken string, userID int, in UpdateUserInput) (*User, error) {
	resp, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/users/%d", userID), nil, userToken, in)
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	if err := errorFromResponse(resp); err != nil {
		return nil, err
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("backend: decode user: %w", err)
	}
	return &user, nil
}

func (c *Client) postAuth(ctx context.Context, path string, body any) (*AuthResponse, error) {
	resp, err := c.do(ctx, http.MethodPost, path, nil, "", body)
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	if err := errorFromResponse(resp); err != nil {
		return nil, err
	}
	return decodeAuthResponse(resp)
}

// do issues one backend request. When bearer is empty the statically
// configured service token is attached instead.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, bearer string, body any) (*http.Response, error) {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("backend: build url: %w", err)
	}
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("backend: encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("backend: create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.serviceToken)
	}

	c.logger.Debug("backend request", "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend: call %s %s: %w", method, path, err)
	}
	return resp, nil
}

func decodeAuthResponse(resp *http.Response) (*AuthResponse, error) {
	var parsed AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("backend: decode auth response: %w", err)
	}
	return &parsed, nil
}

func closeBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}
