package turnstile

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultEndpoint = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

// Result is the challenge provider's verdict.
type Result struct {
	Success     bool     `json:"success"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
	ErrorCodes  []string `json:"error-codes"`
}

// Verifier checks bot-challenge response tokens against the provider.
type Verifier struct {
	client   *http.Client
	secret   string
	endpoint string
}

// Option configures the Verifier during construction.
type Option func(*Verifier)

// WithHTTPClient overrides the HTTP client used for verification calls.
func WithHTTPClient(client *http.Client) Option {
	return func(v *Verifier) {
		if client != nil {
			v.client = client
		}
	}
}

// WithEndpoint overrides the siteverify endpoint.
func WithEndpoint(endpoint string) Option {
	return func(v *Verifier) {
		v.endpoint = strings.TrimRight(endpoint, "/")
	}
}

// New constructs a Verifier for the given shared secret.
func New(secret string, opts ...Option) *Verifier {
	v := &Verifier{
		client:   &http.Client{Timeout: 10 * time.Second},
		secret:   secret,
		endpoint: defaultEndpoint,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify submits a challenge response token for verification. The remote
// IP is optional and forwarded when known.
func (v *Verifier) Verify(ctx context.Context, token, remoteIP string) (*Result, error) {
	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("turnstile: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("turnstile: call siteverify: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("turnstile: siteverify returned status %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("turnstile: decode response: %w", err)
	}
	return &result, nil
}
