package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const sessionIssuer = "gatehouse"

// ErrInvalidSession covers expired, tampered and otherwise unusable
// session tokens. Callers treat it as "no session".
var ErrInvalidSession = errors.New("invalid session token")

type sessionClaims struct {
	jwt.RegisteredClaims
	Email         string `json:"email,omitempty"`
	Name          string `json:"name,omitempty"`
	BackendToken  string `json:"bkt,omitempty"`
	EmailVerified bool   `json:"verified"`
	Err           string `json:"err,omitempty"`
}

// Sessions packs principals into signed local session tokens and back.
// The token is opaque to the browser; it travels in an HttpOnly cookie.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessions creates a session codec. The signing secret is required.
func NewSessions(secret string, ttl time.Duration) (*Sessions, error) {
	if secret == "" {
		return nil, errors.New("session secret is required")
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Sessions{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// TTL returns the session lifetime, also used for the cookie max age.
func (s *Sessions) TTL() time.Duration {
	return s.ttl
}

// Issue signs a session token carrying the principal. The backend token
// is embedded once here and never rewritten for the session's lifetime.
func (s *Sessions) Issue(p Principal) (string, error) {
	now := s.now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   p.UserID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Email:         p.Email,
		Name:          p.DisplayName,
		BackendToken:  p.BackendToken,
		EmailVerified: p.EmailVerified,
		Err:           p.Err,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Parse validates a session token and unpacks the principal it carries.
func (s *Sessions) Parse(token string) (*Principal, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}

	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidSession
	}

	return &Principal{
		UserID:        claims.Subject,
		Email:         claims.Email,
		DisplayName:   claims.Name,
		BackendToken:  claims.BackendToken,
		EmailVerified: claims.EmailVerified,
		Err:           claims.Err,
	}, nil
}
