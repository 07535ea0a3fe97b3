package auth

import (
	"strconv"

	"gatehouse/internal/backend"
)

// Result is the outcome of a successful authentication attempt against
// the identity backend. It lives for one attempt only.
type Result struct {
	Token         string
	UserID        string
	Email         string
	DisplayName   string
	EmailVerified bool
}

// Principal is the identity materialized into the local session after a
// successful sign-in. BackendToken is set exactly once here and is
// immutable for the session's lifetime.
type Principal struct {
	UserID        string
	Email         string
	DisplayName   string
	BackendToken  string
	EmailVerified bool
	Err           string
}

// View is the client-readable projection of a session. It deliberately
// has no field for the backend token; that token stays server-side.
type View struct {
	UserID        string `json:"userId"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName"`
	EmailVerified bool   `json:"emailVerified"`
}

// View projects the principal into its outward-facing form.
func (p Principal) View() View {
	return View{
		UserID:        p.UserID,
		Email:         p.Email,
		DisplayName:   p.DisplayName,
		EmailVerified: p.EmailVerified,
	}
}

// PrincipalFromResult materializes a principal from a backend auth result.
func PrincipalFromResult(r Result) Principal {
	return Principal{
		UserID:        r.UserID,
		Email:         r.Email,
		DisplayName:   r.DisplayName,
		BackendToken:  r.Token,
		EmailVerified: r.EmailVerified,
	}
}

func resultFromResponse(resp *backend.AuthResponse, emailVerified bool) *Result {
	return &Result{
		Token:         resp.JWT,
		UserID:        strconv.Itoa(resp.User.ID),
		Email:         resp.User.Email,
		DisplayName:   displayName(resp.User),
		EmailVerified: emailVerified,
	}
}

func displayName(u *backend.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}
