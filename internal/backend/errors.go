package backend

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Code identifies a backend failure class. The backend contract only
// exposes human-readable messages, so the string matching lives in one
// place (classify) and everything else keys on these codes.
type Code string

const (
	CodeNotConfirmed       Code = "not_confirmed"
	CodeInvalidCredentials Code = "invalid_credentials"
	CodeEmailTaken         Code = "email_taken"
	CodeInvalidResetCode   Code = "invalid_reset_code"
	CodePasswordPolicy     Code = "password_policy"
	CodeUnknown            Code = "unknown"
)

// Error is a non-2xx backend response. Transport failures are ordinary
// wrapped errors and never surface as *Error, so callers can tell the
// backend saying "no" apart from the backend being unreachable.
type Error struct {
	Status  int
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("backend: %d %s: %s", e.Status, e.Code, e.Message)
}

type errorEnvelope struct {
	Error struct {
		Status  int    `json:"status"`
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"error"`
}

// errorFromResponse returns nil for 2xx responses and a classified *Error
// otherwise. The body is only consumed on failure.
func errorFromResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var envelope errorEnvelope
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	_ = json.Unmarshal(body, &envelope)

	message := envelope.Error.Message
	return &Error{
		Status:  resp.StatusCode,
		Code:    classify(message),
		Message: message,
	}
}

// classify maps the backend's human-readable error messages onto stable
// codes. The backend contract has no machine-readable code field, so this
// translation is deliberately the only string matching in the package.
func classify(message string) Code {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "not confirmed"):
		return CodeNotConfirmed
	case strings.Contains(lower, "invalid identifier or password"):
		return CodeInvalidCredentials
	case strings.Contains(lower, "already taken"):
		return CodeEmailTaken
	case strings.Contains(lower, "incorrect code provided"):
		return CodeInvalidResetCode
	case strings.Contains(lower, "password"):
		return CodePasswordPolicy
	default:
		return CodeUnknown
	}
}
