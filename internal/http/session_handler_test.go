package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gatehouse/internal/auth"
)

func TestSessionStatusWithoutCookie(t *testing.T) {
	handler := NewSessionHandler(newTestSessions(t), "development", discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	rec := httptest.NewRecorder()
	handler.Status(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["authenticated"] != false {
		t.Fatalf("expected authenticated:false, got %v", body)
	}
	if _, present := body["user"]; present {
		t.Fatalf("anonymous status must not carry a user, got %v", body)
	}
}

func TestSessionStatusWithValidCookie(t *testing.T) {
	sessions := newTestSessions(t)
	handler := NewSessionHandler(sessions, "development", discardLogger())

	principal := auth.Principal{
		UserID:        "7",
		Email:         "a@b.com",
		DisplayName:   "alice",
		BackendToken:  "backend-jwt",
		EmailVerified: true,
	}
	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.AddCookie(issueSessionCookie(t, sessions, principal))
	rec := httptest.NewRecorder()
	handler.Status(rec, req)

	body := decodeBody(t, rec)
	if body["authenticated"] != true {
		t.Fatalf("expected authenticated:true, got %v", body)
	}
	user := body["user"].(map[string]any)
	if user["email"] != "a@b.com" || user["displayName"] != "alice" {
		t.Fatalf("unexpected user view %v", user)
	}
	if strings.Contains(rec.Body.String(), "backend-jwt") {
		t.Fatalf("status response leaked the backend token: %s", rec.Body.String())
	}
}

func TestSessionStatusWithTamperedCookie(t *testing.T) {
	handler := NewSessionHandler(newTestSessions(t), "development", discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "garbage"})
	rec := httptest.NewRecorder()
	handler.Status(rec, req)

	body := decodeBody(t, rec)
	if body["authenticated"] != false {
		t.Fatalf("tampered cookie must read as anonymous, got %v", body)
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	sessions := newTestSessions(t)
	handler := NewSessionHandler(sessions, "development", discardLogger())

	req := httptest.NewRequest(http.MethodDelete, "/api/session", nil)
	req.AddCookie(issueSessionCookie(t, sessions, auth.Principal{UserID: "7", EmailVerified: true}))
	rec := httptest.NewRecorder()
	handler.Logout(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	var cleared bool
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == sessionCookieName && cookie.MaxAge < 0 && cookie.Value == "" {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("expected the session cookie to be cleared")
	}
}
