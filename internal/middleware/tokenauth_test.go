package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/atinyakov/GophAuth/internal/auth"
)

// dummyHandler is a placeholder that records if it was called and the context it received.
type dummyHandler struct {
	called bool
	ctx    context.Context
}

func (d *dummyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.called = true
	d.ctx = r.Context()
	w.WriteHeader(http.StatusOK)
}

type fakeVerifier struct {
	claims *auth.Claims
	err    error
}

func (f fakeVerifier) Verify(token string) (*auth.Claims, error) {
	return f.claims, f.err
}

func claimsFor(userID, email, client string) *auth.Claims {
	c := &auth.Claims{Email: email, Client: client}
	c.Subject = userID
	return c
}

func TestTokenAuth(t *testing.T) {
	valid := claimsFor("u1", "ada@example.com", "device-1")

	tests := []struct {
		name       string
		headers    map[string]string
		verifier   fakeVerifier
		wantCalled bool
		wantCode   int
	}{
		{
			name:     "no headers",
			verifier: fakeVerifier{claims: valid},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "missing client",
			headers:  map[string]string{HeaderAccessToken: "t", HeaderUID: "ada@example.com"},
			verifier: fakeVerifier{claims: valid},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "invalid token",
			headers:  map[string]string{HeaderAccessToken: "t", HeaderClient: "device-1", HeaderUID: "ada@example.com"},
			verifier: fakeVerifier{err: errors.New("bad")},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "client mismatch",
			headers:  map[string]string{HeaderAccessToken: "t", HeaderClient: "device-2", HeaderUID: "ada@example.com"},
			verifier: fakeVerifier{claims: valid},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "uid mismatch",
			headers:  map[string]string{HeaderAccessToken: "t", HeaderClient: "device-1", HeaderUID: "eve@example.com"},
			verifier: fakeVerifier{claims: valid},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:       "valid",
			headers:    map[string]string{HeaderAccessToken: "t", HeaderClient: "device-1", HeaderUID: "Ada@Example.com"},
			verifier:   fakeVerifier{claims: valid},
			wantCalled: true,
			wantCode:   http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dummy := &dummyHandler{}
			h := TokenAuth(tt.verifier)(dummy)
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/api/me", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(rec, req)

			if dummy.called != tt.wantCalled {
				t.Errorf("next called = %v; want %v", dummy.called, tt.wantCalled)
			}
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d; want %d", rec.Code, tt.wantCode)
			}
			if tt.wantCode == http.StatusUnauthorized && !strings.Contains(rec.Body.String(), "You need to sign in") {
				t.Errorf("unexpected body %q", rec.Body.String())
			}
			if tt.wantCalled {
				if user := GetUserIDFromContext(dummy.ctx); user != "u1" {
					t.Errorf("expected context user 'u1', got '%s'", user)
				}
			}
		})
	}
}

func TestGetUserIDFromContext(t *testing.T) {
	// no value
	empty := GetUserIDFromContext(context.Background())
	if empty != "" {
		t.Errorf("expected empty string for missing user, got '%s'", empty)
	}
	// with value
	val := GetUserIDFromContext(WithUserID(context.Background(), "bob"))
	if val != "bob" {
		t.Errorf("expected 'bob', got '%s'", val)
	}
}
