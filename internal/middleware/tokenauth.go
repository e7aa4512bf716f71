// Package middleware provides HTTP middlewares for authentication and logging.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/atinyakov/GophAuth/internal/auth"
)

type ctxKey string

const userKey ctxKey = "user"

// Header names a logged-in client sends with every request.
const (
	HeaderAccessToken = "access-token"
	HeaderClient      = "client"
	HeaderUID         = "uid"
)

// TokenVerifier checks an access token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// TokenAuth rejects requests without a valid access token.
//
// The token must verify, and the client and uid headers must match the
// client key and email the token was issued for. On success the user ID is
// stored in the request context.
func TokenAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(HeaderAccessToken)
			client := r.Header.Get(HeaderClient)
			uid := r.Header.Get(HeaderUID)
			if token == "" || client == "" || uid == "" {
				unauthorized(w)
				return
			}
			claims, err := verifier.Verify(token)
			if err != nil || claims.Client != client || !strings.EqualFold(claims.Email, uid) {
				unauthorized(w)
				return
			}
			ctx := context.WithValue(r.Context(), userKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string][]string{
		"error": {"You need to sign in or sign up before continuing."},
	})
}

// GetUserIDFromContext extracts the authenticated user ID from the request
// context. Returns an empty string if not found.
func GetUserIDFromContext(ctx context.Context) string {
	val := ctx.Value(userKey)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}

// WithUserID returns a copy of ctx carrying userID as the authenticated user.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey, userID)
}
