// Package auth resolves a caller identity from a bearer token. Token issuance
// (password, OTP, Google sign-in) lives in a separate service; this backend
// only needs the resulting token-to-user mapping.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/darshanradadiya/ekharcha/internal/core"
)

type contextKey int

const userKey contextKey = iota

// WithUser returns a context carrying the authenticated owner id.
func WithUser(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userKey, userID)
}

// UserID extracts the authenticated owner id from the context.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userKey).(int64)
	return id, ok
}

// TokenVerifier maps a bearer token to an owner id, or returns
// core.ErrUnauthorized.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (int64, error)
}

// StaticTokens is a fixed token-to-user mapping, loaded from configuration.
type StaticTokens map[string]int64

func (s StaticTokens) Verify(_ context.Context, token string) (int64, error) {
	id, ok := s[token]
	if !ok {
		return 0, core.ErrUnauthorized
	}
	return id, nil
}

// ParseTokenPairs parses "token:userID" pairs separated by commas, e.g.
// "devtoken:1,cafe:2".
func ParseTokenPairs(s string) (StaticTokens, error) {
	tokens := make(StaticTokens)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		token, idStr, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("malformed token pair %q", pair)
		}
		id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed user id in token pair %q: %w", pair, err)
		}
		tokens[strings.TrimSpace(token)] = id
	}
	return tokens, nil
}

// Middleware rejects requests without a valid bearer token and attaches the
// owner id to the request context for everything downstream.
func Middleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				unauthorized(w, "Unauthorized: Token missing")
				return
			}

			token := strings.TrimPrefix(header, "Bearer ")
			userID, err := verifier.Verify(r.Context(), token)
			if err != nil {
				unauthorized(w, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userID)))
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
