// Package middleware holds the HTTP middleware chain: request IDs,
// access logging, and JWT authentication.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mertab/minibank/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// HolderIDKey is the context key for the authenticated holder ID.
	HolderIDKey contextKey = "holder_id"
	// RoleKey is the context key for the authenticated holder's role.
	RoleKey contextKey = "role"
)

// GetHolderID extracts the holder ID from the context. Returns zero if not
// found.
func GetHolderID(ctx context.Context) int64 {
	id, _ := ctx.Value(HolderIDKey).(int64)
	return id
}

// GetRole extracts the holder role from the context. Returns empty string if
// not found.
func GetRole(ctx context.Context) string {
	role, _ := ctx.Value(RoleKey).(string)
	return role
}

// RequireAuth returns a middleware that validates JWT tokens and requires
// authentication. It extracts the token from the Authorization header,
// validates it, and adds the holder ID and role to the request context.
func RequireAuth(jwtManager *auth.JWTManager, unauthorized func(w http.ResponseWriter, err error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w, auth.ErrMissingToken)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				unauthorized(w, auth.ErrInvalidToken)
				return
			}

			claims, err := jwtManager.Validate(parts[1])
			if err != nil {
				unauthorized(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), HolderIDKey, claims.HolderID)
			ctx = context.WithValue(ctx, RoleKey, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
