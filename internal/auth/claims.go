// Package auth verifies bearer tokens issued by the identity provider and
// exposes the verified claims to downstream handlers.
package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of OIDC access-token claims the service reads
type Claims struct {
	jwt.RegisteredClaims
	PreferredUsername string `json:"preferred_username,omitempty"`
	Email             string `json:"email,omitempty"`
}

type claimsContextKey struct{}

// ContextWithClaims attaches verified claims to ctx
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// ClaimsFromContext returns the verified claims attached to ctx, if any
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*Claims)
	if !ok || claims == nil {
		return nil, false
	}
	return claims, true
}
