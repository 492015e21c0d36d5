// Package session implements the opaque-token session layer: a Store mapping
// tokens to user identities, and a cookie-based Manager for the HTTP boundary.
package session

import (
	"context"
	"time"
)

// Store maps opaque session tokens to user identifiers.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the user id bound to token. The boolean is false when the
	// token is unknown or expired; err signals infrastructure failures only.
	Get(ctx context.Context, token string) (int64, bool, error)
	// Set binds token to userID for ttl.
	Set(ctx context.Context, token string, userID int64, ttl time.Duration) error
	// Delete removes token. Deleting an unknown token is not an error.
	Delete(ctx context.Context, token string) error
}

type contextKey string

const tokenContextKey contextKey = "session_token"

// WithToken stores the session token in the context.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenContextKey, token)
}

// TokenFromContext extracts the session token from the context.
// Returns empty string when the request carried no session cookie.
func TokenFromContext(ctx context.Context) string {
	if token, ok := ctx.Value(tokenContextKey).(string); ok {
		return token
	}
	return ""
}
