package session

import (
	"context"
	"net/http"
	"time"

	"github.com/mtm-tools/mtm-server/internal/token"
)

// Manager issues and destroys sessions and ties them to an HTTP cookie.
type Manager struct {
	store      Store
	tokens     token.Source
	cookieName string
	ttl        time.Duration
	secure     bool
}

// ManagerConfig holds configuration for the Manager.
type ManagerConfig struct {
	Store      Store
	Tokens     token.Source  // defaults to token.NewUUIDSource()
	CookieName string        // defaults to "qid"
	TTL        time.Duration // defaults to ten years
	Secure     bool          // Secure cookie flag; set in production
}

// NewManager creates a new Manager instance.
func NewManager(cfg ManagerConfig) *Manager {
	cookieName := cfg.CookieName
	if cookieName == "" {
		cookieName = "qid"
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 10 * 365 * 24 * time.Hour
	}
	tokens := cfg.Tokens
	if tokens == nil {
		tokens = token.NewUUIDSource()
	}

	return &Manager{
		store:      cfg.Store,
		tokens:     tokens,
		cookieName: cookieName,
		ttl:        ttl,
		secure:     cfg.Secure,
	}
}

// Store exposes the underlying token store.
func (m *Manager) Store() Store { return m.store }

// Attach is a middleware that copies the session token from the request
// cookie into the request context. Requests without the cookie pass through
// with no token.
func (m *Manager) Attach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(m.cookieName)
		if err == nil && cookie.Value != "" {
			r = r.WithContext(WithToken(r.Context(), cookie.Value))
		}
		next.ServeHTTP(w, r)
	})
}

// Issue creates a new session for userID and sets the session cookie.
func (m *Manager) Issue(ctx context.Context, w http.ResponseWriter, userID int64) error {
	minted, err := m.tokens.Mint()
	if err != nil {
		return err
	}

	if err := m.store.Set(ctx, minted, userID, m.ttl); err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    minted,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   m.secure,
	})
	return nil
}

// Destroy removes the session bound to the request context and clears the
// cookie. The cookie is cleared even when the store delete fails.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter) error {
	token := TokenFromContext(ctx)

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   m.secure,
	})

	if token == "" {
		return nil
	}
	return m.store.Delete(ctx, token)
}
