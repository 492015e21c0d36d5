// Package token mints the opaque strings handed out as session identifiers.
// Sources are safe for concurrent use.
package token

import (
	"fmt"

	"github.com/google/uuid"
)

// Source mints session tokens. Tokens must be unguessable; collisions are
// acceptable only at UUID probability.
type Source interface {
	Mint() (string, error)
}

type uuidSource struct {
	maxRetries int
}

// Option configures a Source returned by NewUUIDSource.
type Option func(*uuidSource)

// WithRetries sets how many times to retry uuid.NewV7() after the initial
// attempt before falling back to a v4 value. Defaults to 1.
func WithRetries(n int) Option {
	return func(s *uuidSource) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

// NewUUIDSource returns a Source minting time-ordered UUID v7 tokens.
// Redis keyspace scans stay roughly chronological that way.
func NewUUIDSource(opts ...Option) Source {
	s := &uuidSource{maxRetries: 1}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *uuidSource) Mint() (string, error) {
	var last error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		id, err := uuid.NewV7()
		if err == nil {
			return id.String(), nil
		}
		last = err
	}

	// v7 exhausts only when the entropy source misbehaves; v4 reads the
	// same source, so surface the failure if it persists.
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("token generation failed after %d attempts: %w", s.maxRetries+1, last)
	}
	return id.String(), nil
}
