// Package codegen derives short opaque identifier strings (redirect URIs,
// mail confirmation codes) from an optional seed.
// Generators are safe for concurrent use.
package codegen

import (
	"encoding/hex"
	"strconv"
	"time"

	"golang.org/x/crypto/argon2"
)

const DefaultLength = 6

// argon2 parameters, matching the key-derivation profile used for passwords.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

// Generator mints deterministic-looking opaque codes. The same seed always
// yields the same code; an empty seed falls back to the current timestamp,
// so unseeded calls are effectively unique.
type Generator interface {
	Generate(length int, seed string) string
}

type saltedGenerator struct {
	salt          []byte
	defaultLength int
}

// New returns a Generator keyed with the given salt. A non-positive
// defaultLength falls back to DefaultLength.
func New(salt string, defaultLength int) Generator {
	if defaultLength <= 0 {
		defaultLength = DefaultLength
	}
	return &saltedGenerator{
		salt:          []byte(salt),
		defaultLength: defaultLength,
	}
}

// Generate derives a hex string of exactly length characters from seed.
// length <= 0 selects the configured default. An empty seed is replaced
// with the current unix timestamp in milliseconds.
func (g *saltedGenerator) Generate(length int, seed string) string {
	if length <= 0 {
		length = g.defaultLength
	}
	if seed == "" {
		seed = strconv.FormatInt(time.Now().UnixMilli(), 10)
	}

	// One hash byte covers two hex characters.
	keyLen := (length + 1) / 2
	key := argon2.IDKey([]byte(seed), g.salt, argonTime, argonMemory, argonThreads, uint32(keyLen))

	return hex.EncodeToString(key)[:length]
}
