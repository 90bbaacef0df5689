package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"sso-hub/internal/domain"
)

// randomBytes is the entropy of every issued token (256 bits).
const randomBytes = 32

// RandomSource issues base64url tokens read from crypto/rand.
// Implements domain.TokenSource.
type RandomSource struct{}

// NewRandomSource creates a new random token source.
func NewRandomSource() *RandomSource {
	return &RandomSource{}
}

// NewToken returns a fresh unguessable token.
func (RandomSource) NewToken() (string, error) {
	b := make([]byte, randomBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrTokenGeneration, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
