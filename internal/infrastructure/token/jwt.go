package token

import (
	"time"

	"sso-hub/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// minBackendSecretLen is the shortest accepted HS256 secret.
const minBackendSecretLen = 32

// JWTConfig holds JWT generation configuration.
type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
}

// backendClaims represents the JWT claims handed to proxied backends.
type backendClaims struct {
	Email string   `json:"email,omitempty"`
	Teams []string `json:"teams"`
	jwt.RegisteredClaims
}

// JWTIssuer generates JWT tokens for backend authentication.
// Implements domain.TokenIssuer.
type JWTIssuer struct {
	cfg JWTConfig
}

// NewJWTIssuer creates a new JWT issuer. Secrets shorter than 32 bytes are rejected.
func NewJWTIssuer(cfg JWTConfig) (*JWTIssuer, error) {
	if len(cfg.Secret) < minBackendSecretLen {
		return nil, domain.ErrBackendSecretWeak
	}
	return &JWTIssuer{cfg: cfg}, nil
}

// IssueBackendToken generates a signed JWT for the session's identity.
// The token never outlives the session.
func (j *JWTIssuer) IssueBackendToken(session *domain.Session) (string, error) {
	now := time.Now()
	expiresAt := now.Add(j.cfg.TTL)
	if session.ExpiresAt.Before(expiresAt) {
		expiresAt = session.ExpiresAt
	}

	claims := backendClaims{
		Email: session.Identity.Email,
		Teams: session.Identity.Teams,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.cfg.Issuer,
			Audience:  jwt.ClaimStrings{j.cfg.Audience},
			Subject:   session.Identity.IdentityURL,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.cfg.Secret))
}
