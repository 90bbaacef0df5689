package domain

import (
	"context"
	"net/url"
)

// SessionStore persists authenticated sessions.
type SessionStore interface {
	Create(ctx context.Context, identity Identity) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// FlowStore holds pending login flows. Take consumes a flow atomically.
type FlowStore interface {
	Save(ctx context.Context, flow *PendingFlow) error
	Take(ctx context.Context, key string) (*PendingFlow, error)
	Delete(ctx context.Context, key string) error
}

// ProviderEndpoint resolves the identity provider's OpenID endpoint.
type ProviderEndpoint interface {
	ResolveEndpoint(ctx context.Context) (string, error)
}

// AssertionVerifier confirms an assertion directly with the identity provider.
type AssertionVerifier interface {
	ProviderEndpoint
	CheckAuthentication(ctx context.Context, params url.Values) (bool, error)
}

// TokenIssuer generates signed backend tokens for downstream services.
type TokenIssuer interface {
	IssueBackendToken(session *Session) (string, error)
}

// TokenSource produces unguessable random tokens.
type TokenSource interface {
	NewToken() (string, error)
}
