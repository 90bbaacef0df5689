package domain

import (
	"slices"
	"time"
)

// Identity is the verified identity carried by a session.
type Identity struct {
	IdentityURL string   `json:"identity_url"`
	Email       string   `json:"email,omitempty"`
	Teams       []string `json:"teams"`
}

// HasTeam reports whether the identity is a member of team.
func (i Identity) HasTeam(team string) bool {
	return slices.Contains(i.Teams, team)
}

// Session identifies one authenticated browser.
type Session struct {
	ID        string    `json:"id"`
	Identity  Identity  `json:"identity"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// PendingFlow is one in-flight login attempt, keyed by the browser cookie.
type PendingFlow struct {
	Key        string    `json:"key"`
	StateNonce string    `json:"state_nonce"`
	NextURL    string    `json:"next_url"`
	ReturnTo   string    `json:"return_to"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Expired reports whether the flow is past its expiry at now.
func (f *PendingFlow) Expired(now time.Time) bool {
	return now.After(f.ExpiresAt)
}
