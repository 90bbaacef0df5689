package usecase

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"sso-hub/internal/domain"
)

const (
	testEndpoint = "https://login.example/+openid"
	testOrigin   = "https://app.myapp.local"
	testTeam     = "canonical-webmonkeys"
	testIdentity = "https://login.example/+id/abc123"
)

// mockVerifier implements domain.AssertionVerifier for testing.
type mockVerifier struct {
	endpoint    string
	endpointErr error
	valid       bool
	err         error
	calls       int
	params      url.Values
}

func (m *mockVerifier) ResolveEndpoint(_ context.Context) (string, error) {
	return m.endpoint, m.endpointErr
}

func (m *mockVerifier) CheckAuthentication(_ context.Context, params url.Values) (bool, error) {
	m.calls++
	m.params = params
	return m.valid, m.err
}

// seqTokens implements domain.TokenSource with predictable values.
type seqTokens struct {
	mu  sync.Mutex
	n   int
	err error
}

func (s *seqTokens) NewToken() (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("token-%d", s.n), nil
}

// mockSessionStore implements domain.SessionStore for testing.
type mockSessionStore struct {
	sessions  map[string]*domain.Session
	tokens    *seqTokens
	createErr error
	getErr    error
	deleteErr error
	deleted   []string
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{sessions: make(map[string]*domain.Session), tokens: &seqTokens{}}
}

func (m *mockSessionStore) Create(_ context.Context, identity domain.Identity) (*domain.Session, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	id, _ := m.tokens.NewToken()
	now := time.Now()
	s := &domain.Session{ID: "session-" + id, Identity: identity, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	m.sessions[s.ID] = s
	return s, nil
}

func (m *mockSessionStore) Get(_ context.Context, id string) (*domain.Session, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

func (m *mockSessionStore) Delete(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.sessions, id)
	return nil
}

// mockFlowStore implements domain.FlowStore for testing.
type mockFlowStore struct {
	flows   map[string]*domain.PendingFlow
	saveErr error
	takeErr error
	deleted []string
}

func newMockFlowStore() *mockFlowStore {
	return &mockFlowStore{flows: make(map[string]*domain.PendingFlow)}
}

func (m *mockFlowStore) Save(_ context.Context, flow *domain.PendingFlow) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.flows[flow.Key] = flow
	return nil
}

func (m *mockFlowStore) Take(_ context.Context, key string) (*domain.PendingFlow, error) {
	if m.takeErr != nil {
		return nil, m.takeErr
	}
	flow, ok := m.flows[key]
	if !ok {
		return nil, domain.ErrFlowNotFound
	}
	delete(m.flows, key)
	return flow, nil
}

func (m *mockFlowStore) Delete(_ context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	delete(m.flows, key)
	return nil
}

// positiveAssertion builds the callback a provider sends for flow.
func positiveAssertion(flow *domain.PendingFlow, teams string) url.Values {
	return url.Values{
		"state":                 {flow.StateNonce},
		"openid.ns":             {"http://specs.openid.net/auth/2.0"},
		"openid.mode":           {"id_res"},
		"openid.op_endpoint":    {testEndpoint},
		"openid.identity":       {testIdentity},
		"openid.claimed_id":     {testIdentity},
		"openid.return_to":      {flow.ReturnTo},
		"openid.response_nonce": {"2026-10-16T10:00:00Zabc"},
		"openid.assoc_handle":   {"handle"},
		"openid.signed":         {"op_endpoint,return_to,response_nonce,assoc_handle,claimed_id,identity,ns.sreg,sreg.email,ns.lp,lp.is_member"},
		"openid.sig":            {"c2ln"},
		"openid.ns.sreg":        {"http://openid.net/extensions/sreg/1.1"},
		"openid.sreg.email":     {"user@example.com"},
		"openid.ns.lp":          {"http://ns.launchpad.net/2007/openid-teams"},
		"openid.lp.is_member":   {teams},
	}
}
