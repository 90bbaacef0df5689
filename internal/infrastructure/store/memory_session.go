package store

import (
	"context"
	"sync"
	"time"

	"sso-hub/internal/domain"
)

// MemorySessionStore provides thread-safe in-memory session storage with TTL.
// Implements domain.SessionStore.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
	ttl      time.Duration
	ids      domain.TokenSource
	now      func() time.Time
	done     chan struct{}
	once     sync.Once
}

// NewMemorySessionStore creates a new session store with the specified TTL and
// starts its periodic sweep. Call Close to stop the sweep.
func NewMemorySessionStore(ttl time.Duration, ids domain.TokenSource) *MemorySessionStore {
	s := &MemorySessionStore{
		sessions: make(map[string]domain.Session),
		ttl:      ttl,
		ids:      ids,
		now:      time.Now,
		done:     make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// Create stores a new session for identity under a fresh random id.
func (s *MemorySessionStore) Create(_ context.Context, identity domain.Identity) (*domain.Session, error) {
	id, err := s.ids.NewToken()
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := domain.Session{
		ID:        id,
		Identity:  cloneIdentity(identity),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	s.sessions[id] = session
	s.mu.Unlock()

	out := session
	out.Identity = cloneIdentity(session.Identity)
	return &out, nil
}

// Get retrieves a session by id. Expired sessions are evicted and reported as
// domain.ErrSessionExpired.
func (s *MemorySessionStore) Get(_ context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	session, found := s.sessions[id]
	s.mu.RUnlock()

	if !found {
		return nil, domain.ErrSessionNotFound
	}

	if session.Expired(s.now()) {
		s.mu.Lock()
		if current, ok := s.sessions[id]; ok && current.Expired(s.now()) {
			delete(s.sessions, id)
		}
		s.mu.Unlock()
		return nil, domain.ErrSessionExpired
	}

	session.Identity = cloneIdentity(session.Identity)
	return &session, nil
}

// Delete removes a session. Deleting an unknown id is not an error.
func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (s *MemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops the cleanup loop.
func (s *MemorySessionStore) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

// cleanup removes expired entries.
func (s *MemorySessionStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, id)
		}
	}
}

// cleanupLoop runs periodic cleanup of expired entries.
func (s *MemorySessionStore) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.done:
			return
		}
	}
}

func cloneIdentity(identity domain.Identity) domain.Identity {
	identity.Teams = append([]string(nil), identity.Teams...)
	return identity
}

var _ domain.SessionStore = (*MemorySessionStore)(nil)
