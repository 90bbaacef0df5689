package store

import (
	"context"
	"time"

	"sso-hub/internal/domain"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryFlowStore keeps pending login flows in a bounded LRU with TTL, so
// abandoned logins cannot grow state without limit.
// Implements domain.FlowStore.
type MemoryFlowStore struct {
	flows *lru.LRU[string, domain.PendingFlow]
}

// NewMemoryFlowStore creates a flow store holding at most maxEntries flows,
// each for at most ttl.
func NewMemoryFlowStore(maxEntries int, ttl time.Duration) *MemoryFlowStore {
	return &MemoryFlowStore{
		flows: lru.NewLRU[string, domain.PendingFlow](maxEntries, nil, ttl),
	}
}

// Save stores a flow under its key, replacing any previous flow for that key.
func (s *MemoryFlowStore) Save(_ context.Context, flow *domain.PendingFlow) error {
	s.flows.Add(flow.Key, *flow)
	return nil
}

// Take returns and removes the flow for key. When callers race on the same
// key only the one whose removal succeeds receives the flow.
func (s *MemoryFlowStore) Take(_ context.Context, key string) (*domain.PendingFlow, error) {
	flow, ok := s.flows.Peek(key)
	if !ok {
		return nil, domain.ErrFlowNotFound
	}
	if !s.flows.Remove(key) {
		return nil, domain.ErrFlowNotFound
	}
	if flow.Expired(time.Now()) {
		return nil, domain.ErrFlowNotFound
	}
	return &flow, nil
}

// Delete discards the flow for key, if any.
func (s *MemoryFlowStore) Delete(_ context.Context, key string) error {
	s.flows.Remove(key)
	return nil
}

// Close drops every pending flow. The LRU's expiry goroutine has no stop
// hook and lives as long as the process.
func (s *MemoryFlowStore) Close() error {
	s.flows.Purge()
	return nil
}

// Len returns the number of live flows.
func (s *MemoryFlowStore) Len() int {
	return s.flows.Len()
}

var _ domain.FlowStore = (*MemoryFlowStore)(nil)
