package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sso-hub/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "sso:session:"
	flowKeyPrefix    = "sso:flow:"
)

// NewRedisClient creates a Redis client from a redis:// URL and checks connectivity.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return client, nil
}

// RedisSessionStore stores sessions as JSON values with a Redis TTL. Each write
// is a single SET, so readers see either the whole session or nothing.
// Implements domain.SessionStore.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
	ids    domain.TokenSource
}

// NewRedisSessionStore creates a Redis-backed session store.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration, ids domain.TokenSource) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl, ids: ids}
}

// Create stores a new session for identity under a fresh random id.
func (s *RedisSessionStore) Create(ctx context.Context, identity domain.Identity) (*domain.Session, error) {
	id, err := s.ids.NewToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &domain.Session{
		ID:        id,
		Identity:  cloneIdentity(identity),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}

	if err := s.client.Set(ctx, sessionKeyPrefix+id, payload, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return session, nil
}

// Get retrieves a session by id.
func (s *RedisSessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	payload, err := s.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}

	var session domain.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("%w: corrupt session record: %w", domain.ErrStoreUnavailable, err)
	}

	// Redis expiry has second granularity; honour the recorded deadline too.
	if session.Expired(time.Now()) {
		_ = s.client.Del(ctx, sessionKeyPrefix+id).Err()
		return nil, domain.ErrSessionExpired
	}
	return &session, nil
}

// Delete removes a session.
func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// RedisFlowStore stores pending flows with a Redis TTL and consumes them with
// GETDEL, so a flow is handed out at most once across all replicas.
// Implements domain.FlowStore.
type RedisFlowStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisFlowStore creates a Redis-backed flow store.
func NewRedisFlowStore(client *redis.Client, ttl time.Duration) *RedisFlowStore {
	return &RedisFlowStore{client: client, ttl: ttl}
}

// Save stores a flow under its key.
func (s *RedisFlowStore) Save(ctx context.Context, flow *domain.PendingFlow) error {
	payload, err := json.Marshal(flow)
	if err != nil {
		return fmt.Errorf("encode flow: %w", err)
	}
	if err := s.client.Set(ctx, flowKeyPrefix+flow.Key, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Take atomically returns and removes the flow for key.
func (s *RedisFlowStore) Take(ctx context.Context, key string) (*domain.PendingFlow, error) {
	payload, err := s.client.GetDel(ctx, flowKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrFlowNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}

	var flow domain.PendingFlow
	if err := json.Unmarshal(payload, &flow); err != nil {
		return nil, fmt.Errorf("%w: corrupt flow record: %w", domain.ErrStoreUnavailable, err)
	}
	if flow.Expired(time.Now()) {
		return nil, domain.ErrFlowNotFound
	}
	return &flow, nil
}

// Delete discards the flow for key, if any.
func (s *RedisFlowStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, flowKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

var (
	_ domain.SessionStore = (*RedisSessionStore)(nil)
	_ domain.FlowStore    = (*RedisFlowStore)(nil)
)
