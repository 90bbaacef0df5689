package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"sso-hub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFlow(key string, ttl time.Duration) *domain.PendingFlow {
	now := time.Now()
	return &domain.PendingFlow{
		Key:        key,
		StateNonce: "nonce-" + key,
		NextURL:    "/dashboard",
		ReturnTo:   "https://apps.myapp.local/callback?state=nonce-" + key,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}
}

func TestMemoryFlowStore_SaveAndTake(t *testing.T) {
	s := NewMemoryFlowStore(100, time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, testFlow("browser-1", time.Minute)))

	got, err := s.Take(ctx, "browser-1")
	require.NoError(t, err)
	assert.Equal(t, "nonce-browser-1", got.StateNonce)
	assert.Equal(t, "/dashboard", got.NextURL)
}

func TestMemoryFlowStore_TakeIsSingleUse(t *testing.T) {
	s := NewMemoryFlowStore(100, time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, testFlow("browser-1", time.Minute)))

	_, err := s.Take(ctx, "browser-1")
	require.NoError(t, err)

	got, err := s.Take(ctx, "browser-1")
	assert.Nil(t, got)
	assert.True(t, errors.Is(err, domain.ErrFlowNotFound))
}

func TestMemoryFlowStore_ConcurrentTake(t *testing.T) {
	s := NewMemoryFlowStore(100, time.Minute)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, testFlow("browser-1", time.Minute)))

	var winners atomic.Int32
	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Take(ctx, "browser-1"); err == nil {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
}

func TestMemoryFlowStore_Expiration(t *testing.T) {
	s := NewMemoryFlowStore(100, 50*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, testFlow("browser-1", time.Minute)))
	time.Sleep(100 * time.Millisecond)

	got, err := s.Take(ctx, "browser-1")
	assert.Nil(t, got)
	assert.True(t, errors.Is(err, domain.ErrFlowNotFound))
}

func TestMemoryFlowStore_RecordedExpiryHonoured(t *testing.T) {
	s := NewMemoryFlowStore(100, time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, testFlow("browser-1", -time.Second)))

	_, err := s.Take(ctx, "browser-1")
	assert.True(t, errors.Is(err, domain.ErrFlowNotFound))
}

func TestMemoryFlowStore_Bounded(t *testing.T) {
	s := NewMemoryFlowStore(10, time.Minute)
	ctx := context.Background()

	for i := range 50 {
		require.NoError(t, s.Save(ctx, testFlow(fmt.Sprintf("browser-%d", i), time.Minute)))
	}

	assert.Equal(t, 10, s.Len())

	// Oldest flows were evicted
	_, err := s.Take(ctx, "browser-0")
	assert.True(t, errors.Is(err, domain.ErrFlowNotFound))
	_, err = s.Take(ctx, "browser-49")
	assert.NoError(t, err)
}

func TestMemoryFlowStore_Delete(t *testing.T) {
	s := NewMemoryFlowStore(100, time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, testFlow("browser-1", time.Minute)))
	require.NoError(t, s.Delete(ctx, "browser-1"))

	_, err := s.Take(ctx, "browser-1")
	assert.True(t, errors.Is(err, domain.ErrFlowNotFound))
	assert.NoError(t, s.Delete(ctx, "browser-1"))
}

func TestMemoryFlowStore_Close(t *testing.T) {
	s := NewMemoryFlowStore(100, time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, testFlow("browser-1", time.Minute)))
	require.NoError(t, s.Close())

	assert.Zero(t, s.Len())
	_, err := s.Take(ctx, "browser-1")
	assert.True(t, errors.Is(err, domain.ErrFlowNotFound))
}
