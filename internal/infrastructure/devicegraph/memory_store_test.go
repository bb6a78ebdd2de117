package devicegraph

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sherlock-service/sherlock_service/pkg/circuitbreaker"
)

func TestDistinctUserCountDeduplicates(t *testing.T) {
	store := NewMemoryStore(30 * 24 * time.Hour)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.RecordUsage(ctx, "d1", "u1", now))
	require.NoError(t, store.RecordUsage(ctx, "d1", "u2", now))
	require.NoError(t, store.RecordUsage(ctx, "d1", "u1", now)) // repeat user

	count, err := store.DistinctUserCount(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestDistinctUserCountUnknownDevice(t *testing.T) {
	store := NewMemoryStore(30 * 24 * time.Hour)

	count, err := store.DistinctUserCount(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestEdgesExpireAfterRetention(t *testing.T) {
	store := NewMemoryStore(30 * 24 * time.Hour)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.RecordUsage(ctx, "d1", "stale", now.Add(-31*24*time.Hour)))
	require.NoError(t, store.RecordUsage(ctx, "d1", "fresh", now))

	count, err := store.DistinctUserCount(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUsersAreScopedToDevice(t *testing.T) {
	store := NewMemoryStore(30 * 24 * time.Hour)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.RecordUsage(ctx, "d1", "u1", now))
	require.NoError(t, store.RecordUsage(ctx, "d2", "u2", now))
	require.NoError(t, store.RecordUsage(ctx, "d2", "u3", now))

	count, err := store.DistinctUserCount(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = store.DistinctUserCount(ctx, "d2")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

type failingStore struct {
	err error
}

func (f *failingStore) RecordUsage(ctx context.Context, deviceID, userID string, now time.Time) error {
	return f.err
}

func (f *failingStore) DistinctUserCount(ctx context.Context, deviceID string) (int, error) {
	return 0, f.err
}

func TestBreakerOpensAfterRepeatedReadFailures(t *testing.T) {
	inner := &failingStore{err: errors.New("backend down")}
	store := NewBreakerStore(inner, circuitbreaker.Config{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     time.Minute,
	})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := store.DistinctUserCount(ctx, "d1")
		require.Error(t, err)
	}

	// The breaker is open now; the read fails fast without touching the
	// inner store.
	inner.err = nil
	_, err := store.DistinctUserCount(ctx, "d1")
	assert.Error(t, err)
}

func TestBreakerPassesThroughSuccessfulReads(t *testing.T) {
	inner := NewMemoryStore(time.Hour)
	store := NewBreakerStore(inner, circuitbreaker.DefaultConfig())
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.RecordUsage(ctx, "d1", "u1", now))
	require.NoError(t, store.RecordUsage(ctx, "d1", "u2", now))

	count, err := store.DistinctUserCount(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
