package velocity

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sherlock-service/sherlock_service/internal/domain/entities"
)

func TestApplyIncrementsCounter(t *testing.T) {
	store := NewMemoryStore(60 * time.Second)
	ctx := context.Background()
	now := time.Now()

	out, err := store.Apply(ctx, "u1", "t1", "London", now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.VelocityCounter)
	assert.Equal(t, "", out.PrevLocation)

	out, err = store.Apply(ctx, "u1", "t2", "Paris", now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), out.VelocityCounter)
	assert.Equal(t, "London", out.PrevLocation)
}

func TestApplyRejectsReplayedTransactionID(t *testing.T) {
	store := NewMemoryStore(60 * time.Second)
	ctx := context.Background()
	now := time.Now()

	_, err := store.Apply(ctx, "u1", "t1", "London", now)
	require.NoError(t, err)

	out, err := store.Apply(ctx, "u1", "t1", "Tokyo", now)
	assert.ErrorIs(t, err, ErrReplay)
	assert.Nil(t, out)

	// The rejected write mutated nothing.
	record, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), record.VelocityCounter)
	assert.Equal(t, "London", record.LastLocation)
}

func TestCountersArePerUser(t *testing.T) {
	store := NewMemoryStore(60 * time.Second)
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 3; i++ {
		_, err := store.Apply(ctx, "u1", fmt.Sprintf("a%d", i), "London", now)
		require.NoError(t, err)
	}

	out, err := store.Apply(ctx, "u2", "b0", "London", now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.VelocityCounter)
}

func TestApplySetsProcessingPlaceholder(t *testing.T) {
	store := NewMemoryStore(60 * time.Second)
	ctx := context.Background()

	_, err := store.Apply(ctx, "u1", "t1", "London", time.Now())
	require.NoError(t, err)

	record, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, entities.DecisionProcessing, record.LastDecision)
	assert.Equal(t, "t1", record.LastTransactionID)
}

func TestFinalizeWritesDecisionBack(t *testing.T) {
	store := NewMemoryStore(60 * time.Second)
	ctx := context.Background()

	_, err := store.Apply(ctx, "u1", "t1", "London", time.Now())
	require.NoError(t, err)

	require.NoError(t, store.Finalize(ctx, "u1", entities.DecisionBlock, 87.5))

	record, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, entities.DecisionBlock, record.LastDecision)
	assert.Equal(t, 87.5, record.LastRiskScore)
}

func TestGetUnknownUserReturnsNil(t *testing.T) {
	store := NewMemoryStore(60 * time.Second)

	record, err := store.Get(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, record)
}

// Concurrent distinct transactions for one user must each observe a unique
// counter value, and a duplicate id racing them must be counted exactly once.
func TestConcurrentAppliesSerialize(t *testing.T) {
	store := NewMemoryStore(60 * time.Second)
	ctx := context.Background()
	now := time.Now()

	const workers = 50

	var wg sync.WaitGroup
	counters := make(chan int64, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := store.Apply(ctx, "u1", fmt.Sprintf("t%d", i), "London", now)
			if err == nil {
				counters <- out.VelocityCounter
			}
		}(i)
	}
	wg.Wait()
	close(counters)

	seen := make(map[int64]bool)
	for c := range counters {
		assert.False(t, seen[c], "counter value %d observed twice", c)
		seen[c] = true
	}
	assert.Len(t, seen, workers)

	record, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(workers), record.VelocityCounter)
}

func TestConcurrentDuplicateIDCountedOnce(t *testing.T) {
	store := NewMemoryStore(60 * time.Second)
	ctx := context.Background()
	now := time.Now()

	const workers = 20

	var wg sync.WaitGroup
	var successes int64
	var mu sync.Mutex
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Apply(ctx, "u1", "same-id", "London", now); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), successes)

	record, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), record.VelocityCounter)
}
