package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    10 * time.Millisecond,
		Multiplier:  2.0,
	}
}

func TestSucceedsFirstTry(t *testing.T) {
	calls := 0
	err := WithExponentialBackoff(context.Background(), fastConfig(), func() error {
		calls++
		return nil
	}, IsTemporaryError)

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetriesTemporaryErrors(t *testing.T) {
	calls := 0
	err := WithExponentialBackoff(context.Background(), fastConfig(), func() error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	}, IsTemporaryError)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestStopsOnNonRetryableError(t *testing.T) {
	calls := 0
	err := WithExponentialBackoff(context.Background(), fastConfig(), func() error {
		calls++
		return errors.New("permission denied")
	}, IsTemporaryError)

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestGivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	err := WithExponentialBackoff(context.Background(), fastConfig(), func() error {
		calls++
		return errors.New("timeout")
	}, IsTemporaryError)

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "max retry attempts")
}

func TestContextCancellationStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithExponentialBackoff(ctx, fastConfig(), func() error {
		return errors.New("timeout")
	}, IsTemporaryError)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "cancelled")
}

func TestIsTemporaryError(t *testing.T) {
	assert.True(t, IsTemporaryError(errors.New("dial tcp: connection refused")))
	assert.True(t, IsTemporaryError(errors.New("i/o timeout")))
	assert.True(t, IsTemporaryError(errors.New("503 Service Unavailable")))
	assert.False(t, IsTemporaryError(errors.New("invalid credentials")))
	assert.False(t, IsTemporaryError(nil))
}
