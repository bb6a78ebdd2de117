package secrets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sherlock-service/sherlock_service/pkg/logger"
)

func TestStaticSourceLoads(t *testing.T) {
	cache := NewCache(StaticSource{Value: "sekrit"}, logger.NewNop())

	require.NoError(t, cache.EnsureReady(context.Background()))
	assert.Equal(t, "sekrit", cache.Token())
}

func TestEmptySecretDisablesAuth(t *testing.T) {
	cache := NewCache(StaticSource{}, logger.NewNop())

	require.NoError(t, cache.EnsureReady(context.Background()))
	assert.Equal(t, "", cache.Token())
}

func TestFileSourceTrimsWhitespace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("sekrit\n"), 0o600))

	cache := NewCache(FileSource{Path: path}, logger.NewNop())
	require.NoError(t, cache.EnsureReady(context.Background()))
	assert.Equal(t, "sekrit", cache.Token())
}

func TestFileSourceMissingFile(t *testing.T) {
	cache := NewCache(FileSource{Path: "/nonexistent/token"}, logger.NewNop())

	assert.Error(t, cache.EnsureReady(context.Background()))
	assert.Equal(t, "", cache.Token())
}

type countingSource struct {
	calls int
	err   error
}

func (s *countingSource) Load(ctx context.Context) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return "sekrit", nil
}

func TestEnsureReadyLoadsOnce(t *testing.T) {
	source := &countingSource{}
	cache := NewCache(source, logger.NewNop())
	ctx := context.Background()

	require.NoError(t, cache.EnsureReady(ctx))
	require.NoError(t, cache.EnsureReady(ctx))
	assert.Equal(t, 1, source.calls)
}

func TestEnsureReadyRetriesAfterFailure(t *testing.T) {
	source := &countingSource{err: errors.New("secret manager down")}
	cache := NewCache(source, logger.NewNop())
	ctx := context.Background()

	require.Error(t, cache.EnsureReady(ctx))

	source.err = nil
	require.NoError(t, cache.EnsureReady(ctx))
	assert.Equal(t, "sekrit", cache.Token())
	assert.Equal(t, 2, source.calls)
}
