package modelstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchDownloadsAndCaches(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"model":"v1"}`))
	}))
	defer server.Close()

	cachePath := filepath.Join(t.TempDir(), "model.json")
	f := NewFetcher(cachePath, 5*time.Second)
	ctx := context.Background()

	data, err := f.Fetch(ctx, server.URL)
	require.NoError(t, err)
	assert.Equal(t, `{"model":"v1"}`, string(data))
	assert.Equal(t, int32(1), hits.Load())

	// Second fetch is served from disk.
	data, err = f.Fetch(ctx, server.URL)
	require.NoError(t, err)
	assert.Equal(t, `{"model":"v1"}`, string(data))
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetchPrefersExistingCache(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(cachePath, []byte(`{"model":"cached"}`), 0o644))

	f := NewFetcher(cachePath, 5*time.Second)

	data, err := f.Fetch(context.Background(), "http://unreachable.invalid/model.json")
	require.NoError(t, err)
	assert.Equal(t, `{"model":"cached"}`, string(data))
}

func TestFetchFailsWithoutURLOrCache(t *testing.T) {
	f := NewFetcher(filepath.Join(t.TempDir(), "missing.json"), 5*time.Second)

	_, err := f.Fetch(context.Background(), "")
	assert.Error(t, err)
}

func TestFetchReportsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	f := NewFetcher(filepath.Join(t.TempDir(), "model.json"), 5*time.Second)

	_, err := f.Fetch(context.Background(), server.URL)
	assert.ErrorContains(t, err, "unexpected status")
}
