package modelstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sherlock-service/sherlock_service/pkg/retry"
)

// Fetcher retrieves a model artifact from the object store over HTTP and
// caches it on local disk. This is a one-time-per-process cold-start cost;
// the hot path never touches it.
type Fetcher struct {
	client    *http.Client
	cachePath string
	retryCfg  retry.Config
}

func NewFetcher(cachePath string, timeout time.Duration) *Fetcher {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		cachePath: cachePath,
		retryCfg:  retry.DefaultConfig(),
	}
}

// Fetch returns the artifact bytes, preferring the local cache. A fresh
// download is written back to the cache so restarts skip the network.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if data, err := os.ReadFile(f.cachePath); err == nil && len(data) > 0 {
		return data, nil
	}

	if url == "" {
		return nil, fmt.Errorf("no model artifact URL configured")
	}

	var data []byte
	err := retry.WithExponentialBackoff(ctx, f.retryCfg, func() error {
		var err error
		data, err = f.download(ctx, url)
		return err
	}, retry.IsTemporaryError)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(f.cachePath), 0o755); err == nil {
		// Cache write failure only costs the next restart a re-download.
		_ = os.WriteFile(f.cachePath, data, 0o644)
	}

	return data, nil
}

func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build artifact request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch artifact: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch artifact: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read artifact body: %w", err)
	}
	return data, nil
}
