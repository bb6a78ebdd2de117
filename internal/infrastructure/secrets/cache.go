package secrets

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/sherlock-service/sherlock_service/pkg/logger"
)

// Source supplies the API bearer secret from wherever it lives (environment,
// mounted file, secret manager).
type Source interface {
	Load(ctx context.Context) (string, error)
}

// StaticSource returns a fixed value, typically from configuration.
type StaticSource struct {
	Value string
}

func (s StaticSource) Load(ctx context.Context) (string, error) {
	return s.Value, nil
}

// FileSource reads the secret from a mounted file.
type FileSource struct {
	Path string
}

func (s FileSource) Load(ctx context.Context) (string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Cache holds the bearer secret for the life of the process. EnsureReady is
// idempotent: the source is consulted once on success, and retried on the
// next call after a failure. An empty secret disables authentication, which
// is logged loudly at startup.
type Cache struct {
	source Source
	log    *logger.Logger

	mu     sync.Mutex
	token  string
	loaded bool
}

func NewCache(source Source, log *logger.Logger) *Cache {
	return &Cache{
		source: source,
		log:    log,
	}
}

// EnsureReady loads and caches the secret.
func (c *Cache) EnsureReady(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded {
		return nil
	}

	token, err := c.source.Load(ctx)
	if err != nil {
		c.log.Warnw("Secret load failed, authentication unavailable", "error", err)
		return err
	}

	c.token = token
	c.loaded = true
	if token == "" {
		c.log.Warnw("No API secret configured, authentication disabled")
	}
	return nil
}

// Token returns the cached secret; empty means auth is disabled.
func (c *Cache) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}
