package devicegraph

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/sherlock-service/sherlock_service/pkg/circuitbreaker"
)

// BreakerStore decorates a Store with a circuit breaker on the read path.
// When the graph backend is misbehaving the breaker opens and counts fail
// fast, letting the pipeline degrade to "no ring signal" without spending
// latency budget on a dead dependency. Writes stay direct: they are already
// best-effort and swallowed by the caller.
type BreakerStore struct {
	inner   Store
	breaker *gobreaker.CircuitBreaker
}

func NewBreakerStore(inner Store, cfg circuitbreaker.Config) *BreakerStore {
	return &BreakerStore{
		inner:   inner,
		breaker: circuitbreaker.New("device-graph", cfg),
	}
}

func (s *BreakerStore) RecordUsage(ctx context.Context, deviceID, userID string, now time.Time) error {
	return s.inner.RecordUsage(ctx, deviceID, userID, now)
}

func (s *BreakerStore) DistinctUserCount(ctx context.Context, deviceID string) (int, error) {
	res, err := s.breaker.Execute(func() (interface{}, error) {
		return s.inner.DistinctUserCount(ctx, deviceID)
	})
	if err != nil {
		return 0, err
	}
	return res.(int), nil
}
