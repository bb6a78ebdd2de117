package devicegraph

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store with in-process maps, for tests and local
// runs. Same retention semantics as the Redis backend.
type MemoryStore struct {
	mu        sync.Mutex
	edges     map[string]map[string]time.Time // device -> user -> last seen
	retention time.Duration
}

func NewMemoryStore(retention time.Duration) *MemoryStore {
	return &MemoryStore{
		edges:     make(map[string]map[string]time.Time),
		retention: retention,
	}
}

func (s *MemoryStore) RecordUsage(ctx context.Context, deviceID, userID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, ok := s.edges[deviceID]
	if !ok {
		users = make(map[string]time.Time)
		s.edges[deviceID] = users
	}
	users[userID] = now
	return nil
}

func (s *MemoryStore) DistinctUserCount(ctx context.Context, deviceID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	horizon := time.Now().Add(-s.retention)
	count := 0
	for user, seen := range s.edges[deviceID] {
		if seen.Before(horizon) {
			delete(s.edges[deviceID], user)
			continue
		}
		count++
	}
	return count, nil
}
