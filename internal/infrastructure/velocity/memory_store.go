package velocity

import (
	"context"
	"sync"
	"time"

	"github.com/sherlock-service/sherlock_service/internal/domain/entities"
)

// MemoryStore implements Store with an in-process map. It mirrors the Redis
// backend's semantics exactly and serves tests and local runs.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*entities.UserVelocityRecord
	window  time.Duration
}

func NewMemoryStore(window time.Duration) *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*entities.UserVelocityRecord),
		window:  window,
	}
}

func (s *MemoryStore) Apply(ctx context.Context, userID, transactionID, location string, now time.Time) (*Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[userID]
	if !ok {
		record = &entities.UserVelocityRecord{UserID: userID}
		s.records[userID] = record
	}

	if record.LastTransactionID != "" && record.LastTransactionID == transactionID {
		return nil, ErrReplay
	}

	prev := record.LastLocation
	record.VelocityCounter++
	record.LastLocation = location
	record.LastTransactionID = transactionID
	record.WindowExpiry = now.Add(s.window)
	record.LastDecision = entities.DecisionProcessing

	return &Outcome{VelocityCounter: record.VelocityCounter, PrevLocation: prev}, nil
}

func (s *MemoryStore) Get(ctx context.Context, userID string) (*entities.UserVelocityRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[userID]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (s *MemoryStore) Finalize(ctx context.Context, userID string, decision entities.Decision, riskScore float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[userID]
	if !ok {
		return nil
	}
	record.LastDecision = decision
	record.LastRiskScore = riskScore
	return nil
}
