package velocity

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/sherlock-service/sherlock_service/internal/domain/entities"
	"github.com/sherlock-service/sherlock_service/pkg/logger"
	"github.com/sherlock-service/sherlock_service/pkg/metrics"
)

const keyPrefix = "velocity:"

// applyScript is the conditional read-modify-write. Running as a single Lua
// script makes the replay check, the counter increment and the field writes
// one atomic unit; concurrent callers for the same user are serialized by
// the store. Returns {0} on a replay, {counter, previous_location} on
// success.
var applyScript = redis.NewScript(`
local key = KEYS[1]
local tx = ARGV[1]
local last = redis.call('HGET', key, 'last_transaction_id')
if last == tx then
  return {0, ''}
end
local prev = redis.call('HGET', key, 'last_location')
local counter = redis.call('HINCRBY', key, 'velocity_counter', 1)
redis.call('HSET', key,
  'last_location', ARGV[2],
  'last_transaction_id', tx,
  'window_expiry', ARGV[3],
  'last_decision', ARGV[4])
return {counter, prev or ''}
`)

// RedisStore implements Store on a Redis hash per user. Redis executes each
// script atomically, which provides the conditional-write primitive the
// replay guard requires.
type RedisStore struct {
	client redis.UniversalClient
	window time.Duration
	log    *logger.Logger
}

func NewRedisStore(client redis.UniversalClient, window time.Duration, log *logger.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		window: window,
		log:    log,
	}
}

func (s *RedisStore) Apply(ctx context.Context, userID, transactionID, location string, now time.Time) (*Outcome, error) {
	start := time.Now()
	defer func() {
		metrics.VelocityStoreOperationDuration.WithLabelValues("apply").Observe(time.Since(start).Seconds())
	}()

	expiry := now.Add(s.window).Unix()
	res, err := applyScript.Run(ctx, s.client,
		[]string{keyPrefix + userID},
		transactionID, location, expiry, string(entities.DecisionProcessing),
	).Result()
	if err != nil {
		return nil, fmt.Errorf("velocity apply: %w", err)
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) != 2 {
		return nil, fmt.Errorf("velocity apply: unexpected script reply %T", res)
	}

	counter, _ := vals[0].(int64)
	if counter == 0 {
		return nil, ErrReplay
	}

	prev, _ := vals[1].(string)
	return &Outcome{VelocityCounter: counter, PrevLocation: prev}, nil
}

func (s *RedisStore) Get(ctx context.Context, userID string) (*entities.UserVelocityRecord, error) {
	start := time.Now()
	defer func() {
		metrics.VelocityStoreOperationDuration.WithLabelValues("get").Observe(time.Since(start).Seconds())
	}()

	fields, err := s.client.HGetAll(ctx, keyPrefix+userID).Result()
	if err != nil {
		return nil, fmt.Errorf("velocity get: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	record := &entities.UserVelocityRecord{
		UserID:            userID,
		LastLocation:      fields["last_location"],
		LastTransactionID: fields["last_transaction_id"],
		LastDecision:      entities.Decision(fields["last_decision"]),
	}
	if v, err := strconv.ParseInt(fields["velocity_counter"], 10, 64); err == nil {
		record.VelocityCounter = v
	}
	if v, err := strconv.ParseFloat(fields["last_risk_score"], 64); err == nil {
		record.LastRiskScore = v
	}
	if v, err := strconv.ParseInt(fields["window_expiry"], 10, 64); err == nil {
		record.WindowExpiry = time.Unix(v, 0)
	}
	return record, nil
}

func (s *RedisStore) Finalize(ctx context.Context, userID string, decision entities.Decision, riskScore float64) error {
	start := time.Now()
	defer func() {
		metrics.VelocityStoreOperationDuration.WithLabelValues("finalize").Observe(time.Since(start).Seconds())
	}()

	err := s.client.HSet(ctx, keyPrefix+userID,
		"last_decision", string(decision),
		"last_risk_score", strconv.FormatFloat(riskScore, 'f', 2, 64),
	).Err()
	if err != nil {
		return fmt.Errorf("velocity finalize: %w", err)
	}
	return nil
}
