package devicegraph

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const devicePrefix = "device:"

// RedisStore keeps one sorted set per device: member is the user id, score
// is the last usage timestamp. ZADD updates the score in place, so the set
// holds distinct users by construction and expired members are pruned by
// score before counting.
type RedisStore struct {
	client    redis.UniversalClient
	retention time.Duration
}

func NewRedisStore(client redis.UniversalClient, retention time.Duration) *RedisStore {
	return &RedisStore{
		client:    client,
		retention: retention,
	}
}

func (s *RedisStore) RecordUsage(ctx context.Context, deviceID, userID string, now time.Time) error {
	key := devicePrefix + deviceID
	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, key, &redis.Z{Score: float64(now.Unix()), Member: userID})
	pipe.Expire(ctx, key, s.retention)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("device graph record: %w", err)
	}
	return nil
}

func (s *RedisStore) DistinctUserCount(ctx context.Context, deviceID string) (int, error) {
	key := devicePrefix + deviceID
	horizon := time.Now().Add(-s.retention).Unix()

	pipe := s.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprintf("%d", horizon))
	card := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("device graph count: %w", err)
	}
	return int(card.Val()), nil
}
