package devicegraph

import (
	"context"
	"time"
)

// Store holds the append-only device→user usage graph. Writes are
// best-effort and commutative; a lost edge degrades ring detection, never
// the primary decision. DistinctUserCount must be a strongly consistent
// read because the ring threshold is security-relevant.
type Store interface {
	// RecordUsage appends a (device, user, timestamp) edge.
	RecordUsage(ctx context.Context, deviceID, userID string, now time.Time) error
	// DistinctUserCount returns how many distinct users were linked to the
	// device within the retention horizon.
	DistinctUserCount(ctx context.Context, deviceID string) (int, error)
}
