package velocity

import (
	"context"
	"errors"
	"time"

	"github.com/sherlock-service/sherlock_service/internal/domain/entities"
)

// ErrReplay signals that the conditional write was rejected because the
// stored last_transaction_id matches the incoming one. This is a normal
// terminal state, not a failure: the caller reads back the record and
// returns the prior decision.
var ErrReplay = errors.New("transaction id already processed")

// Outcome is the result of a successful conditional apply.
type Outcome struct {
	// VelocityCounter is the counter value after the increment.
	VelocityCounter int64
	// PrevLocation is the location stored before this write (the pre-image),
	// needed for the impossible-travel comparison. Empty on a user's first
	// transaction.
	PrevLocation string
}

// Store is the single-row-per-user atomic counter and replay guard.
//
// Apply performs one atomic read-modify-write keyed by userID: increment the
// counter, record location and window expiry, and set the transaction id as
// the replay guard with a PROCESSING placeholder decision. The write only
// happens if the stored last_transaction_id differs from transactionID;
// otherwise ErrReplay is returned and nothing is mutated.
//
// Concurrent Apply calls for one user with distinct transaction ids observe
// a serialized, monotonically incrementing counter. The same transaction id
// succeeds exactly once.
//
// Finalize unconditionally overwrites last_decision/last_risk_score after
// scoring. By then the transaction is already counted and the replay window
// is closed, so a Finalize failure is logged but never changes the response.
type Store interface {
	Apply(ctx context.Context, userID, transactionID, location string, now time.Time) (*Outcome, error)
	Get(ctx context.Context, userID string) (*entities.UserVelocityRecord, error)
	Finalize(ctx context.Context, userID string, decision entities.Decision, riskScore float64) error
}
