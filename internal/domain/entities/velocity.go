package entities

import "time"

// UserVelocityRecord is the single mutable row per user, owned exclusively by
// the velocity store. VelocityCounter only ever grows; WindowExpiry is
// advisory bookkeeping and does not reset the counter.
type UserVelocityRecord struct {
	UserID            string    `json:"user_id"`
	VelocityCounter   int64     `json:"velocity_counter"`
	LastLocation      string    `json:"last_location"`
	LastTransactionID string    `json:"last_transaction_id"`
	LastDecision      Decision  `json:"last_decision"`
	LastRiskScore     float64   `json:"last_risk_score"`
	WindowExpiry      time.Time `json:"window_expiry"`
}
