package entities

// AuditRecord is the fire-and-forget trail entry emitted once per decided
// transaction. Persistence is an external collaborator; the core only
// guarantees the append attempt.
type AuditRecord struct {
	TransactionID   string   `json:"transaction_id"`
	UserID          string   `json:"user_id"`
	Amount          float64  `json:"amount"`
	Merchant        string   `json:"merchant"`
	Location        string   `json:"location"`
	DeviceID        string   `json:"device_id,omitempty"`
	VelocityCounter int64    `json:"velocity_counter"`
	LastLocation    string   `json:"last_location"`
	RiskScore       float64  `json:"risk_score"`
	Decision        Decision `json:"decision"`
	Reasons         []string `json:"reasons"`
	Timestamp       int64    `json:"timestamp"`
}
