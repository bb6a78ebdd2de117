package entities

// Decision is the terminal verdict for a scored transaction.
type Decision string

const (
	DecisionAllow      Decision = "ALLOW"
	DecisionBlock      Decision = "BLOCK"
	DecisionProcessing Decision = "PROCESSING" // placeholder written before scoring completes
)

// Reason codes attached to a decision. All applicable reasons are reported
// together; they are never short-circuited.
const (
	ReasonHighVelocity     = "HIGH_VELOCITY"
	ReasonImpossibleTravel = "IMPOSSIBLE_TRAVEL"
	ReasonHighRiskScore    = "HIGH_RISK_SCORE"
	ReasonIdempotentReplay = "IDEMPOTENT_REPLAY"
	// Fraud ring reasons carry the linked-user count, e.g.
	// FRAUD_RING_DETECTED_USERS_4; built via FraudRingReason.
)

// TransactionRequest is the immutable inbound payload. TransactionID is the
// idempotency key; UserID partitions velocity state.
type TransactionRequest struct {
	TransactionID string  `json:"transaction_id" binding:"required,min=1"`
	UserID        string  `json:"user_id" binding:"required,min=1"`
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	Merchant      string  `json:"merchant" binding:"required,min=1"`
	Location      string  `json:"location"`
	DeviceID      string  `json:"device_id"`
}

// Normalize applies payload defaults after binding.
func (t *TransactionRequest) Normalize() {
	if t.Location == "" {
		t.Location = "unknown"
	}
}

// DecisionResult is the caller-visible outcome of one scoring pass. It is
// never persisted as its own entity; its fields are folded into the user's
// velocity record and forwarded on the shadow channel.
type DecisionResult struct {
	Status          Decision `json:"status"`
	TransactionID   string   `json:"transaction_id"`
	RiskScore       float64  `json:"risk_score"`
	Reasons         []string `json:"reasons"`
	VelocityCounter int64    `json:"velocity_counter"`
	LatencyMS       float64  `json:"latency_ms"`
	ModelLoaded     bool     `json:"model_loaded"`
	Idempotent      bool     `json:"idempotent"`
}

// ErrorResponse is the standard error payload shape.
type ErrorResponse struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
