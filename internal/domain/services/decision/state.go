package decision

// State tracks a transaction's progress through the pipeline. A transaction
// either terminates early as an idempotent replay or walks the full chain;
// any unhandled failure after RECEIVED lands in FAILED.
type State string

const (
	StateReceived         State = "RECEIVED"
	StateIdempotentReplay State = "IDEMPOTENT_REPLAY"
	StateVelocityChecked  State = "VELOCITY_CHECKED"
	StateGraphChecked     State = "GRAPH_CHECKED"
	StateScored           State = "SCORED"
	StateDecided          State = "DECIDED"
	StateFinalized        State = "FINALIZED"
	StateFailed           State = "FAILED"
)
