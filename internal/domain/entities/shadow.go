package entities

// ShadowEvaluationMessage carries the original transaction plus the
// champion's verdict onto the shadow queue. The evaluator consumes these
// with no access to the velocity store.
type ShadowEvaluationMessage struct {
	Transaction       TransactionRequest `json:"transaction"`
	ChampionDecision  Decision           `json:"champion_decision"`
	ChampionRiskScore float64            `json:"champion_risk_score"`
	Timestamp         int64              `json:"timestamp"`
}

// ShadowSummary aggregates challenger disagreement over consumed messages.
type ShadowSummary struct {
	Processed     int64   `json:"processed"`
	Conflicts     int64   `json:"conflicts"`
	AgreementRate float64 `json:"agreement_rate"`
}
