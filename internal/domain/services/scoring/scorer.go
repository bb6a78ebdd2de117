package scoring

// Result is a scoring outcome. Degraded marks that the trained model did not
// produce the value and the heuristic fallback did; DegradedReason says why.
// Scoring never returns an error past this boundary.
type Result struct {
	Value          float64
	Degraded       bool
	DegradedReason string
}

// Scorer produces a fraud risk score for a feature vector. The model backend
// yields values in [0,100]; the heuristic fallback is unbounded above, so
// callers needing a hard ceiling must clip.
type Scorer interface {
	Score(features Features) Result
}

// Heuristic degradation reasons.
const (
	DegradedModelUnavailable = "model_unavailable"
	DegradedModelError       = "model_error"
)

// HeuristicScorer is the deterministic fallback used whenever the trained
// model is unavailable or fails.
type HeuristicScorer struct{}

func (HeuristicScorer) Score(features Features) Result {
	value := 50 + 5*float64(features.VelocityCounter)
	if features.ImpossibleTravel {
		value += 20
	}
	return Result{Value: value}
}
