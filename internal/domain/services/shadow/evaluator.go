package shadow

import (
	"context"
	"encoding/json"
	"math"
	"sync"
	"time"

	"github.com/sherlock-service/sherlock_service/internal/domain/entities"
	"github.com/sherlock-service/sherlock_service/internal/domain/services/scoring"
	"github.com/sherlock-service/sherlock_service/pkg/logger"
	"github.com/sherlock-service/sherlock_service/pkg/metrics"
)

// Evaluator replays champion traffic through a challenger model and measures
// disagreement. It consumes shadow messages only; it holds no access to the
// velocity store and cannot affect champion state.
type Evaluator struct {
	challenger Challenger
	// threshold converts the challenger's score into a verdict.
	threshold float64
	// latency simulates the challenger's heavier inference cost.
	latency time.Duration
	log     *logger.Logger

	mu        sync.Mutex
	processed int64
	conflicts int64
}

func NewEvaluator(challenger Challenger, threshold float64, latency time.Duration, log *logger.Logger) *Evaluator {
	return &Evaluator{
		challenger: challenger,
		threshold:  threshold,
		latency:    latency,
		log:        log,
	}
}

// HandleMessage evaluates one shadow message and classifies it as agreement
// or conflict on the decision values only; risk scores are reported for
// context but never compared.
func (e *Evaluator) HandleMessage(ctx context.Context, body []byte) error {
	var msg entities.ShadowEvaluationMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		// A body that does not parse will not parse on redelivery
		// either. Drop it so one poison message cannot wedge the queue.
		metrics.ShadowEvaluationsTotal.WithLabelValues("malformed").Inc()
		e.log.Errorw("Dropping malformed shadow message", "error", err)
		return nil
	}

	if e.latency > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.latency):
		}
	}

	tx := msg.Transaction
	res := e.challenger.Score(scoring.Features{
		Amount:          tx.Amount,
		VelocityCounter: 0, // the evaluator has no velocity state
		Merchant:        tx.Merchant,
		Location:        tx.Location,
	})

	challengerDecision := entities.DecisionAllow
	if res.Value > e.threshold {
		challengerDecision = entities.DecisionBlock
	}

	e.mu.Lock()
	e.processed++
	conflict := challengerDecision != msg.ChampionDecision
	if conflict {
		e.conflicts++
	}
	e.mu.Unlock()

	if conflict {
		metrics.ShadowEvaluationsTotal.WithLabelValues("conflict").Inc()
		e.log.Warnw("Challenger conflict",
			"transaction_id", tx.TransactionID,
			"user_id", tx.UserID,
			"amount", tx.Amount,
			"champion_decision", string(msg.ChampionDecision),
			"champion_risk_score", msg.ChampionRiskScore,
			"challenger_decision", string(challengerDecision),
			"challenger_risk_score", res.Value,
		)
	} else {
		metrics.ShadowEvaluationsTotal.WithLabelValues("agreement").Inc()
		e.log.Debugw("Challenger agreement",
			"transaction_id", tx.TransactionID,
			"decision", string(msg.ChampionDecision),
		)
	}

	return nil
}

// Summary returns the running disagreement aggregate.
func (e *Evaluator) Summary() entities.ShadowSummary {
	e.mu.Lock()
	defer e.mu.Unlock()

	summary := entities.ShadowSummary{
		Processed: e.processed,
		Conflicts: e.conflicts,
	}
	if e.processed > 0 {
		rate := float64(e.processed-e.conflicts) / float64(e.processed)
		summary.AgreementRate = math.Round(rate*10000) / 10000
	}
	return summary
}
