package decision

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/sherlock-service/sherlock_service/internal/domain/entities"
	"github.com/sherlock-service/sherlock_service/internal/domain/services/scoring"
	"github.com/sherlock-service/sherlock_service/internal/infrastructure/config"
	"github.com/sherlock-service/sherlock_service/internal/infrastructure/devicegraph"
	"github.com/sherlock-service/sherlock_service/internal/infrastructure/velocity"
	apperrors "github.com/sherlock-service/sherlock_service/pkg/errors"
	"github.com/sherlock-service/sherlock_service/pkg/logger"
	"github.com/sherlock-service/sherlock_service/pkg/metrics"
	"github.com/sherlock-service/sherlock_service/pkg/tracing"
)

// Scorer is the champion scoring backend as the pipeline sees it.
type Scorer interface {
	Score(features scoring.Features) scoring.Result
	EnsureReady(ctx context.Context) bool
	Ready() bool
}

// Dispatcher publishes the champion verdict for shadow evaluation.
// Implementations must never fail the caller.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg entities.ShadowEvaluationMessage)
}

// Auditor appends one trail record per decided transaction, best-effort.
type Auditor interface {
	Append(ctx context.Context, record entities.AuditRecord)
}

// Pipeline orchestrates one risk decision per transaction. The velocity
// store's conditional write is the only synchronization point; everything
// downstream of it degrades rather than fails, and the counter is never
// compensated once incremented.
type Pipeline struct {
	velocityStore velocity.Store
	graphStore    devicegraph.Store
	scorer        Scorer
	dispatcher    Dispatcher
	auditor       Auditor
	risk          config.RiskConfig
	log           *logger.Logger
}

func NewPipeline(
	velocityStore velocity.Store,
	graphStore devicegraph.Store,
	scorer Scorer,
	dispatcher Dispatcher,
	auditor Auditor,
	risk config.RiskConfig,
	log *logger.Logger,
) *Pipeline {
	return &Pipeline{
		velocityStore: velocityStore,
		graphStore:    graphStore,
		scorer:        scorer,
		dispatcher:    dispatcher,
		auditor:       auditor,
		risk:          risk,
		log:           log,
	}
}

// Decide runs the full state machine for one transaction. Replays terminate
// early with the prior verdict; an error return means the transaction is in
// the FAILED state and the caller should surface a generic internal error.
// Note a failure after the velocity write leaves the transaction counted;
// that anomaly is logged, never rolled back.
func (p *Pipeline) Decide(ctx context.Context, req *entities.TransactionRequest) (*entities.DecisionResult, error) {
	start := time.Now()
	state := StateReceived

	p.scorer.EnsureReady(ctx)

	// Velocity and idempotency: the one atomic step.
	ctxStage, span := tracing.StartStage(ctx, "velocity_and_idempotency_check")
	outcome, err := p.velocityStore.Apply(ctxStage, req.UserID, req.TransactionID, req.Location, start)
	span.End()

	if errors.Is(err, velocity.ErrReplay) {
		return p.replay(ctx, req, start)
	}
	if err != nil {
		state = StateFailed
		p.log.CtxError(ctx, "Velocity store apply failed",
			"state", string(state),
			"user_id", req.UserID,
			"transaction_id", req.TransactionID,
			"error", err,
		)
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "velocity state unavailable")
	}
	state = StateVelocityChecked

	highVelocity := outcome.VelocityCounter > p.risk.VelocityThreshold
	impossibleTravel := outcome.PrevLocation != req.Location && outcome.VelocityCounter > 1

	// Device graph: update first so the current edge counts toward its own
	// ring detection, then read. Both degrade to no signal on failure.
	isFraudRing, linkedUsers := false, 0
	if req.DeviceID != "" {
		ctxStage, span = tracing.StartStage(ctx, "graph_analysis")
		if err := p.graphStore.RecordUsage(ctxStage, req.DeviceID, req.UserID, start); err != nil {
			metrics.GraphStoreFailuresTotal.Inc()
			p.log.CtxWarn(ctx, "Device graph update failed", "device_id", req.DeviceID, "error", err)
		}
		count, err := p.graphStore.DistinctUserCount(ctxStage, req.DeviceID)
		span.End()
		if err != nil {
			metrics.GraphStoreFailuresTotal.Inc()
			p.log.CtxWarn(ctx, "Device graph read failed", "device_id", req.DeviceID, "error", err)
		} else {
			linkedUsers = count
			isFraudRing = count > p.risk.RingThreshold
		}
	}
	state = StateGraphChecked

	// Inference.
	_, span = tracing.StartStage(ctx, "inference")
	scoreResult := p.scorer.Score(scoring.Features{
		Amount:           req.Amount,
		VelocityCounter:  outcome.VelocityCounter,
		ImpossibleTravel: impossibleTravel,
		Merchant:         req.Merchant,
		Location:         req.Location,
	})
	span.End()
	riskScore := round2(scoreResult.Value)
	state = StateScored

	var reasons []string
	if highVelocity {
		reasons = append(reasons, entities.ReasonHighVelocity)
	}
	if impossibleTravel {
		reasons = append(reasons, entities.ReasonImpossibleTravel)
	}
	if riskScore > p.risk.RiskScoreThreshold {
		reasons = append(reasons, entities.ReasonHighRiskScore)
	}
	if isFraudRing {
		metrics.FraudRingsDetected.Inc()
		p.log.CtxWarn(ctx, "Fraud ring detected",
			"device_id", req.DeviceID,
			"linked_users", linkedUsers,
		)
		reasons = append(reasons, entities.FraudRingReason(linkedUsers))
	}

	verdict := entities.DecisionAllow
	if len(reasons) > 0 {
		verdict = entities.DecisionBlock
	}
	state = StateDecided

	// Write the verdict back. The transaction is already counted and the
	// replay window closed, so a failure here only degrades future replay
	// responses.
	ctxStage, span = tracing.StartStage(ctx, "finalize")
	if err := p.velocityStore.Finalize(ctxStage, req.UserID, verdict, riskScore); err != nil {
		p.log.CtxError(ctx, "Decision write-back failed, replay responses may be stale",
			"user_id", req.UserID,
			"transaction_id", req.TransactionID,
			"error", err,
		)
	}
	span.End()
	state = StateFinalized

	result := &entities.DecisionResult{
		Status:          verdict,
		TransactionID:   req.TransactionID,
		RiskScore:       riskScore,
		Reasons:         append([]string{}, reasons...),
		VelocityCounter: outcome.VelocityCounter,
		LatencyMS:       latencyMS(start),
		ModelLoaded:     p.scorer.Ready(),
		Idempotent:      false,
	}

	p.auditor.Append(ctx, entities.AuditRecord{
		TransactionID:   req.TransactionID,
		UserID:          req.UserID,
		Amount:          req.Amount,
		Merchant:        req.Merchant,
		Location:        req.Location,
		DeviceID:        req.DeviceID,
		VelocityCounter: outcome.VelocityCounter,
		LastLocation:    outcome.PrevLocation,
		RiskScore:       riskScore,
		Decision:        verdict,
		Reasons:         result.Reasons,
		Timestamp:       start.Unix(),
	})

	// Shadow dispatch is fire-and-forget; the caller-visible path never
	// waits on it.
	msg := entities.ShadowEvaluationMessage{
		Transaction:       *req,
		ChampionDecision:  verdict,
		ChampionRiskScore: riskScore,
		Timestamp:         start.Unix(),
	}
	go p.dispatcher.Dispatch(context.WithoutCancel(ctx), msg)

	metrics.DecisionsTotal.WithLabelValues(string(verdict)).Inc()
	metrics.DecisionLatency.Observe(time.Since(start).Seconds())
	for _, reason := range reasons {
		metrics.DecisionReasonsTotal.WithLabelValues(reasonLabel(reason)).Inc()
	}

	p.log.CtxInfo(ctx, "Transaction decided",
		"state", string(state),
		"transaction_id", req.TransactionID,
		"user_id", req.UserID,
		"decision", string(verdict),
		"risk_score", riskScore,
		"velocity_counter", outcome.VelocityCounter,
		"reasons", reasons,
	)

	return result, nil
}

// replay answers a resubmitted transaction id from the stored record. The
// counter is reported as 0 because nothing was incremented.
func (p *Pipeline) replay(ctx context.Context, req *entities.TransactionRequest, start time.Time) (*entities.DecisionResult, error) {
	ctxStage, span := tracing.StartStage(ctx, "idempotent_replay")
	record, err := p.velocityStore.Get(ctxStage, req.UserID)
	span.End()
	if err != nil || record == nil {
		p.log.CtxError(ctx, "Replay detected but record read-back failed",
			"user_id", req.UserID,
			"transaction_id", req.TransactionID,
			"error", err,
		)
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "replay record unavailable")
	}

	metrics.IdempotentReplaysTotal.Inc()
	p.log.CtxInfo(ctx, "Idempotent replay",
		"transaction_id", req.TransactionID,
		"user_id", req.UserID,
		"prior_decision", string(record.LastDecision),
	)

	return &entities.DecisionResult{
		Status:          record.LastDecision,
		TransactionID:   req.TransactionID,
		RiskScore:       record.LastRiskScore,
		Reasons:         []string{entities.ReasonIdempotentReplay},
		VelocityCounter: 0,
		LatencyMS:       latencyMS(start),
		ModelLoaded:     p.scorer.Ready(),
		Idempotent:      true,
	}, nil
}

// reasonLabel collapses parameterized ring reasons into one metric label to
// keep cardinality bounded.
func reasonLabel(reason string) string {
	if len(reason) >= len("FRAUD_RING") && reason[:len("FRAUD_RING")] == "FRAUD_RING" {
		return "FRAUD_RING_DETECTED"
	}
	return reason
}

func latencyMS(start time.Time) float64 {
	return round2(float64(time.Since(start).Microseconds()) / 1000)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
