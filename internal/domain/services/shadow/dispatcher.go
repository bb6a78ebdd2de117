package shadow

import (
	"context"
	"encoding/json"

	"github.com/sherlock-service/sherlock_service/internal/domain/entities"
	"github.com/sherlock-service/sherlock_service/internal/infrastructure/queue"
	"github.com/sherlock-service/sherlock_service/pkg/logger"
	"github.com/sherlock-service/sherlock_service/pkg/metrics"
)

// Dispatcher forwards the champion's verdict onto the shadow queue.
// Publishing is strictly fire-and-forget: any failure is logged and
// swallowed so it can never affect the champion's response.
type Dispatcher struct {
	publisher queue.Publisher
	log       *logger.Logger
}

func NewDispatcher(publisher queue.Publisher, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		publisher: publisher,
		log:       log,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, msg entities.ShadowEvaluationMessage) {
	body, err := json.Marshal(msg)
	if err != nil {
		metrics.ShadowDispatchedTotal.WithLabelValues("error").Inc()
		d.log.Errorw("Shadow message marshal failed",
			"transaction_id", msg.Transaction.TransactionID,
			"error", err,
		)
		return
	}

	if err := d.publisher.Publish(ctx, body); err != nil {
		metrics.ShadowDispatchedTotal.WithLabelValues("error").Inc()
		d.log.Warnw("Shadow dispatch failed",
			"transaction_id", msg.Transaction.TransactionID,
			"error", err,
		)
		return
	}

	metrics.ShadowDispatchedTotal.WithLabelValues("ok").Inc()
}
