package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/sherlock-service/sherlock_service/internal/domain/entities"
	"github.com/sherlock-service/sherlock_service/pkg/metrics"
)

// AuditSink receives trail records. Persistence (delivery stream, warehouse)
// is an external collaborator behind this interface.
type AuditSink interface {
	Write(ctx context.Context, record *entities.AuditRecord) error
}

// AuditService appends one record per decided transaction. Appends are
// fire-and-forget: a sink failure is logged and counted, never surfaced.
type AuditService struct {
	sink   AuditSink
	logger *zap.Logger
}

func NewAuditService(sink AuditSink, logger *zap.Logger) *AuditService {
	return &AuditService{sink: sink, logger: logger}
}

func (s *AuditService) Append(ctx context.Context, record entities.AuditRecord) {
	if err := s.sink.Write(ctx, &record); err != nil {
		metrics.AuditAppendsTotal.WithLabelValues("error").Inc()
		s.logger.Warn("Audit append failed",
			zap.String("transaction_id", record.TransactionID),
			zap.Error(err))
		return
	}
	metrics.AuditAppendsTotal.WithLabelValues("ok").Inc()
}

// LogSink writes audit records to the structured log, the default sink when
// no delivery stream is configured.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Write(ctx context.Context, record *entities.AuditRecord) error {
	s.logger.Info("Audit record",
		zap.String("transaction_id", record.TransactionID),
		zap.String("user_id", record.UserID),
		zap.Float64("amount", record.Amount),
		zap.String("merchant", record.Merchant),
		zap.String("location", record.Location),
		zap.String("device_id", record.DeviceID),
		zap.Int64("velocity_counter", record.VelocityCounter),
		zap.String("last_location", record.LastLocation),
		zap.Float64("risk_score", record.RiskScore),
		zap.String("decision", string(record.Decision)),
		zap.Strings("reasons", record.Reasons),
		zap.Int64("timestamp", record.Timestamp))
	return nil
}
