package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sherlock_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sherlock_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Decision metrics
	DecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sherlock_decisions_total",
			Help: "Total number of risk decisions by outcome",
		},
		[]string{"decision"},
	)

	DecisionLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sherlock_decision_latency_seconds",
			Help:    "End-to-end decision pipeline latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		},
	)

	IdempotentReplaysTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sherlock_idempotent_replays_total",
			Help: "Transactions answered from the replay guard without re-scoring",
		},
	)

	DecisionReasonsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sherlock_decision_reasons_total",
			Help: "Occurrences of each block reason",
		},
		[]string{"reason"},
	)

	FraudRingsDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sherlock_fraud_rings_detected_total",
			Help: "Device-sharing rings detected above the configured threshold",
		},
	)

	// Scorer metrics
	ScorerFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sherlock_scorer_fallbacks_total",
			Help: "Scoring requests served by the heuristic fallback",
		},
		[]string{"reason"},
	)

	ModelLoadedGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sherlock_model_loaded",
			Help: "Whether the trained model backend is loaded (1) or not (0)",
		},
	)

	// Store metrics
	VelocityStoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sherlock_velocity_store_operation_duration_seconds",
			Help:    "Velocity store operation duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
		[]string{"operation"},
	)

	GraphStoreFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sherlock_graph_store_failures_total",
			Help: "Device graph operations that degraded to no signal",
		},
	)

	// Shadow metrics
	ShadowDispatchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sherlock_shadow_dispatched_total",
			Help: "Shadow evaluation messages published, by result",
		},
		[]string{"result"}, // ok, error
	)

	ShadowEvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sherlock_shadow_evaluations_total",
			Help: "Shadow evaluations by classification",
		},
		[]string{"classification"}, // agreement, conflict
	)

	AuditAppendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sherlock_audit_appends_total",
			Help: "Audit trail append attempts, by result",
		},
		[]string{"result"},
	)
)
