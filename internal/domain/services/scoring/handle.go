package scoring

import (
	"context"
	"sync"

	"github.com/sherlock-service/sherlock_service/pkg/logger"
	"github.com/sherlock-service/sherlock_service/pkg/metrics"
)

// ArtifactSource supplies the serialized model, typically from an object
// store with a local cache.
type ArtifactSource interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Handle is the process-wide scorer with explicit readiness. EnsureReady
// loads the trained model once; until it succeeds, and whenever the model
// errors, scoring degrades to the heuristic with the reason tagged on the
// Result so callers and tests can observe the fallback without scraping
// logs.
type Handle struct {
	source      ArtifactSource
	artifactURL string
	fallback    HeuristicScorer
	log         *logger.Logger

	mu      sync.Mutex
	model   *GBTreeModel
	ready   bool
	tried   bool
	loading bool
}

func NewHandle(source ArtifactSource, artifactURL string, log *logger.Logger) *Handle {
	return &Handle{
		source:      source,
		artifactURL: artifactURL,
		log:         log,
	}
}

// EnsureReady loads the model if it has not been loaded yet. A failed load
// is retried on a later call; load failure is not an error for the caller
// because the heuristic fallback keeps the scorer usable. Only one caller
// fetches at a time: while a load is in flight everyone else returns not
// ready immediately, so a slow artifact download never stalls scoring.
func (h *Handle) EnsureReady(ctx context.Context) bool {
	h.mu.Lock()
	if h.ready {
		h.mu.Unlock()
		return true
	}
	if h.artifactURL == "" {
		if !h.tried {
			h.tried = true
			h.log.Warnw("No model artifact configured, scoring on heuristic fallback")
		}
		h.mu.Unlock()
		return false
	}
	if h.loading {
		h.mu.Unlock()
		return false
	}
	h.loading = true
	h.mu.Unlock()

	model := h.load(ctx)

	h.mu.Lock()
	h.loading = false
	if model != nil {
		h.model = model
		h.ready = true
	}
	h.mu.Unlock()

	if model == nil {
		return false
	}
	metrics.ModelLoadedGauge.Set(1)
	h.log.Infow("Model loaded", "trees", model.NumTrees())
	return true
}

// load fetches and parses the artifact. It must run outside the handle
// lock; Score snapshots state under the lock and cannot wait on a download.
func (h *Handle) load(ctx context.Context) *GBTreeModel {
	data, err := h.source.Fetch(ctx, h.artifactURL)
	if err != nil {
		h.log.Warnw("Model artifact fetch failed, staying on heuristic fallback", "error", err)
		return nil
	}

	model, err := ParseGBTreeModel(data)
	if err != nil {
		h.log.Errorw("Model artifact is unusable, staying on heuristic fallback", "error", err)
		return nil
	}
	return model
}

// Ready reports whether the trained model is loaded.
func (h *Handle) Ready() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ready
}

// Score evaluates the model, falling back to the heuristic on any failure.
func (h *Handle) Score(features Features) Result {
	h.mu.Lock()
	model := h.model
	ready := h.ready
	h.mu.Unlock()

	if !ready {
		metrics.ScorerFallbacksTotal.WithLabelValues(DegradedModelUnavailable).Inc()
		res := h.fallback.Score(features)
		res.Degraded = true
		res.DegradedReason = DegradedModelUnavailable
		return res
	}

	prob, err := model.Predict(features.Vector())
	if err != nil {
		h.log.Warnw("Model inference failed, using heuristic fallback", "error", err)
		metrics.ScorerFallbacksTotal.WithLabelValues(DegradedModelError).Inc()
		res := h.fallback.Score(features)
		res.Degraded = true
		res.DegradedReason = DegradedModelError
		return res
	}

	return Result{Value: prob * 100}
}
