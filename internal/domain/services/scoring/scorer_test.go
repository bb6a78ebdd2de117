package scoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sherlock-service/sherlock_service/pkg/logger"
)

func TestHeuristicScore(t *testing.T) {
	scorer := HeuristicScorer{}

	tests := []struct {
		name     string
		features Features
		want     float64
	}{
		{"baseline", Features{VelocityCounter: 0}, 50},
		{"velocity only", Features{VelocityCounter: 3}, 65},
		{"travel only", Features{VelocityCounter: 0, ImpossibleTravel: true}, 70},
		{"velocity and travel", Features{VelocityCounter: 6, ImpossibleTravel: true}, 100},
		{"can exceed 100", Features{VelocityCounter: 20, ImpossibleTravel: true}, 170},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := scorer.Score(tt.features)
			assert.Equal(t, tt.want, res.Value)
			assert.False(t, res.Degraded)
		})
	}
}

func TestHeuristicIgnoresAmount(t *testing.T) {
	scorer := HeuristicScorer{}

	low := scorer.Score(Features{Amount: 1})
	high := scorer.Score(Features{Amount: 1_000_000})
	assert.Equal(t, low.Value, high.Value)
}

func TestFeatureVectorOrderAndStability(t *testing.T) {
	f := Features{
		Amount:           120.50,
		VelocityCounter:  3,
		ImpossibleTravel: true,
		Merchant:         "acme",
		Location:         "London",
	}

	v1 := f.Vector()
	v2 := f.Vector()

	require.Len(t, v1, 5)
	assert.Equal(t, 120.50, v1[0])
	assert.Equal(t, 3.0, v1[1])
	assert.Equal(t, 1.0, v1[2])
	assert.Less(t, v1[3], 1000.0)
	assert.Less(t, v1[4], 100.0)
	// Hash buckets are deterministic across calls.
	assert.Equal(t, v1, v2)
}

func TestFeatureVectorDistinguishesMerchants(t *testing.T) {
	a := Features{Merchant: "acme"}.Vector()
	b := Features{Merchant: "globex"}.Vector()
	assert.NotEqual(t, a[3], b[3])
}

type staticSource struct {
	data []byte
	err  error
}

func (s staticSource) Fetch(ctx context.Context, url string) ([]byte, error) {
	return s.data, s.err
}

func TestHandleFallsBackWithoutArtifact(t *testing.T) {
	h := NewHandle(staticSource{}, "", logger.NewNop())

	assert.False(t, h.EnsureReady(context.Background()))
	assert.False(t, h.Ready())

	res := h.Score(Features{VelocityCounter: 2})
	assert.Equal(t, 60.0, res.Value)
	assert.True(t, res.Degraded)
	assert.Equal(t, DegradedModelUnavailable, res.DegradedReason)
}

func TestHandleFallsBackOnFetchFailure(t *testing.T) {
	h := NewHandle(staticSource{err: errors.New("object store down")}, "https://models/champion.json", logger.NewNop())

	assert.False(t, h.EnsureReady(context.Background()))

	res := h.Score(Features{VelocityCounter: 1, ImpossibleTravel: true})
	assert.Equal(t, 75.0, res.Value)
	assert.True(t, res.Degraded)
}

func TestHandleFallsBackOnCorruptArtifact(t *testing.T) {
	h := NewHandle(staticSource{data: []byte("not a model")}, "https://models/champion.json", logger.NewNop())

	assert.False(t, h.EnsureReady(context.Background()))
	assert.False(t, h.Ready())
}

func TestHandleLoadsValidModel(t *testing.T) {
	h := NewHandle(staticSource{data: singleStumpModel(t)}, "https://models/champion.json", logger.NewNop())

	assert.True(t, h.EnsureReady(context.Background()))
	assert.True(t, h.Ready())

	// Second call is a no-op.
	assert.True(t, h.EnsureReady(context.Background()))

	res := h.Score(Features{Amount: 500})
	assert.False(t, res.Degraded)
	assert.Greater(t, res.Value, 0.0)
	assert.LessOrEqual(t, res.Value, 100.0)
}

type gatedSource struct {
	started chan struct{}
	release chan struct{}
	data    []byte
}

func (s *gatedSource) Fetch(ctx context.Context, url string) ([]byte, error) {
	close(s.started)
	<-s.release
	return s.data, nil
}

func TestScoreDegradesWhileLoadInFlight(t *testing.T) {
	src := &gatedSource{
		started: make(chan struct{}),
		release: make(chan struct{}),
		data:    singleStumpModel(t),
	}
	h := NewHandle(src, "https://models/champion.json", logger.NewNop())

	loaded := make(chan bool, 1)
	go func() { loaded <- h.EnsureReady(context.Background()) }()
	<-src.started

	// The download is in flight. Scoring must not queue behind it.
	start := time.Now()
	assert.False(t, h.EnsureReady(context.Background()))
	res := h.Score(Features{VelocityCounter: 1})
	assert.Less(t, time.Since(start), 200*time.Millisecond)
	assert.Equal(t, 55.0, res.Value)
	assert.True(t, res.Degraded)
	assert.Equal(t, DegradedModelUnavailable, res.DegradedReason)

	close(src.release)
	assert.True(t, <-loaded)
	assert.True(t, h.Ready())
	assert.False(t, h.Score(Features{Amount: 500}).Degraded)
}
