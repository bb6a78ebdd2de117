package shadow

import (
	"math/rand"
	"sync"

	"github.com/sherlock-service/sherlock_service/internal/domain/services/scoring"
)

// Challenger is the candidate model being evaluated against live traffic.
// It only ever sees shadow messages; its verdicts never reach callers.
type Challenger interface {
	Score(features scoring.Features) scoring.Result
}

// RandomChallenger stands in for a heavy challenger model that has not been
// trained yet: a uniform score in [0,100). Useful for exercising the
// evaluation protocol end to end before a real candidate exists.
type RandomChallenger struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomChallenger(seed int64) *RandomChallenger {
	return &RandomChallenger{rng: rand.New(rand.NewSource(seed))}
}

func (c *RandomChallenger) Score(features scoring.Features) scoring.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return scoring.Result{Value: c.rng.Float64() * 100}
}
