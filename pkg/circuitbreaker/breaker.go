// Package circuitbreaker wraps sony/gobreaker with settings tuned for the
// decision path's read dependencies. Those reads are advisory: skipping one
// degrades a single risk signal, while waiting on a dead backend stalls
// every verdict, so the breaker trips on a short run of consecutive
// failures rather than a failure-ratio window.
package circuitbreaker

import (
	"time"

	"github.com/sony/gobreaker"
)

// ErrOpen is returned by Execute while the breaker is rejecting calls.
var ErrOpen = gobreaker.ErrOpenState

type Config struct {
	// MaxRequests caps concurrent probe calls while half-open.
	MaxRequests uint32
	// Interval clears the failure run while closed, so sporadic errors
	// spaced out over time never accumulate into a trip.
	Interval time.Duration
	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration
	// TripAfter opens the breaker once this many calls in a row fail.
	// Zero means the default.
	TripAfter uint32
}

const defaultTripAfter = 3

// DefaultConfig keeps the open window short: a graph backend that recovers
// should be back in the verdict within half a minute.
func DefaultConfig() Config {
	return Config{
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     30 * time.Second,
		TripAfter:   defaultTripAfter,
	}
}

func New(name string, cfg Config) *gobreaker.CircuitBreaker {
	trip := cfg.TripAfter
	if trip == 0 {
		trip = defaultTripAfter
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= trip
		},
	})
}
