package health

import (
	"context"
	"time"
)

// PingFunc probes a component and returns an error when it is unreachable.
type PingFunc func(ctx context.Context) error

// PingChecker adapts any connectivity probe (queue connection, graph driver)
// into a Checker.
type PingChecker struct {
	name    string
	ping    PingFunc
	timeout time.Duration
}

// NewPingChecker creates a checker around a connectivity probe
func NewPingChecker(name string, ping PingFunc, timeout time.Duration) *PingChecker {
	if timeout == 0 {
		timeout = 3 * time.Second
	}

	return &PingChecker{
		name:    name,
		ping:    ping,
		timeout: timeout,
	}
}

// Check performs the probe
func (c *PingChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.ping(ctx); err != nil {
		return NewUnhealthyResult(c.name, err).WithDuration(time.Since(start))
	}

	return NewHealthyResult(c.name, "connected").WithDuration(time.Since(start))
}

// Name returns the checker name
func (c *PingChecker) Name() string {
	return c.name
}
