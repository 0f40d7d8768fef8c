// Package latency simulates network round trips for the backend-less stores.
package latency

import (
	"context"
	"time"
)

// Simulator waits a fixed delay before letting an operation complete.
// A zero delay makes every call return immediately.
type Simulator struct {
	delay time.Duration
}

// New creates a Simulator with the given delay.
func New(delay time.Duration) *Simulator {
	return &Simulator{delay: delay}
}

// Wait blocks for the configured delay or until ctx is done.
func (s *Simulator) Wait(ctx context.Context) error {
	if s == nil || s.delay <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(s.delay)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
