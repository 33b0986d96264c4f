package retry

import (
	"context"
	"time"
)

// BackoffStrategy defines the interface for different backoff strategies
type BackoffStrategy interface {
	// NextDelay returns the delay before the next attempt. The attempt
	// argument is the number of the attempt that just failed, starting
	// at 1.
	NextDelay(attempt int) time.Duration
}

// LinearBackoff implements linear backoff: the delay after attempt n is
// n * Step, capped at MaxDelay when MaxDelay is set.
type LinearBackoff struct {
	// Step is the amount the delay grows by with every attempt
	Step time.Duration
	// MaxDelay caps the delay (0 means no cap)
	MaxDelay time.Duration
}

// DefaultLinearBackoff returns the backoff used against the target site:
// 10s, 20s, 30s, ... between attempts.
func DefaultLinearBackoff() *LinearBackoff {
	return &LinearBackoff{
		Step: 10 * time.Second,
	}
}

// NextDelay calculates the next delay with linear backoff
func (lb *LinearBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := lb.Step * time.Duration(attempt)
	if lb.MaxDelay > 0 && delay > lb.MaxDelay {
		delay = lb.MaxDelay
	}

	return delay
}

// ConstantBackoff implements constant delay backoff
type ConstantBackoff struct {
	Delay time.Duration
}

// NextDelay returns a constant delay
func (cb *ConstantBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return cb.Delay
}

// Wait waits for the specified duration or until context is cancelled
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
