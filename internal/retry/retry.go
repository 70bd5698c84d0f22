// Package retry runs an operation with bounded attempts and exponential
// backoff. It is used for side effects against external systems (result
// persistence, notification dispatch) where transient failures are expected.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy controls attempts and backoff. The delay before attempt n+1 is
// InitialDelay * Multiplier^(n-1).
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64

	// Sleep is injectable for tests; nil means a context-aware wait.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy mirrors the persistence retry settings: three attempts,
// 2s initial delay, doubling.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: 2 * time.Second,
		Multiplier:   2,
	}
}

// Do runs op until it succeeds, attempts are exhausted, or ctx is done.
// The returned error wraps the last failure.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Multiplier <= 0 {
		p.Multiplier = 2
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = waitCtx
	}

	var lastErr error
	delay := p.InitialDelay

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == p.MaxAttempts {
			break
		}

		if err := sleep(ctx, delay); err != nil {
			return err
		}
		delay = time.Duration(float64(delay) * p.Multiplier)
	}

	return fmt.Errorf("all %d attempts failed: %w", p.MaxAttempts, lastErr)
}

func waitCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
