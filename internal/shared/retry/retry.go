package retry

import (
	"context"
	"time"
)

// Policy bounds how often and how patiently an operation is retried.
type Policy struct {
	MaxAttempts       int           // total attempts including the first (default: 3)
	BaseDelay         time.Duration // delay before the second attempt (default: 50ms)
	MaxDelay          time.Duration // cap for the exponential delay (default: 2s)
	BackoffMultiplier float64       // default: 2.0
}

// DefaultPolicy returns the policy used when a zero Policy is supplied.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:       3,
		BaseDelay:         50 * time.Millisecond,
		MaxDelay:          2 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

func (p Policy) normalized() Policy {
	def := DefaultPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.BaseDelay < 0 {
		p.BaseDelay = 0
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = def.MaxDelay
	}
	if p.BackoffMultiplier < 1 {
		p.BackoffMultiplier = def.BackoffMultiplier
	}
	return p
}

// Do calls fn until it succeeds, returns an error shouldRetry rejects, the
// attempts run out, or ctx ends. onRetry, when set, is called before each
// sleep with the attempt number that just failed. The last error is returned.
func Do(ctx context.Context, p Policy, shouldRetry func(error) bool, onRetry func(attempt int, err error), fn func(ctx context.Context) error) error {
	p = p.normalized()
	delay := p.BaseDelay

	var err error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if cerr := ctx.Err(); cerr != nil {
			if err != nil {
				return err
			}
			return cerr
		}
		err = fn(ctx)
		if err == nil || !shouldRetry(err) || attempt == p.MaxAttempts {
			return err
		}
		if onRetry != nil {
			onRetry(attempt, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return err
		}
		delay = time.Duration(float64(delay) * p.BackoffMultiplier)
		if delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return err
}
