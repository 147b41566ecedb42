// Package retry runs an operation with bounded exponential backoff.
package retry

import (
	"context"
	"errors"
	"time"
)

const (
	defaultAttempts     = 3
	defaultInitialDelay = 100 * time.Millisecond
	defaultMaxDelay     = 2 * time.Second
)

// Policy bounds how often and how long an operation is retried.
type Policy struct {
	attempts     int
	initialDelay time.Duration
	maxDelay     time.Duration
	retryable    func(error) bool
}

// Option configures a Policy.
type Option func(*Policy)

// WithAttempts sets the total number of attempts, including the first.
func WithAttempts(n int) Option {
	return func(p *Policy) {
		if n > 0 {
			p.attempts = n
		}
	}
}

// WithInitialDelay sets the delay before the second attempt.
func WithInitialDelay(d time.Duration) Option {
	return func(p *Policy) {
		if d >= 0 {
			p.initialDelay = d
		}
	}
}

// WithMaxDelay caps the backoff between attempts.
func WithMaxDelay(d time.Duration) Option {
	return func(p *Policy) {
		if d > 0 {
			p.maxDelay = d
		}
	}
}

// WithRetryable restricts retries to errors accepted by fn.
func WithRetryable(fn func(error) bool) Option {
	return func(p *Policy) {
		p.retryable = fn
	}
}

// New creates a Policy with defaults overridden by opts.
func New(opts ...Option) *Policy {
	p := &Policy{
		attempts:     defaultAttempts,
		initialDelay: defaultInitialDelay,
		maxDelay:     defaultMaxDelay,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Attempts reports the configured attempt budget.
func (p *Policy) Attempts() int {
	return p.attempts
}

// Do calls fn until it succeeds, returns a non-retryable error, the attempt
// budget is spent, or ctx is done. The last error is returned.
func (p *Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	delay := p.initialDelay
	var err error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if p.retryable != nil && !p.retryable(err) {
			return err
		}
		if attempt == p.attempts {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}

		delay *= 2
		if delay > p.maxDelay {
			delay = p.maxDelay
		}
	}
	return err
}
