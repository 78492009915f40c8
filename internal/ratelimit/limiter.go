package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a token gate bounding outbound request rate. Tokens refill
// at one per interval with uniform spacing, so callers see a request
// every interval rather than bursts. Safe for any number of concurrent
// callers; no fairness guarantee beyond bounded throughput.
type Limiter struct {
	limiter *rate.Limiter
}

// Options contains options for creating a Limiter
type Options struct {
	// Interval is the spacing between granted tokens
	Interval time.Duration
	// Burst is the bucket depth; 1 gives strictly uniform spacing
	Burst int
}

// DefaultOptions returns default limiter options
func DefaultOptions() Options {
	return Options{
		Interval: 2 * time.Second,
		Burst:    1,
	}
}

// New creates a new Limiter with the given options
func New(opts Options) *Limiter {
	if opts.Interval <= 0 {
		opts.Interval = 2 * time.Second
	}
	if opts.Burst < 1 {
		opts.Burst = 1
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Every(opts.Interval), opts.Burst),
	}
}

// Acquire blocks until a token is available. The only failure mode is
// context cancellation; the limiter itself never errors or times out.
func (l *Limiter) Acquire(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}
