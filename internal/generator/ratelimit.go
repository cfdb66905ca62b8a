package generator

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limited wraps a Generator with a token bucket. Calls over the limit fail
// immediately with ErrRateLimited instead of waiting.
type Limited struct {
	next    Generator
	limiter *rate.Limiter
}

// NewLimited allows perMinute calls per minute with the given burst.
// A non-positive perMinute disables limiting.
func NewLimited(next Generator, perMinute, burst int) Generator {
	if perMinute <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &Limited{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst),
	}
}

// Name returns the wrapped provider name.
func (l *Limited) Name() string { return l.next.Name() }

// Complete forwards to the wrapped generator when a token is available.
func (l *Limited) Complete(ctx context.Context, req Request) (string, error) {
	if !l.limiter.Allow() {
		return "", ErrRateLimited
	}
	return l.next.Complete(ctx, req)
}
