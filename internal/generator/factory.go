package generator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ashureev/careersim/internal/config"
	"go.uber.org/zap"
)

// Recorder receives one observation per completed generator call.
type Recorder interface {
	ObserveGenerator(provider, outcome string, elapsed time.Duration)
}

// FromConfig builds the configured generator, wrapped with rate limiting and
// observation. It returns (nil, nil) when no provider is configured.
func FromConfig(ctx context.Context, cfg *config.Config, rec Recorder, logger *zap.Logger) (Generator, error) {
	retry := DefaultRetryConfig()
	retry.MaxAttempts = cfg.Generator.MaxAttempts

	var gen Generator
	switch cfg.Generator.Provider {
	case config.ProviderNone:
		return nil, nil
	case config.ProviderOpenAI:
		o, err := NewOpenAI(cfg.OpenAI.APIKey, cfg.Generator.Model,
			WithBaseURL(cfg.Generator.BaseURL),
			WithRetryConfig(retry),
			WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		gen = o
	case config.ProviderGemini:
		g, err := NewGemini(ctx, cfg.Gemini.APIKey, cfg.Generator.Model, retry, logger)
		if err != nil {
			return nil, err
		}
		gen = g
	default:
		return nil, fmt.Errorf("unsupported generator provider %q", cfg.Generator.Provider)
	}

	gen = NewLimited(gen, cfg.Generator.RatePerMinute, cfg.Generator.Burst)
	if rec != nil {
		gen = Observe(gen, rec)
	}
	return gen, nil
}

// Observed reports the outcome and latency of every call to a Recorder.
type Observed struct {
	next Generator
	rec  Recorder
}

// Observe wraps next so every call is reported to rec.
func Observe(next Generator, rec Recorder) *Observed {
	return &Observed{next: next, rec: rec}
}

// Name returns the wrapped provider name.
func (o *Observed) Name() string { return o.next.Name() }

// Complete forwards the call and records its outcome.
func (o *Observed) Complete(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	out, err := o.next.Complete(ctx, req)
	o.rec.ObserveGenerator(o.next.Name(), Outcome(ctx, err), time.Since(start))
	return out, err
}

// Outcome labels an error for metrics.
func Outcome(ctx context.Context, err error) string {
	switch {
	case err == nil:
		return "success"
	case ctx.Err() != nil:
		return "timeout"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case IsFatal(err):
		return "fatal"
	default:
		return "transient"
	}
}
