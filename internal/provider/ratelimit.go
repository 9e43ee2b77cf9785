package provider

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimitedEmbedder enforces a client-side rate limit in front of an
// embedder. A saturated limiter is reported as ErrRateLimited so callers
// take their per-call fallback path instead of queueing behind the provider.
type RateLimitedEmbedder struct {
	inner   Embedder
	limiter *rate.Limiter
}

// NewRateLimitedEmbedder wraps inner with a token-bucket limiter.
func NewRateLimitedEmbedder(inner Embedder, rps float64, burst int) *RateLimitedEmbedder {
	return &RateLimitedEmbedder{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Embed calls the wrapped embedder if the limiter permits.
func (r *RateLimitedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if !r.limiter.Allow() {
		return nil, ErrRateLimited
	}
	return r.inner.Embed(ctx, text)
}

// RateLimitedCompleter enforces a client-side rate limit in front of a
// completer.
type RateLimitedCompleter struct {
	inner   Completer
	limiter *rate.Limiter
}

// NewRateLimitedCompleter wraps inner with a token-bucket limiter.
func NewRateLimitedCompleter(inner Completer, rps float64, burst int) *RateLimitedCompleter {
	return &RateLimitedCompleter{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Complete calls the wrapped completer if the limiter permits.
func (r *RateLimitedCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if !r.limiter.Allow() {
		return "", ErrRateLimited
	}
	return r.inner.Complete(ctx, prompt)
}

var (
	_ Embedder  = (*RateLimitedEmbedder)(nil)
	_ Completer = (*RateLimitedCompleter)(nil)
)
