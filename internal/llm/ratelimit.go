package llm

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimitedProvider holds each call until the limiter admits it.
type RateLimitedProvider struct {
	inner   Provider
	limiter *rate.Limiter
}

// WithRateLimit caps outbound requests at rps with the given burst. A
// non-positive rps returns p unchanged.
func WithRateLimit(p Provider, rps float64, burst int) Provider {
	if rps <= 0 {
		return p
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedProvider{inner: p, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (r *RateLimitedProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, &ErrRateLimit{Err: err}
	}
	return r.inner.Generate(ctx, req)
}

func (r *RateLimitedProvider) ModelID() string {
	return r.inner.ModelID()
}
