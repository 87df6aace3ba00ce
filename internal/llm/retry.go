package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

type retryClass int

const (
	retryNever retryClass = iota
	retryOnce
	retryAlways
)

// classifyRetry decides how a failed attempt may be retried. Malformed
// output gets one more attempt per request.
func classifyRetry(err error) retryClass {
	var (
		maxTok *ErrMaxTokensExceeded
		inv    *ErrInvalidResponse
	)
	switch {
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, ErrNotConfigured),
		errors.As(err, &maxTok):
		return retryNever
	case errors.As(err, &inv):
		return retryOnce
	default:
		return retryAlways
	}
}

// RetryProvider retries failed attempts with capped exponential backoff.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
	logger *zap.Logger
}

func WithRetry(p Provider, cfg RetryConfig, logger *zap.Logger) Provider {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryProvider{inner: p, config: cfg, logger: logger}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	usedOnce := false
	for attempt := 1; ; attempt++ {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}

		switch classifyRetry(err) {
		case retryNever:
			return nil, err
		case retryOnce:
			if usedOnce {
				return nil, err
			}
			usedOnce = true
		}
		if attempt >= r.config.MaxAttempts {
			return nil, err
		}

		wait := r.backoff(attempt, err)
		r.logger.Debug("retrying llm request",
			zap.String("purpose", PurposeFrom(ctx)),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err))

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

// backoff is the wait after the given 1-based attempt. A rate limit with a
// server-supplied RetryAfter overrides the schedule.
func (r *RetryProvider) backoff(attempt int, err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}
	wait := float64(r.config.InitialWait) * math.Pow(r.config.Multiplier, float64(attempt-1))
	wait = math.Min(wait, float64(r.config.MaxWait))
	// ±20% jitter
	wait *= 0.8 + 0.4*rand.Float64()
	return time.Duration(math.Max(wait, 0))
}
