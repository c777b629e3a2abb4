package payment

import (
	"context"
	"errors"
	"time"

	"commerce-service-go/internal/models"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// RetryPolicy bounds retries of transient processor failures
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	AttemptTimeout  time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 4 * time.Second,
		MaxInterval:     10 * time.Second,
		AttemptTimeout:  30 * time.Second,
	}
}

// NewRetryPolicy fills unset fields from DefaultRetryPolicy
func NewRetryPolicy(cfg models.RetryConfig, attemptTimeout time.Duration) RetryPolicy {
	p := DefaultRetryPolicy()
	if cfg.MaxAttempts > 0 {
		p.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.InitialInterval > 0 {
		p.InitialInterval = cfg.InitialInterval
	}
	if cfg.MaxInterval > 0 {
		p.MaxInterval = cfg.MaxInterval
	}
	if attemptTimeout > 0 {
		p.AttemptTimeout = attemptTimeout
	}
	return p
}

func (p RetryPolicy) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	return b
}

// withRetry runs fn until it succeeds, fails permanently, or the policy is exhausted.
// Only errors wrapping models.ErrProcessorUnavailable are retried.
func withRetry[T any](ctx context.Context, p RetryPolicy, operation string, fn func(ctx context.Context) (T, error)) (T, error) {
	attempt := 0
	op := func() (T, error) {
		attempt++
		attemptCtx, cancel := context.WithTimeout(ctx, p.AttemptTimeout)
		defer cancel()

		result, err := fn(attemptCtx)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, models.ErrProcessorUnavailable) {
			return result, backoff.Permanent(err)
		}

		zap.L().Warn("Transient processor failure",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", p.MaxAttempts),
			zap.Error(err))
		return result, err
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(p.backOff()),
		backoff.WithMaxTries(uint(p.MaxAttempts)))
}
