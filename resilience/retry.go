package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"

	apperrors "github.com/kbukum/licensing/errors"
)

// ErrRetriesExhausted wraps the last error once every attempt has failed.
var ErrRetriesExhausted = errors.New("retries exhausted")

// RetryConfig configures retry behavior.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the first).
	MaxAttempts int
	// InitialBackoff is the delay before the second attempt.
	InitialBackoff time.Duration
	// MaxBackoff caps the delay between attempts.
	MaxBackoff time.Duration
	// BackoffFactor is the multiplier for exponential backoff.
	BackoffFactor float64
	// Jitter randomizes each delay by ±Jitter (0.0 to 1.0).
	Jitter float64
	// RetryIf determines if an error should be retried.
	RetryIf func(error) bool
	// OnRetry is called before each retry.
	OnRetry func(attempt int, err error, backoff time.Duration)
}

func retryConfig(p PolicyConfig) RetryConfig {
	return RetryConfig{
		MaxAttempts:    p.RetryMaxAttempts,
		InitialBackoff: p.RetryBackoff,
		MaxBackoff:     p.RetryMaxBackoff,
		BackoffFactor:  p.RetryBackoffMultiplier,
		Jitter:         p.RetryJitter,
		RetryIf:        DefaultRetryIf,
	}
}

// DefaultRetryIf retries attempt timeouts and application errors flagged
// as retryable. Caller cancellation is never retried.
func DefaultRetryIf(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrAttemptTimeout) {
		return true
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr.Retryable
	}
	return false
}

// Retry calls fn until it succeeds, returns a non-retryable error, or
// MaxAttempts is reached. Attempts are strictly sequential; backoff waits
// end early when ctx is done.
//
// When more than one attempt was allowed and all of them failed with
// retryable errors, the result wraps ErrRetriesExhausted and the last error.
func Retry[T any](ctx context.Context, cfg RetryConfig, fn func(attempt int) (T, error)) (T, error) {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.RetryIf == nil {
		cfg.RetryIf = DefaultRetryIf
	}

	var (
		attempt int
		lastErr error
	)
	operation := func() (T, error) {
		attempt++
		v, err := fn(attempt)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if !cfg.RetryIf(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(newExponentialBackOff(cfg)),
		backoff.WithMaxTries(uint(cfg.MaxAttempts)),
		backoff.WithMaxElapsedTime(0),
	}
	if cfg.OnRetry != nil {
		opts = append(opts, backoff.WithNotify(func(err error, d time.Duration) {
			cfg.OnRetry(attempt, err, d)
		}))
	}

	v, err := backoff.Retry(ctx, operation, opts...)
	if err == nil {
		return v, nil
	}

	// lastErr is the attempt's own error; err may be a context cause or a
	// *backoff.PermanentError wrapper.
	if lastErr == nil {
		return v, err
	}
	if attempt >= cfg.MaxAttempts && cfg.MaxAttempts > 1 && cfg.RetryIf(lastErr) {
		return v, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempt, lastErr)
	}
	return v, lastErr
}

func newExponentialBackOff(cfg RetryConfig) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialBackoff
	b.RandomizationFactor = cfg.Jitter
	if cfg.BackoffFactor >= 1 {
		b.Multiplier = cfg.BackoffFactor
	}
	if cfg.MaxBackoff > 0 {
		b.MaxInterval = cfg.MaxBackoff
	}
	return b
}
