package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/kbukum/licensing/errors"
	"github.com/kbukum/licensing/logger"
)

// ErrAttemptTimeout marks an attempt that ran past PerAttemptTimeout.
var ErrAttemptTimeout = errors.New("attempt timed out")

// Reason tells why a protected call did not produce a downstream result.
type Reason string

const (
	ReasonCircuitOpen           Reason = "circuit_open"
	ReasonRateLimited           Reason = "rate_limited"
	ReasonBulkheadFull          Reason = "bulkhead_full"
	ReasonAttemptTimeout        Reason = "attempt_timeout"
	ReasonRetriesExhausted      Reason = "retries_exhausted"
	ReasonDownstreamUnreachable Reason = "downstream_unreachable"
	// ReasonDownstreamFailed covers non-transient downstream errors, such as
	// a 4xx answer, that end the call without retrying.
	ReasonDownstreamFailed Reason = "downstream_failed"
)

// RejectionError is returned by Execute whenever the protected call did not
// succeed.
type RejectionError struct {
	Policy   string
	Reason   Reason
	Attempts int
	Err      error
}

func (e *RejectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Policy, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Policy, e.Reason)
}

func (e *RejectionError) Unwrap() error { return e.Err }

// ReasonOf returns the rejection reason carried by err.
func ReasonOf(err error) (Reason, bool) {
	var re *RejectionError
	if errors.As(err, &re) {
		return re.Reason, true
	}
	return "", false
}

// Outcome classifies a single attempt.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFailure  Outcome = "failure"
	OutcomeTimeout  Outcome = "timeout"
	OutcomeRejected Outcome = "rejected"
)

// Attempt describes one call into the downstream (or one breaker rejection).
type Attempt struct {
	Policy  string
	Number  int
	Elapsed time.Duration
	Outcome Outcome
	Err     error
}

// Hooks receive policy events. Any of them may be nil.
type Hooks struct {
	// OnStateChange runs under the breaker lock; keep it short.
	OnStateChange func(policy string, from, to State)
	OnRejected    func(policy string, reason Reason, err error)
	OnAttempt     func(Attempt)
	// OnFallback runs when ExecuteWithFallback serves a fallback value.
	OnFallback func(policy string, reason Reason)
}

// Policy is the protective envelope of one named protected call. It is safe
// for concurrent use and meant to be shared by every caller of that call.
type Policy struct {
	name     string
	cfg      PolicyConfig
	bulkhead *Bulkhead
	limiter  *RateLimiter
	breaker  *CircuitBreaker
	retry    RetryConfig
	hooks    Hooks
	log      *logger.Logger
}

// NewPolicy builds a policy from cfg. Zero fields of cfg take their defaults.
func NewPolicy(name string, cfg PolicyConfig, hooks Hooks, log *logger.Logger) *Policy {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	log = log.WithFields(logger.Fields(logger.FieldPolicy, name))

	p := &Policy{
		name:  name,
		cfg:   cfg,
		hooks: hooks,
		log:   log,
		bulkhead: NewBulkhead(BulkheadConfig{
			Name:          name,
			MaxConcurrent: cfg.BulkheadMaxConcurrent,
			MaxWait:       cfg.BulkheadMaxWait,
		}),
		limiter: NewRateLimiter(RateLimiterConfig{
			Name:     name,
			Limit:    cfg.RateLimitPerInterval,
			Interval: cfg.RateLimitInterval,
		}),
	}

	bc := breakerConfig(name, cfg)
	bc.OnStateChange = func(_ string, from, to State) {
		log.Warn("circuit breaker state changed", logger.Fields("from", from.String(), "to", to.String()))
		if hooks.OnStateChange != nil {
			hooks.OnStateChange(name, from, to)
		}
	}
	p.breaker = NewCircuitBreaker(bc)

	p.retry = retryConfig(cfg)
	p.retry.RetryIf = func(err error) bool {
		return !errors.Is(err, ErrCircuitOpen) && DefaultRetryIf(err)
	}
	p.retry.OnRetry = func(attempt int, err error, d time.Duration) {
		log.Debug("retrying protected call", logger.Fields(
			"attempt", attempt, "backoff", d.String(), logger.FieldError, err.Error(),
		))
	}
	return p
}

// Name returns the policy name.
func (p *Policy) Name() string { return p.name }

// Config returns the effective configuration.
func (p *Policy) Config() PolicyConfig { return p.cfg }

// State returns the breaker state.
func (p *Policy) State() State { return p.breaker.State() }

// Breaker returns the policy's circuit breaker.
func (p *Policy) Breaker() *CircuitBreaker { return p.breaker }

// Bulkhead returns the policy's bulkhead.
func (p *Policy) Bulkhead() *Bulkhead { return p.bulkhead }

// RateLimiter returns the policy's rate limiter.
func (p *Policy) RateLimiter() *RateLimiter { return p.limiter }

// Execute runs fn under p. The checks run outermost first: bulkhead
// admission, rate-limit admission, then a retry loop in which every attempt
// passes the circuit breaker and is bounded by PerAttemptTimeout. fn must
// honour the context it receives.
//
// Any failure is returned as a *RejectionError.
func Execute[T any](ctx context.Context, p *Policy, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if err := p.bulkhead.Acquire(ctx); err != nil {
		return zero, p.reject(ReasonBulkheadFull, 0, err)
	}
	defer p.bulkhead.Release()

	if !p.limiter.Allow() {
		return zero, p.reject(ReasonRateLimited, 0, ErrRateLimited)
	}

	var attempts int
	v, err := Retry(ctx, p.retry, func(n int) (T, error) {
		attempts = n
		return attempt(ctx, p, n, fn)
	})
	if err != nil {
		return zero, p.reject(classify(err), attempts, err)
	}
	return v, nil
}

// attempt performs one breaker-guarded, time-bounded call.
func attempt[T any](ctx context.Context, p *Policy, n int, fn func(context.Context) (T, error)) (T, error) {
	var out T
	start := time.Now()
	err := p.breaker.Execute(func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, p.cfg.PerAttemptTimeout)
		defer cancel()

		v, err := fn(attemptCtx)
		if err == nil {
			out = v
			return nil
		}
		if ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s: %w", ErrAttemptTimeout, p.cfg.PerAttemptTimeout, err)
		}
		return err
	})
	p.recordAttempt(n, time.Since(start), err)
	return out, err
}

// classify maps the final error of the retry loop to a Reason.
func classify(err error) Reason {
	switch {
	case errors.Is(err, ErrCircuitOpen):
		return ReasonCircuitOpen
	case errors.Is(err, ErrRetriesExhausted):
		return ReasonRetriesExhausted
	case errors.Is(err, ErrAttemptTimeout), errors.Is(err, context.DeadlineExceeded):
		return ReasonAttemptTimeout
	case apperrors.HasCode(err, apperrors.ErrCodeConnectionFailed),
		apperrors.HasCode(err, apperrors.ErrCodeServiceUnavailable):
		return ReasonDownstreamUnreachable
	case apperrors.HasCode(err, apperrors.ErrCodeTimeout):
		return ReasonAttemptTimeout
	default:
		return ReasonDownstreamFailed
	}
}

func (p *Policy) reject(reason Reason, attempts int, err error) error {
	p.log.Warn("protected call rejected", logger.Fields(
		"reason", string(reason), "attempts", attempts, logger.FieldError, err.Error(),
	))
	if p.hooks.OnRejected != nil {
		p.hooks.OnRejected(p.name, reason, err)
	}
	return &RejectionError{Policy: p.name, Reason: reason, Attempts: attempts, Err: err}
}

func (p *Policy) recordAttempt(n int, elapsed time.Duration, err error) {
	if p.hooks.OnAttempt == nil {
		return
	}
	outcome := OutcomeSuccess
	switch {
	case err == nil:
	case errors.Is(err, ErrCircuitOpen):
		outcome = OutcomeRejected
	case errors.Is(err, ErrAttemptTimeout):
		outcome = OutcomeTimeout
	default:
		outcome = OutcomeFailure
	}
	p.hooks.OnAttempt(Attempt{Policy: p.name, Number: n, Elapsed: elapsed, Outcome: outcome, Err: err})
}

// Fallback produces the substitute value for a rejected call. It must not fail.
type Fallback[T any] func(reason Reason, err error) T

// ExecuteWithFallback runs fn under p and hands every rejection to fallback,
// so it always returns a value. degraded reports whether fallback was used.
func ExecuteWithFallback[T any](ctx context.Context, p *Policy, fn func(context.Context) (T, error), fallback Fallback[T]) (v T, degraded bool) {
	v, err := Execute(ctx, p, fn)
	if err == nil {
		return v, false
	}
	reason, ok := ReasonOf(err)
	if !ok {
		reason = ReasonDownstreamFailed
	}
	if p.hooks.OnFallback != nil {
		p.hooks.OnFallback(p.name, reason)
	}
	return fallback(reason, err), true
}
