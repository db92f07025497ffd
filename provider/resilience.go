package provider

import (
	"context"

	"github.com/kbukum/licensing/observability"
	"github.com/kbukum/licensing/resilience"
)

// FallbackFunc produces the substitute output for an input whose protected
// call was rejected. It must not fail.
type FallbackFunc[I, O any] func(input I, reason resilience.Reason, err error) O

// WithResilience wraps a RequestResponse provider with a resilience policy.
// Execution chain: Bulkhead → RateLimiter → CircuitBreaker → Retry →
// per-attempt timeout → Execute.
//
// With a non-nil fallback, Execute never fails: every rejection is turned
// into fallback output. Without one, rejections are returned as AppErrors.
func WithResilience[I, O any](p RequestResponse[I, O], policy *resilience.Policy, fallback FallbackFunc[I, O]) RequestResponse[I, O] {
	return &resilientRR[I, O]{inner: p, policy: policy, fallback: fallback}
}

type resilientRR[I, O any] struct {
	inner    RequestResponse[I, O]
	policy   *resilience.Policy
	fallback FallbackFunc[I, O]
}

func (r *resilientRR[I, O]) Name() string { return r.inner.Name() }

// IsAvailable reports false while the breaker is open.
func (r *resilientRR[I, O]) IsAvailable(ctx context.Context) bool {
	return r.policy.State() != resilience.StateOpen && r.inner.IsAvailable(ctx)
}

func (r *resilientRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	call := func(ctx context.Context) (O, error) {
		return r.inner.Execute(ctx, input)
	}

	if r.fallback == nil {
		out, err := resilience.Execute(ctx, r.policy, call)
		return out, resilience.ToAppError(err)
	}

	out, _ := resilience.ExecuteWithFallback(ctx, r.policy, call, func(reason resilience.Reason, err error) O {
		observability.SetSpanAttribute(ctx, observability.AttrPolicy, r.policy.Name())
		observability.SetSpanAttribute(ctx, observability.AttrReason, string(reason))
		return r.fallback(input, reason, err)
	})
	return out, nil
}
