// Package resilience protects calls to downstream services.
//
// A Policy composes four guards around one named protected call, checked in
// this order on every invocation:
//
//   - Bulkhead: bounds concurrent calls (golang.org/x/sync/semaphore)
//   - RateLimiter: non-blocking token bucket admission
//   - CircuitBreaker: closed/open/half-open gate (sony/gobreaker), consulted
//     by every attempt
//   - Retry: exponential backoff with jitter (cenkalti/backoff/v5), each
//     attempt bounded by a per-attempt timeout
//
// Failures surface as *RejectionError carrying a Reason. ExecuteWithFallback
// turns every rejection into a substitute value:
//
//	policy := registry.Get("organization-service")
//	org, degraded := resilience.ExecuteWithFallback(ctx, policy,
//	    func(ctx context.Context) (Organization, error) { return client.Execute(ctx, id) },
//	    func(reason resilience.Reason, err error) Organization { return fallbackFor(id) },
//	)
//
// A Registry keeps one Policy per name.
package resilience
