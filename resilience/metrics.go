package resilience

import (
	"context"

	"github.com/kbukum/licensing/observability"
)

// MetricsHooks returns hooks recording policy events on m.
func MetricsHooks(m *observability.ResilienceMetrics) Hooks {
	ctx := context.Background()
	return Hooks{
		OnStateChange: func(policy string, from, to State) {
			m.RecordStateChange(ctx, policy, from.String(), to.String())
		},
		OnRejected: func(policy string, reason Reason, _ error) {
			m.RecordRejection(ctx, policy, string(reason))
		},
		OnAttempt: func(a Attempt) {
			m.RecordAttempt(ctx, a.Policy, string(a.Outcome), a.Elapsed)
		},
		OnFallback: func(policy string, reason Reason) {
			m.RecordFallback(ctx, policy, string(reason))
		},
	}
}
