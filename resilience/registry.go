package resilience

import (
	"sort"
	"strconv"
	"sync"

	"github.com/kbukum/licensing/logger"
	"github.com/kbukum/licensing/observability"
)

// Registry hands out one Policy per protected-call name so that independent
// downstream calls keep independent breaker, limiter and bulkhead state.
type Registry struct {
	cfg   Config
	hooks Hooks
	log   *logger.Logger

	mu       sync.RWMutex
	policies map[string]*Policy
}

// NewRegistry creates a registry building policies from cfg.
func NewRegistry(cfg Config, hooks Hooks, log *logger.Logger) *Registry {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	return &Registry{
		cfg:      cfg,
		hooks:    hooks,
		log:      log,
		policies: make(map[string]*Policy),
	}
}

// Get returns the policy for name, creating it on first use.
func (r *Registry) Get(name string) *Policy {
	r.mu.RLock()
	p, ok := r.policies[name]
	r.mu.RUnlock()
	if ok {
		return p
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok = r.policies[name]; ok {
		return p
	}
	cfg := r.cfg.For(name)
	p = NewPolicy(name, cfg, r.hooks, r.log)
	r.policies[name] = p
	r.log.Info("resilience policy created", logger.Fields(
		logger.FieldPolicy, name,
		"bulkhead_max_concurrent", cfg.BulkheadMaxConcurrent,
		"rate_limit_per_interval", cfg.RateLimitPerInterval,
		"retry_max_attempts", cfg.RetryMaxAttempts,
		"per_attempt_timeout", cfg.PerAttemptTimeout.String(),
	))
	return p
}

// Names returns the names of the created policies, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.policies))
	for name := range r.policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Health reports one component per created policy. A closed breaker is up;
// open and half-open breakers are degraded because callers still receive
// fallback results.
func (r *Registry) Health() []observability.Health {
	names := r.Names()
	out := make([]observability.Health, 0, len(names))
	for _, name := range names {
		p := r.Get(name)
		state := p.State()
		h := observability.Health{
			Name:   "resilience:" + name,
			Status: observability.HealthStatusUp,
			Details: map[string]string{
				"circuit":           state.String(),
				"bulkhead_in_use":   strconv.Itoa(p.Bulkhead().InUse()),
				"bulkhead_capacity": strconv.Itoa(p.Bulkhead().MaxConcurrent()),
			},
		}
		if state != StateClosed {
			h.Status = observability.HealthStatusDegraded
			h.Message = "circuit " + state.String()
		}
		out = append(out, h)
	}
	return out
}
