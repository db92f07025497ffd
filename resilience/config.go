package resilience

import (
	"fmt"
	"time"

	"github.com/kbukum/licensing/validation"
)

// PolicyConfig tunes every layer of one named protected call.
type PolicyConfig struct {
	// CircuitFailureThreshold is the failed/total ratio within the
	// observation window that opens the breaker.
	CircuitFailureThreshold float64 `yaml:"circuit_failure_threshold" mapstructure:"circuit_failure_threshold" validate:"gt=0,lte=1"`
	// CircuitMinimumCalls is the number of calls observed in the window before
	// the ratio is evaluated.
	CircuitMinimumCalls uint32 `yaml:"circuit_minimum_calls" mapstructure:"circuit_minimum_calls" validate:"gte=1"`
	// CircuitConsecutiveFailures opens the breaker after that many failures in
	// a row regardless of the ratio. Zero disables the rule.
	CircuitConsecutiveFailures uint32        `yaml:"circuit_consecutive_failures" mapstructure:"circuit_consecutive_failures"`
	CircuitObservationWindow   time.Duration `yaml:"circuit_observation_window" mapstructure:"circuit_observation_window" validate:"gt=0"`
	CircuitOpenCooldown        time.Duration `yaml:"circuit_open_cooldown" mapstructure:"circuit_open_cooldown" validate:"gt=0"`
	CircuitHalfOpenTrialCount  uint32        `yaml:"circuit_half_open_trial_count" mapstructure:"circuit_half_open_trial_count" validate:"gte=1"`

	RateLimitPerInterval int           `yaml:"rate_limit_per_interval" mapstructure:"rate_limit_per_interval" validate:"gte=1"`
	RateLimitInterval    time.Duration `yaml:"rate_limit_interval" mapstructure:"rate_limit_interval" validate:"gt=0"`

	BulkheadMaxConcurrent int `yaml:"bulkhead_max_concurrent" mapstructure:"bulkhead_max_concurrent" validate:"gte=1"`
	// BulkheadMaxWait is how long a call may queue for a slot. Zero rejects
	// immediately.
	BulkheadMaxWait time.Duration `yaml:"bulkhead_max_wait" mapstructure:"bulkhead_max_wait" validate:"gte=0"`

	RetryMaxAttempts       int           `yaml:"retry_max_attempts" mapstructure:"retry_max_attempts" validate:"gte=1"`
	RetryBackoff           time.Duration `yaml:"retry_backoff" mapstructure:"retry_backoff" validate:"gte=0"`
	RetryMaxBackoff        time.Duration `yaml:"retry_max_backoff" mapstructure:"retry_max_backoff" validate:"gte=0"`
	RetryBackoffMultiplier float64       `yaml:"retry_backoff_multiplier" mapstructure:"retry_backoff_multiplier" validate:"gte=1"`
	RetryJitter            float64       `yaml:"retry_jitter" mapstructure:"retry_jitter" validate:"gte=0,lte=1"`

	PerAttemptTimeout time.Duration `yaml:"per_attempt_timeout" mapstructure:"per_attempt_timeout" validate:"gt=0"`
}

// DefaultPolicyConfig returns the defaults used when a policy is not configured.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		CircuitFailureThreshold:    0.5,
		CircuitMinimumCalls:        5,
		CircuitConsecutiveFailures: 5,
		CircuitObservationWindow:   60 * time.Second,
		CircuitOpenCooldown:        10 * time.Second,
		CircuitHalfOpenTrialCount:  3,
		RateLimitPerInterval:       50,
		RateLimitInterval:          time.Second,
		BulkheadMaxConcurrent:      20,
		RetryMaxAttempts:           3,
		RetryBackoff:               500 * time.Millisecond,
		RetryMaxBackoff:            5 * time.Second,
		RetryBackoffMultiplier:     2,
		RetryJitter:                0.2,
		PerAttemptTimeout:          time.Second,
	}
}

// ApplyDefaults fills zero-valued fields from DefaultPolicyConfig.
// Fields where zero is meaningful (consecutive failures, bulkhead wait,
// backoff, jitter) are left untouched.
func (c *PolicyConfig) ApplyDefaults() {
	c.inherit(DefaultPolicyConfig(), false)
}

// inherit copies base values into zero fields. Unless all is set, fields
// where zero is a valid setting are kept.
func (c *PolicyConfig) inherit(base PolicyConfig, all bool) {
	if all {
		if c.CircuitConsecutiveFailures == 0 {
			c.CircuitConsecutiveFailures = base.CircuitConsecutiveFailures
		}
		if c.BulkheadMaxWait == 0 {
			c.BulkheadMaxWait = base.BulkheadMaxWait
		}
		if c.RetryBackoff == 0 {
			c.RetryBackoff = base.RetryBackoff
		}
		if c.RetryJitter == 0 {
			c.RetryJitter = base.RetryJitter
		}
	}
	if c.CircuitFailureThreshold == 0 {
		c.CircuitFailureThreshold = base.CircuitFailureThreshold
	}
	if c.CircuitMinimumCalls == 0 {
		c.CircuitMinimumCalls = base.CircuitMinimumCalls
	}
	if c.CircuitObservationWindow == 0 {
		c.CircuitObservationWindow = base.CircuitObservationWindow
	}
	if c.CircuitOpenCooldown == 0 {
		c.CircuitOpenCooldown = base.CircuitOpenCooldown
	}
	if c.CircuitHalfOpenTrialCount == 0 {
		c.CircuitHalfOpenTrialCount = base.CircuitHalfOpenTrialCount
	}
	if c.RateLimitPerInterval == 0 {
		c.RateLimitPerInterval = base.RateLimitPerInterval
	}
	if c.RateLimitInterval == 0 {
		c.RateLimitInterval = base.RateLimitInterval
	}
	if c.BulkheadMaxConcurrent == 0 {
		c.BulkheadMaxConcurrent = base.BulkheadMaxConcurrent
	}
	if c.RetryMaxAttempts == 0 {
		c.RetryMaxAttempts = base.RetryMaxAttempts
	}
	if c.RetryMaxBackoff == 0 {
		c.RetryMaxBackoff = base.RetryMaxBackoff
	}
	if c.RetryBackoffMultiplier == 0 {
		c.RetryBackoffMultiplier = base.RetryBackoffMultiplier
	}
	if c.PerAttemptTimeout == 0 {
		c.PerAttemptTimeout = base.PerAttemptTimeout
	}
}

// Validate checks the ranges of every field.
func (c PolicyConfig) Validate() error {
	return validation.Validate(c)
}

// Config holds the policies of all named protected calls.
//
//	resilience:
//	  default:
//	    retry_max_attempts: 3
//	  policies:
//	    organization-service:
//	      circuit_open_cooldown: 20s
type Config struct {
	Default  PolicyConfig            `yaml:"default" mapstructure:"default"`
	Policies map[string]PolicyConfig `yaml:"policies" mapstructure:"policies"`
}

// ApplyDefaults completes Default and lets every named policy inherit the
// fields it leaves unset from Default. An empty Default becomes
// DefaultPolicyConfig.
func (c *Config) ApplyDefaults() {
	if c.Default == (PolicyConfig{}) {
		c.Default = DefaultPolicyConfig()
	}
	c.Default.ApplyDefaults()
	for name, p := range c.Policies {
		p.inherit(c.Default, true)
		c.Policies[name] = p
	}
}

// Validate validates the default and every named policy.
func (c *Config) Validate() error {
	if err := c.Default.Validate(); err != nil {
		return fmt.Errorf("resilience.default: %w", err)
	}
	for name, p := range c.Policies {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("resilience.policies.%s: %w", name, err)
		}
	}
	return nil
}

// For returns the configuration of the named policy, or Default.
func (c *Config) For(name string) PolicyConfig {
	if p, ok := c.Policies[name]; ok {
		return p
	}
	return c.Default
}
