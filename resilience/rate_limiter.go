package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrRateLimited is returned when the limiter has no token for a call.
var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimiterConfig configures a rate limiter.
type RateLimiterConfig struct {
	// Name identifies this rate limiter for metrics/logging.
	Name string
	// Limit is the number of calls admitted per Interval. It is also the
	// bucket size, so a full bucket admits a burst of Limit calls.
	Limit int
	// Interval is the refill period of Limit tokens.
	Interval time.Duration
}

// RateLimiter is a token bucket that never blocks: a call either takes a
// token or is rejected.
type RateLimiter struct {
	config RateLimiterConfig
	rate   float64 // tokens per second
	now    func() time.Time

	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

// NewRateLimiter creates a new rate limiter with a full bucket.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	defaults := DefaultPolicyConfig()
	if config.Limit <= 0 {
		config.Limit = defaults.RateLimitPerInterval
	}
	if config.Interval <= 0 {
		config.Interval = defaults.RateLimitInterval
	}
	return newRateLimiter(config, time.Now)
}

func newRateLimiter(config RateLimiterConfig, now func() time.Time) *RateLimiter {
	return &RateLimiter{
		config:     config,
		rate:       float64(config.Limit) / config.Interval.Seconds(),
		now:        now,
		tokens:     float64(config.Limit),
		lastRefill: now(),
	}
}

// Allow takes one token if available.
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill()
	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	return false
}

// refill adds tokens based on time elapsed.
func (rl *RateLimiter) refill() {
	now := rl.now()
	elapsed := now.Sub(rl.lastRefill).Seconds()
	rl.lastRefill = now

	rl.tokens += elapsed * rl.rate
	if rl.tokens > float64(rl.config.Limit) {
		rl.tokens = float64(rl.config.Limit)
	}
}

// Tokens returns the current number of available tokens.
func (rl *RateLimiter) Tokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refill()
	return rl.tokens
}

// Limit returns the number of calls admitted per interval.
func (rl *RateLimiter) Limit() int {
	return rl.config.Limit
}
