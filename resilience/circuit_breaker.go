package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	apperrors "github.com/kbukum/licensing/errors"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed allows all requests through.
	StateClosed State = iota
	// StateOpen rejects all requests immediately.
	StateOpen
	// StateHalfOpen allows a bounded number of trial requests.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

func fromGobreaker(s gobreaker.State) State {
	switch s {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}

// ErrCircuitOpen is returned when the breaker rejects a call, either because
// it is open or because all half-open trial slots are taken.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig configures a circuit breaker.
type CircuitBreakerConfig struct {
	// Name identifies this circuit breaker for metrics/logging.
	Name string
	// FailureThreshold opens the breaker when the failed/total ratio exceeds
	// it once MinimumCalls have been observed within Window.
	FailureThreshold float64
	MinimumCalls     uint32
	// ConsecutiveFailures opens the breaker after that many failures in a row.
	// Zero disables the rule.
	ConsecutiveFailures uint32
	// Window is the fixed closed-state observation period; counts reset when
	// it ends.
	Window time.Duration
	// Cooldown is how long the breaker stays open before half-opening.
	Cooldown time.Duration
	// HalfOpenTrials is both the number of trial calls admitted while
	// half-open and the consecutive successes needed to close.
	HalfOpenTrials uint32
	// IsFailure decides whether an error counts against the breaker.
	IsFailure func(error) bool
	// OnStateChange is called on every transition. It runs under the
	// breaker's lock and must not call back into the breaker.
	OnStateChange func(name string, from, to State)
}

func breakerConfig(name string, p PolicyConfig) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:                name,
		FailureThreshold:    p.CircuitFailureThreshold,
		MinimumCalls:        p.CircuitMinimumCalls,
		ConsecutiveFailures: p.CircuitConsecutiveFailures,
		Window:              p.CircuitObservationWindow,
		Cooldown:            p.CircuitOpenCooldown,
		HalfOpenTrials:      p.CircuitHalfOpenTrialCount,
	}
}

// DefaultIsFailure counts every error except caller cancellation and
// non-retryable application errors (a 404 from a healthy downstream is not
// a sign of ill health). A cancelled half-open trial is still a failure, see
// NewCircuitBreaker.
func DefaultIsFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if appErr, ok := apperrors.AsAppError(err); ok && !appErr.Retryable {
		return false
	}
	return true
}

// Counts is a snapshot of the breaker's current observation window.
type Counts struct {
	Requests             uint32
	TotalSuccesses       uint32
	TotalFailures        uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

// CircuitBreaker guards a downstream with the closed/open/half-open state
// machine. Transitions are serialized by gobreaker.
type CircuitBreaker struct {
	name string
	cb   *gobreaker.CircuitBreaker
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.HalfOpenTrials == 0 {
		config.HalfOpenTrials = 1
	}
	if config.MinimumCalls == 0 {
		config.MinimumCalls = 1
	}
	if config.IsFailure == nil {
		config.IsFailure = DefaultIsFailure
	}

	var cb *gobreaker.CircuitBreaker
	settings := gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.HalfOpenTrials,
		Interval:    config.Window,
		Timeout:     config.Cooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			if config.ConsecutiveFailures > 0 && c.ConsecutiveFailures >= config.ConsecutiveFailures {
				return true
			}
			if config.FailureThreshold > 0 && c.Requests >= config.MinimumCalls {
				return float64(c.TotalFailures)/float64(c.Requests) > config.FailureThreshold
			}
			return false
		},
		IsSuccessful: func(err error) bool {
			// A trial abandoned by its caller proved nothing about the
			// downstream and must not close the breaker.
			if errors.Is(err, context.Canceled) && cb.State() == gobreaker.StateHalfOpen {
				return false
			}
			return !config.IsFailure(err)
		},
	}
	if config.OnStateChange != nil {
		settings.OnStateChange = func(name string, from, to gobreaker.State) {
			config.OnStateChange(name, fromGobreaker(from), fromGobreaker(to))
		}
	}

	cb = gobreaker.NewCircuitBreaker(settings)
	return &CircuitBreaker{name: config.Name, cb: cb}
}

// Execute runs fn if the breaker admits it and records the outcome.
// Rejections return ErrCircuitOpen without calling fn.
func (c *CircuitBreaker) Execute(fn func() error) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCircuitOpen
	}
	return err
}

// Name returns the breaker name.
func (c *CircuitBreaker) Name() string {
	return c.name
}

// State returns the current state, advancing open to half-open when the
// cooldown has elapsed.
func (c *CircuitBreaker) State() State {
	return fromGobreaker(c.cb.State())
}

// Counts returns a snapshot of the current window.
func (c *CircuitBreaker) Counts() Counts {
	gc := c.cb.Counts()
	return Counts{
		Requests:             gc.Requests,
		TotalSuccesses:       gc.TotalSuccesses,
		TotalFailures:        gc.TotalFailures,
		ConsecutiveSuccesses: gc.ConsecutiveSuccesses,
		ConsecutiveFailures:  gc.ConsecutiveFailures,
	}
}
