// Package resilience provides a circuit breaker for expensive collaborator
// calls that should fail fast once they are known to be broken.
//
// Lookout uses it around detection-engine loading: a model that fails to load
// several times in a row is not reloaded on every trigger. Instead, sessions
// fail immediately with [ErrCircuitOpen] until the cool-down has elapsed and a
// single probe call is let through.
//
// The breaker never retries on its own.
package resilience

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by [CircuitBreaker.Do] when the breaker is open
// and the cool-down has not yet elapsed, or while a half-open probe is running.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State represents the current operating mode of a [CircuitBreaker].
type State int

const (
	// StateClosed is the normal operating state: all calls are forwarded.
	StateClosed State = iota

	// StateOpen rejects calls with [ErrCircuitOpen].
	StateOpen

	// StateHalfOpen lets exactly one probe call through. Its outcome closes
	// or re-opens the breaker.
	StateHalfOpen
)

// String returns the human-readable name of the state.
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

// CircuitBreakerConfig holds tuning knobs for a [CircuitBreaker].
type CircuitBreakerConfig struct {
	// Name is a human-readable label used in log messages.
	Name string

	// MaxFailures is the number of consecutive failures before the breaker
	// opens. Default: 3.
	MaxFailures int

	// Cooldown is how long the breaker stays open before a probe is allowed.
	// Default: 30s.
	Cooldown time.Duration

	// Now returns the current time. Default: time.Now.
	Now func() time.Time
}

// CircuitBreaker implements a three-state breaker with a single half-open
// probe. It is safe for concurrent use.
type CircuitBreaker struct {
	name        string
	maxFailures int
	cooldown    time.Duration
	now         func() time.Time

	mu          sync.Mutex
	state       State
	failures    int
	openedAt    time.Time
	probeActive bool
}

// NewCircuitBreaker creates a [CircuitBreaker]. Zero-value config fields are
// replaced with defaults.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &CircuitBreaker{
		name:        cfg.Name,
		maxFailures: cfg.MaxFailures,
		cooldown:    cfg.Cooldown,
		now:         cfg.Now,
	}
}

// Do runs fn if the breaker allows it and records the outcome. Context
// cancellation errors from fn are not counted as failures.
func (cb *CircuitBreaker) Do(ctx context.Context, fn func(context.Context) error) error {
	probe, err := cb.admit()
	if err != nil {
		return err
	}

	err = fn(ctx)

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if probe {
		cb.probeActive = false
	}
	switch {
	case err == nil:
		cb.onSuccess()
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		if probe {
			cb.state = StateOpen
		}
	default:
		cb.onFailure(probe)
	}
	return err
}

// admit decides whether a call may proceed and whether it is the half-open
// probe.
func (cb *CircuitBreaker) admit() (probe bool, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.openedAt) < cb.cooldown {
			return false, ErrCircuitOpen
		}
		cb.state = StateHalfOpen
		slog.Info("resilience: circuit half-open", "name", cb.name)
		fallthrough
	case StateHalfOpen:
		if cb.probeActive {
			return false, ErrCircuitOpen
		}
		cb.probeActive = true
		return true, nil
	}
	return false, nil
}

// onFailure must be called with cb.mu held.
func (cb *CircuitBreaker) onFailure(probe bool) {
	cb.failures++
	if probe || cb.failures >= cb.maxFailures {
		if cb.state != StateOpen {
			slog.Warn("resilience: circuit opened", "name", cb.name, "consecutive_failures", cb.failures)
		}
		cb.state = StateOpen
		cb.openedAt = cb.now()
	}
}

// onSuccess must be called with cb.mu held.
func (cb *CircuitBreaker) onSuccess() {
	if cb.state != StateClosed {
		slog.Info("resilience: circuit closed", "name", cb.name)
	}
	cb.state = StateClosed
	cb.failures = 0
}

// State returns the current [State]. An open breaker whose cool-down has
// elapsed reports [StateHalfOpen]; the transition itself happens on the next
// [CircuitBreaker.Do].
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == StateOpen && cb.now().Sub(cb.openedAt) >= cb.cooldown {
		return StateHalfOpen
	}
	return cb.state
}

// Reset forces the breaker closed and clears the failure count.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = StateClosed
	cb.failures = 0
	cb.probeActive = false
}
