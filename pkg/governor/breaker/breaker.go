// Package breaker implements a failure-rate circuit breaker guarding the
// governor's warm-path calls into its Knowledge/audit sink collaborators:
// when the sink degrades, callers fail fast instead of blocking Monitor's
// drain loop, and the receipt ring's own drop-to-park policy takes over.
// The shape (closed/open/half-open, rolling request/failure counters,
// mathematically exact failure rate, minimum-sample gating before a
// verdict is trusted) is grounded directly on this codebase family's
// dependency circuit breaker.
package breaker

import (
	"fmt"
	"sync"
	"time"
)

// State is one of the three breaker states.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half_open"
)

// minSamples is the minimum number of calls observed before the failure
// rate is trusted to decide Open vs Closed; below this the breaker stays
// closed regardless of the observed rate.
const minSamples = 5

// CircuitBreaker is a failure-rate breaker over a rolling, unbounded-
// since-last-reset counter pair. Safe for concurrent use.
type CircuitBreaker struct {
	mu sync.Mutex

	name             string
	failureThreshold float64
	resetTimeout     time.Duration

	state      State
	requests   int64
	failures   int64
	openedAt   time.Time
	onStateChg func(name string, s State)
}

// NewCircuitBreaker constructs a closed breaker. failureThreshold is a
// fraction in (0,1]; resetTimeout is how long the breaker stays Open
// before allowing one Half-Open probe call.
func NewCircuitBreaker(name string, failureThreshold float64, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		name:             name,
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
		state:            StateClosed,
	}
}

// OnStateChange registers a callback invoked whenever the breaker's state
// transitions. No caller in this module registers one outside tests.
func (cb *CircuitBreaker) OnStateChange(fn func(name string, s State)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.onStateChg = fn
}

// Call executes fn if the breaker admits the request, recording the
// outcome. An Open breaker rejects without calling fn.
func (cb *CircuitBreaker) Call(fn func() error) error {
	if !cb.allow() {
		return fmt.Errorf("circuit breaker %q is open", cb.name)
	}
	err := fn()
	cb.record(err)
	return err
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if time.Since(cb.openedAt) >= cb.resetTimeout {
			cb.transition(StateHalfOpen)
			return true
		}
		return false
	default:
		return true
	}
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateHalfOpen {
		if err != nil {
			cb.openedAt = time.Now()
			cb.transition(StateOpen)
		} else {
			cb.requests, cb.failures = 0, 0
			cb.transition(StateClosed)
		}
		return
	}

	cb.requests++
	if err != nil {
		cb.failures++
	}
	if cb.requests >= minSamples && cb.failureRateLocked() >= cb.failureThreshold {
		cb.openedAt = time.Now()
		cb.transition(StateOpen)
	}
}

func (cb *CircuitBreaker) transition(next State) {
	if cb.state == next {
		return
	}
	cb.state = next
	if cb.onStateChg != nil {
		cb.onStateChg(cb.name, next)
	}
}

func (cb *CircuitBreaker) failureRateLocked() float64 {
	if cb.requests == 0 {
		return 0
	}
	return float64(cb.failures) / float64(cb.requests)
}

// GetState reports the breaker's current state.
func (cb *CircuitBreaker) GetState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// GetFailureRate reports the current failures/requests ratio, 0 if no
// requests have been recorded yet.
func (cb *CircuitBreaker) GetFailureRate() float64 {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failureRateLocked()
}

// GetName returns the breaker's configured name.
func (cb *CircuitBreaker) GetName() string { return cb.name }

// GetFailureThreshold returns the configured failure-rate threshold.
func (cb *CircuitBreaker) GetFailureThreshold() float64 { return cb.failureThreshold }

// GetResetTimeout returns the configured reset timeout.
func (cb *CircuitBreaker) GetResetTimeout() time.Duration { return cb.resetTimeout }

// GetFailures returns the rolling failure count since the last reset.
func (cb *CircuitBreaker) GetFailures() int64 {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}
