package flow

import (
	"errors"
	"sync"
	"time"

	"github.com/s8r-framework/s8r/pkg/observability"
)

// clock abstracts time for breaker timeout tests.
type clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// ErrCircuitOpen is returned when the breaker rejects a call.
var ErrCircuitOpen = errors.New("circuit breaker is open")

const (
	breakerClosed   = "closed"
	breakerOpen     = "open"
	breakerHalfOpen = "half-open"
)

// CircuitBreaker protects a pipeline stage with three states: closed,
// open and half-open. It opens after threshold consecutive failures and
// stays open for the reset timeout. The first call after the timeout is
// a trial: success closes the breaker, failure reopens it.
type CircuitBreaker struct {
	mu        sync.Mutex
	name      string
	failures  int
	threshold int
	timeout   time.Duration
	state     string
	openedAt  time.Time
	clock     clock
}

// BreakerOption configures a CircuitBreaker.
type BreakerOption func(*CircuitBreaker)

// WithClock sets a custom time source for tests.
func WithClock(c clock) BreakerOption {
	return func(cb *CircuitBreaker) {
		cb.clock = c
	}
}

// NewCircuitBreaker creates a breaker for the named pipeline. Non-positive
// threshold or timeout fall back to 3 failures and 30 seconds.
func NewCircuitBreaker(name string, threshold int, timeout time.Duration, opts ...BreakerOption) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 3
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	cb := &CircuitBreaker{
		name:      name,
		threshold: threshold,
		timeout:   timeout,
		state:     breakerClosed,
		clock:     realClock{},
	}
	for _, opt := range opts {
		opt(cb)
	}
	observability.SetCircuitBreakerState(name, breakerClosed)
	return cb
}

// Call executes fn respecting the breaker state. Panics count as
// failures and are re-raised.
func (cb *CircuitBreaker) Call(fn func() error) (err error) {
	if cb == nil {
		return fn()
	}

	cb.mu.Lock()
	switch cb.state {
	case breakerOpen:
		if cb.clock.Now().Sub(cb.openedAt) >= cb.timeout {
			cb.setStateLocked(breakerHalfOpen)
		} else {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
	case breakerHalfOpen, breakerClosed:
	default:
		cb.setStateLocked(breakerClosed)
	}
	cb.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			cb.recordFailure()
			panic(r)
		}
	}()

	err = fn()
	if err != nil {
		cb.recordFailure()
		return err
	}
	cb.recordSuccess()
	return nil
}

func (cb *CircuitBreaker) recordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures++
	// Any failure in half-open reopens immediately.
	if cb.state == breakerHalfOpen || cb.failures >= cb.threshold {
		if cb.state != breakerOpen {
			observability.RecordCircuitBreakerTrip(cb.name)
		}
		cb.setStateLocked(breakerOpen)
		cb.openedAt = cb.clock.Now()
	}
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = 0
	cb.setStateLocked(breakerClosed)
}

func (cb *CircuitBreaker) setStateLocked(state string) {
	cb.state = state
	observability.SetCircuitBreakerState(cb.name, state)
}

// State returns the current breaker state.
func (cb *CircuitBreaker) State() string {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
