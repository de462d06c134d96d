package flow

import (
	"errors"
	"testing"
	"time"
)

// fakeClock lets tests move time forward manually.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

var errStage = errors.New("stage failure")

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1000, 0)}
	cb := NewCircuitBreaker("test", 2, time.Minute, WithClock(clk))

	fail := func() error { return errStage }

	if err := cb.Call(fail); !errors.Is(err, errStage) {
		t.Fatalf("first failure: %v", err)
	}
	if got := cb.State(); got != breakerClosed {
		t.Fatalf("state after one failure = %s, want closed", got)
	}

	if err := cb.Call(fail); !errors.Is(err, errStage) {
		t.Fatalf("second failure: %v", err)
	}
	if got := cb.State(); got != breakerOpen {
		t.Fatalf("state after threshold = %s, want open", got)
	}

	// While open, calls are rejected without executing fn.
	executed := false
	err := cb.Call(func() error {
		executed = true
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("open breaker returned %v, want ErrCircuitOpen", err)
	}
	if executed {
		t.Fatal("fn executed while breaker open")
	}
}

func TestCircuitBreaker_HalfOpenTrial(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1000, 0)}
	cb := NewCircuitBreaker("test", 1, time.Minute, WithClock(clk))

	if err := cb.Call(func() error { return errStage }); !errors.Is(err, errStage) {
		t.Fatalf("failure: %v", err)
	}
	if got := cb.State(); got != breakerOpen {
		t.Fatalf("state = %s, want open", got)
	}

	clk.advance(time.Minute)

	// The trial succeeds and the breaker closes.
	if err := cb.Call(func() error { return nil }); err != nil {
		t.Fatalf("trial call: %v", err)
	}
	if got := cb.State(); got != breakerClosed {
		t.Fatalf("state after trial = %s, want closed", got)
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1000, 0)}
	cb := NewCircuitBreaker("test", 3, time.Minute, WithClock(clk))

	for i := 0; i < 3; i++ {
		_ = cb.Call(func() error { return errStage })
	}
	if got := cb.State(); got != breakerOpen {
		t.Fatalf("state = %s, want open", got)
	}

	clk.advance(time.Minute)

	// A single failure in half-open reopens regardless of threshold.
	_ = cb.Call(func() error { return errStage })
	if got := cb.State(); got != breakerOpen {
		t.Fatalf("state after failed trial = %s, want open", got)
	}
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb := NewCircuitBreaker("test", 2, time.Minute)

	_ = cb.Call(func() error { return errStage })
	if err := cb.Call(func() error { return nil }); err != nil {
		t.Fatalf("success call: %v", err)
	}
	// The earlier failure no longer counts toward the threshold.
	_ = cb.Call(func() error { return errStage })
	if got := cb.State(); got != breakerClosed {
		t.Fatalf("state = %s, want closed", got)
	}
}

func TestCircuitBreaker_NilIsPassthrough(t *testing.T) {
	var cb *CircuitBreaker
	called := false
	if err := cb.Call(func() error {
		called = true
		return nil
	}); err != nil {
		t.Fatalf("nil breaker: %v", err)
	}
	if !called {
		t.Fatal("fn not executed through nil breaker")
	}
}
