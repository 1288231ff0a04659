package obs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xDarkicex/atria/internal/obs"
)

func TestCircuitBreakerOpensAfterMaxFailures(t *testing.T) {
	cfg := obs.DefaultCircuitBreakerConfig("test")
	cfg.MaxFailures = 3
	cfg.MinRequests = 1 << 30 // keep the failure-rate path out of this test
	cb := obs.NewCircuitBreaker(cfg)

	failing := errors.New("build failed")
	for i := 0; i < cfg.MaxFailures; i++ {
		if cb.State() != obs.CircuitClosed {
			t.Fatalf("iteration %d: expected CircuitClosed before tripping, got %v", i, cb.State())
		}
		err := cb.Execute(context.Background(), func() error { return failing })
		if !errors.Is(err, failing) {
			t.Fatalf("iteration %d: expected the wrapped failure to pass through, got %v", i, err)
		}
	}

	if cb.State() != obs.CircuitOpen {
		t.Fatalf("expected CircuitOpen after %d consecutive failures, got %v", cfg.MaxFailures, cb.State())
	}

	rejected := cb.Execute(context.Background(), func() error {
		t.Fatal("fn must not run while the breaker is open")
		return nil
	})
	if rejected == nil {
		t.Fatal("expected Execute to reject while open")
	}
}

func TestCircuitBreakerStaysClosedOnSuccess(t *testing.T) {
	cfg := obs.DefaultCircuitBreakerConfig("test")
	cfg.MaxFailures = 2
	cb := obs.NewCircuitBreaker(cfg)

	for i := 0; i < 50; i++ {
		if err := cb.Execute(context.Background(), func() error { return nil }); err != nil {
			t.Fatalf("iteration %d: unexpected rejection: %v", i, err)
		}
	}

	if cb.State() != obs.CircuitClosed {
		t.Fatalf("expected CircuitClosed after only successes, got %v", cb.State())
	}
}

func TestCircuitBreakerHalfOpensAfterTimeout(t *testing.T) {
	cfg := obs.DefaultCircuitBreakerConfig("test")
	cfg.MaxFailures = 1
	cfg.MinRequests = 1 << 30
	cfg.Timeout = 10 * time.Millisecond
	cb := obs.NewCircuitBreaker(cfg)

	if err := cb.Execute(context.Background(), func() error { return errors.New("boom") }); err == nil {
		t.Fatal("expected the seeding failure to be returned")
	}
	if cb.State() != obs.CircuitOpen {
		t.Fatalf("expected CircuitOpen immediately after tripping, got %v", cb.State())
	}

	time.Sleep(2 * cfg.Timeout)

	if cb.State() != obs.CircuitHalfOpen {
		t.Fatalf("expected CircuitHalfOpen once the timeout elapses, got %v", cb.State())
	}
}
