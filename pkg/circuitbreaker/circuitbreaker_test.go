package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errBackend = errors.New("backend unavailable")

func failingConfig() Config {
	return Config{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		Timeout:          20 * time.Millisecond,
		MaxProbes:        2,
	}
}

func TestCircuitBreaker_StaysClosedOnSuccess(t *testing.T) {
	cb := New(failingConfig())
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if err := cb.Execute(ctx, func() error { return nil }); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if cb.State() != StateClosed {
		t.Errorf("expected closed, got %s", cb.State())
	}
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := New(failingConfig())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := cb.Execute(ctx, func() error { return errBackend }); err == nil {
			t.Fatal("expected error from failing call")
		}
	}
	if cb.State() != StateOpen {
		t.Fatalf("expected open after threshold, got %s", cb.State())
	}

	// While open, calls are rejected without invoking the function.
	invoked := false
	err := cb.Execute(ctx, func() error {
		invoked = true
		return nil
	})
	if err == nil {
		t.Error("expected rejection while open")
	}
	if invoked {
		t.Error("function must not run while circuit is open")
	}
}

func TestCircuitBreaker_ClosesAfterRecovery(t *testing.T) {
	cb := New(failingConfig())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		cb.Execute(ctx, func() error { return errBackend })
	}
	if cb.State() != StateOpen {
		t.Fatalf("expected open, got %s", cb.State())
	}

	// After the timeout the breaker probes, and enough successes close it.
	time.Sleep(25 * time.Millisecond)
	for i := 0; i < 2; i++ {
		if err := cb.Execute(ctx, func() error { return nil }); err != nil {
			t.Fatalf("probe %d rejected: %v", i, err)
		}
	}
	if cb.State() != StateClosed {
		t.Errorf("expected closed after recovery, got %s", cb.State())
	}
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	cb := New(failingConfig())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		cb.Execute(ctx, func() error { return errBackend })
	}

	time.Sleep(25 * time.Millisecond)
	cb.Execute(ctx, func() error { return errBackend })

	if cb.State() != StateOpen {
		t.Errorf("expected reopen after failed probe, got %s", cb.State())
	}
}

func TestCircuitBreaker_CancelledContext(t *testing.T) {
	cb := New(failingConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := cb.Execute(ctx, func() error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
