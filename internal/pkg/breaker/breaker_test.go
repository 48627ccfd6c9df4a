package breaker

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBreakerOpensAfterFailures(t *testing.T) {
	b := New(Config{Name: "test", MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute, FailureThreshold: 0.5, MinRequests: 2}, nil)
	boom := errors.New("boom")

	for i := 0; i < 2; i++ {
		if _, err := Do(b, func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
			t.Fatalf("call %d: want boom got=%v", i, err)
		}
	}
	calls := 0
	_, err := Do(b, func() (int, error) {
		calls++
		return 1, nil
	})
	if !IsOpen(err) {
		t.Fatalf("expected open breaker error, got=%v", err)
	}
	if calls != 0 {
		t.Fatalf("fn should not run while open: calls=%d", calls)
	}
	if b.State() != "open" {
		t.Fatalf("state: want=open got=%s", b.State())
	}
}

func TestBreakerIgnoresCallerCancellation(t *testing.T) {
	b := New(Config{Name: "test", MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute, FailureThreshold: 0.5, MinRequests: 1}, nil)
	for i := 0; i < 3; i++ {
		_, _ = Do(b, func() (string, error) { return "", context.Canceled })
	}
	got, err := Do(b, func() (string, error) { return "ok", nil })
	if err != nil || got != "ok" {
		t.Fatalf("want ok got=%q err=%v", got, err)
	}
}

func TestNilBreakerRunsDirectly(t *testing.T) {
	got, err := Do[int](nil, func() (int, error) { return 7, nil })
	if err != nil || got != 7 {
		t.Fatalf("want 7 got=%d err=%v", got, err)
	}
}
