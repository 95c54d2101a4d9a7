package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAllowDrainsBucket(t *testing.T) {
	l := New()
	for i := 0; i < 3; i++ {
		if !l.Allow("api", 3, 0.0001) {
			t.Fatalf("call %d should be allowed within capacity", i+1)
		}
	}
	if l.Allow("api", 3, 0.0001) {
		t.Fatalf("fourth call should be rejected with an empty bucket")
	}
}

func TestAllowKeysAreIndependent(t *testing.T) {
	l := New()
	if !l.Allow("a", 1, 0.0001) {
		t.Fatalf("first key should be allowed")
	}
	if l.Allow("a", 1, 0.0001) {
		t.Fatalf("first key should now be empty")
	}
	if !l.Allow("b", 1, 0.0001) {
		t.Fatalf("second key has its own bucket")
	}
}

func TestWaitFirstCallImmediate(t *testing.T) {
	l := New()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	if err := l.Wait(ctx, "api", 5, 1); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("first call waited %v, want immediate", elapsed)
	}
}

func TestWaitRespectsContext(t *testing.T) {
	l := New()
	// Drain the bucket so the next Wait has to sleep.
	if err := l.Wait(context.Background(), "api", 1, 0.001); err != nil {
		t.Fatalf("prime: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := l.Wait(ctx, "api", 1, 0.001)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestWaitEnforcesMinSpacing(t *testing.T) {
	if testing.Short() {
		t.Skip("spacing test sleeps for the minimum gap")
	}
	l := New()
	ctx := context.Background()

	if err := l.Wait(ctx, "api", 10, 10); err != nil {
		t.Fatalf("first wait: %v", err)
	}
	start := time.Now()
	if err := l.Wait(ctx, "api", 10, 10); err != nil {
		t.Fatalf("second wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed < MinSpacing-100*time.Millisecond {
		t.Fatalf("second call after %v, want at least the %v spacing", elapsed, MinSpacing)
	}
}

func TestCooldown(t *testing.T) {
	c := NewCooldown()
	if c.Active("twitter") {
		t.Fatalf("fresh key should not be cooling down")
	}
	c.Touch("twitter", time.Minute)
	if !c.Active("twitter") {
		t.Fatalf("touched key should be cooling down")
	}
	if c.Active("reddit") {
		t.Fatalf("other keys are unaffected")
	}

	c.Touch("reddit", -time.Second)
	if c.Active("reddit") {
		t.Fatalf("expired cooldown should be inactive")
	}
}
