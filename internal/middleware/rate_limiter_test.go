package middleware

import (
	"testing"
	"time"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	defer rl.Stop()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !rl.Allow(7) {
			t.Fatalf("message %d rejected within limit", i+1)
		}
	}
	if rl.Allow(7) {
		t.Error("fourth message allowed, want rejected")
	}

	if !rl.Allow(8) {
		t.Error("other user rejected")
	}

	now = now.Add(time.Minute + time.Second)
	for i := 0; i < 3; i++ {
		if !rl.Allow(7) {
			t.Fatalf("message %d rejected after the window reset", i+1)
		}
	}
	if rl.Allow(7) {
		t.Error("limit not enforced in the new window")
	}
}

func TestRateLimiter_Sweep(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Stop()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow(1)
	rl.Allow(2)

	now = now.Add(30 * time.Second)
	rl.Allow(3)

	now = now.Add(45 * time.Second)
	rl.sweep()

	rl.mu.Lock()
	_, kept := rl.userLimits[3]
	n := len(rl.userLimits)
	rl.mu.Unlock()
	if n != 1 || !kept {
		t.Errorf("sweep left %d entries (user 3 kept: %v), want only user 3", n, kept)
	}

	rl.Stop()
	rl.Stop()
}
