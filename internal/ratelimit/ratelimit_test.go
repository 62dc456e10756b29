package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestKeyedRateLimiter_Allow(t *testing.T) {
	tests := []struct {
		name     string
		rps      float64
		burst    int
		calls    int
		wantPass int
	}{
		{
			name:     "burst allows initial requests",
			rps:      1,
			burst:    3,
			calls:    3,
			wantPass: 3,
		},
		{
			name:     "exceeding burst blocks",
			rps:      1,
			burst:    2,
			calls:    5,
			wantPass: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := New(tt.rps, tt.burst)
			defer rl.Stop()

			passed := 0
			for i := 0; i < tt.calls; i++ {
				if rl.Allow("www.basic-fit.com") {
					passed++
				}
			}

			if passed != tt.wantPass {
				t.Errorf("Allow() passed %d, want %d", passed, tt.wantPass)
			}
		})
	}
}

func TestKeyedRateLimiter_IndependentHosts(t *testing.T) {
	rl := New(1, 1)
	defer rl.Stop()

	rl.Allow("www.sportcity.nl")
	if rl.Allow("www.sportcity.nl") {
		t.Error("sportcity should be exhausted")
	}

	if !rl.Allow("fit20.nl") {
		t.Error("fit20.nl should be independent and allowed")
	}
}

func TestKeyedRateLimiter_WaitContextCancelled(t *testing.T) {
	rl := New(0.1, 1)
	defer rl.Stop()

	rl.Allow("maps.googleapis.com")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := rl.Wait(ctx, "maps.googleapis.com"); err == nil {
		t.Error("Wait() should fail when context canceled")
	}
}

func TestKeyedRateLimiter_EvictIdle(t *testing.T) {
	rl := New(1, 1)
	defer rl.Stop()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("old.example")
	now = now.Add(5 * time.Minute)
	rl.Allow("new.example")

	now = now.Add(6 * time.Minute)
	rl.evictIdle(10 * time.Minute)

	if got := rl.Len(); got != 1 {
		t.Fatalf("Len() = %d after eviction, want 1", got)
	}
	// A re-created limiter starts with a full bucket.
	if !rl.Allow("old.example") {
		t.Error("evicted key should be allowed again")
	}
}

func TestSleep(t *testing.T) {
	start := time.Now()
	if err := Sleep(context.Background(), 20*time.Millisecond); err != nil {
		t.Fatalf("Sleep() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("Sleep() returned after %v, want >= 20ms", elapsed)
	}

	if err := Sleep(context.Background(), 0); err != nil {
		t.Errorf("Sleep(0) error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Sleep() on canceled ctx = %v, want context.Canceled", err)
	}
}
