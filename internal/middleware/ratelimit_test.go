package middleware

import (
	"testing"
	"time"
)

func TestRateLimiter_AllowWithRetry(t *testing.T) {
	rl := NewRateLimiter(1, 2)

	for i := 0; i < 2; i++ {
		if ok, _ := rl.AllowWithRetry("alice"); !ok {
			t.Fatalf("Expected request %d within burst to pass", i+1)
		}
	}

	ok, retry := rl.AllowWithRetry("alice")
	if ok {
		t.Fatal("Expected request beyond burst to be limited")
	}
	if retry <= 0 || retry > time.Second {
		t.Errorf("Expected retry within 1s, got %v", retry)
	}

	if ok, _ := rl.AllowWithRetry("bob"); !ok {
		t.Error("Expected a different caller to have its own bucket")
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := NewRateLimiter(0, 0)
	for i := 0; i < 100; i++ {
		if ok, _ := rl.AllowWithRetry("alice"); !ok {
			t.Fatal("Expected disabled limiter to allow everything")
		}
	}
}

func TestRateLimiter_Prune(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	rl.AllowWithRetry("alice")
	rl.prune(time.Now().Add(time.Minute))
	if len(rl.limiters) != 0 {
		t.Errorf("Expected idle callers to be pruned, %d left", len(rl.limiters))
	}
}
