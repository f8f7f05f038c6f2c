package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestManagerFallsBackToMemoryWhenRedisDisabled(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	manager := NewManager(func() Settings {
		return Settings{}
	}, func() time.Time {
		return now
	}, nil)

	res, err := manager.Allow(context.Background(), "u:1", 1, time.Hour)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if !res.Allowed {
		t.Fatalf("expected first request admitted")
	}

	res, err = manager.Allow(context.Background(), "u:1", 1, time.Hour)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if res.Allowed {
		t.Fatalf("expected second request denied")
	}
	if res.RetryAfter != time.Hour {
		t.Fatalf("expected retryAfter 1h, got %s", res.RetryAfter)
	}
}

func TestManagerBreakerFallsBackOnRedisFailure(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	// Redis enabled but with no reachable address: ensureRedis fails, the
	// breaker trips, and admission still works through memory.
	manager := NewManager(func() Settings {
		return Settings{RedisEnabled: true, RedisAddr: ""}
	}, func() time.Time {
		return now
	}, nil)

	res, err := manager.Allow(context.Background(), "u:1", 2, time.Hour)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if !res.Allowed {
		t.Fatalf("expected memory fallback to admit")
	}

	if !manager.isBreakerActive(now.Add(time.Second)) {
		t.Fatalf("expected breaker to be active after redis failure")
	}
	if manager.isBreakerActive(now.Add(redisBreakerDuration + time.Second)) {
		t.Fatalf("expected breaker to expire")
	}
}

func TestManagerEmptyKeyAlwaysAllowed(t *testing.T) {
	manager := NewManager(nil, nil, nil)
	res, err := manager.Allow(context.Background(), "", 1, time.Hour)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if !res.Allowed {
		t.Fatalf("expected empty key to bypass limiting")
	}
}

func TestKeyForUser(t *testing.T) {
	if got := KeyForUser(42); got != "u:42" {
		t.Fatalf("expected u:42, got %s", got)
	}
	if got := KeyForUser(0); got != "" {
		t.Fatalf("expected empty key for zero user, got %s", got)
	}
}
