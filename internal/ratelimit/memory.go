package ratelimit

import (
	"context"
	"sync"
	"time"
)

// memoryEntry holds one user's window state. Each entry carries its own
// mutex so admission checks for different users never block each other.
type memoryEntry struct {
	mu      sync.Mutex
	resetAt time.Time
	count   int
}

// MemoryLimiter implements a fixed-window in-memory admission limiter with
// per-key locking. The window is anchored at the first request after a
// rollover, not at a fixed clock boundary.
type MemoryLimiter struct {
	entries sync.Map // key -> *memoryEntry
}

// NewMemoryLimiter constructs a MemoryLimiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{}
}

// Allow checks whether the request fits the key's quota for the current
// window. The read-modify-write on the counter is atomic per key.
func (l *MemoryLimiter) Allow(_ context.Context, key string, quota int, window time.Duration, now time.Time) (Result, error) {
	if key == "" || window <= 0 {
		return Result{Allowed: true}, nil
	}

	v, _ := l.entries.LoadOrStore(key, &memoryEntry{})
	entry := v.(*memoryEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	// Reset anchors at now rather than advancing the stale boundary, so a
	// long-idle user gets one fresh window instead of accumulated drift.
	if entry.resetAt.IsZero() || !now.Before(entry.resetAt) {
		entry.count = 0
		entry.resetAt = now.Add(window)
	}

	if quota > 0 && entry.count >= quota {
		return Result{
			Allowed:    false,
			Count:      entry.count,
			Remaining:  0,
			Reset:      entry.resetAt,
			RetryAfter: entry.resetAt.Sub(now),
		}, nil
	}

	entry.count++
	remaining := 0
	if quota > 0 {
		remaining = quota - entry.count
	}
	return Result{
		Allowed:   true,
		Count:     entry.count,
		Remaining: remaining,
		Reset:     entry.resetAt,
	}, nil
}
