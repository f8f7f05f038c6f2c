package ratelimit

import (
	"context"
	"time"
)

// Result describes the outcome of an admission check.
type Result struct {
	Allowed bool
	// Count is the number of admitted requests in the current window,
	// including this one when allowed.
	Count int
	// Remaining is how many admissions are left in the window. Always 0
	// for unbounded quotas.
	Remaining int
	// Reset is when the current window ends.
	Reset time.Time
	// RetryAfter is how long to wait before the next attempt can succeed.
	// Zero when allowed.
	RetryAfter time.Duration
}

// Limiter performs fixed-window admission checks. A quota <= 0 is the
// unbounded sentinel: the request is always allowed but still counted.
type Limiter interface {
	Allow(ctx context.Context, key string, quota int, window time.Duration, now time.Time) (Result, error)
}

// Settings captures the limiter backend configuration.
type Settings struct {
	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}
