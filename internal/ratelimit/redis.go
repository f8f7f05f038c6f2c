package ratelimit

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// admitScript atomically counts an admission attempt. The window TTL is set
// on the first increment, anchoring the window at the first request. Denied
// attempts are rolled back so the counter only tracks admitted requests.
var admitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local quota = tonumber(ARGV[2])
if quota > 0 and current > quota then
  redis.call("DECR", KEYS[1])
  local ttl = redis.call("PTTL", KEYS[1])
  return {0, quota, ttl}
end
local ttl = redis.call("PTTL", KEYS[1])
return {1, current, ttl}
`)

// RedisLimiter implements a fixed-window admission limiter backed by Redis,
// for deployments where multiple instances share the quota state.
type RedisLimiter struct {
	client *redis.Client
	prefix string
}

// NewRedisLimiter constructs a RedisLimiter.
func NewRedisLimiter(client *redis.Client, prefix string) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		prefix: strings.TrimSpace(prefix),
	}
}

// Allow checks whether the request fits the key's quota for the current
// window using an atomic increment-with-expiry script.
func (l *RedisLimiter) Allow(ctx context.Context, key string, quota int, window time.Duration, now time.Time) (Result, error) {
	if key == "" || window <= 0 || l == nil || l.client == nil {
		return Result{Allowed: true}, nil
	}

	res, errEval := admitScript.Run(ctx, l.client, []string{l.buildKey(key)},
		window.Milliseconds(), quota).Result()
	if errEval != nil {
		return Result{}, errEval
	}

	values, ok := res.([]interface{})
	if !ok || len(values) != 3 {
		return Result{}, errors.New("rate limit redis: unexpected response shape")
	}
	allowed, okAllowed := toInt64(values[0])
	count, okCount := toInt64(values[1])
	ttlMillis, okTTL := toInt64(values[2])
	if !okAllowed || !okCount || !okTTL {
		return Result{}, errors.New("rate limit redis: unexpected response type")
	}

	reset := now.Add(time.Duration(ttlMillis) * time.Millisecond)
	if ttlMillis < 0 {
		reset = now.Add(window)
	}

	if allowed == 0 {
		return Result{
			Allowed:    false,
			Count:      int(count),
			Remaining:  0,
			Reset:      reset,
			RetryAfter: reset.Sub(now),
		}, nil
	}

	remaining := 0
	if quota > 0 {
		remaining = quota - int(count)
		if remaining < 0 {
			remaining = 0
		}
	}
	return Result{
		Allowed:   true,
		Count:     int(count),
		Remaining: remaining,
		Reset:     reset,
	}, nil
}

func (l *RedisLimiter) buildKey(key string) string {
	if l.prefix == "" {
		return key
	}
	return l.prefix + ":" + key
}

func toInt64(v interface{}) (int64, bool) {
	switch value := v.(type) {
	case int64:
		return value, true
	case int:
		return int64(value), true
	case uint64:
		return int64(value), true
	default:
		return 0, false
	}
}
