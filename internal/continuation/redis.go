package continuation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists continuation entries in Redis with a TTL, for
// deployments where the inbound "MORE" reply may land on another instance.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore constructs a RedisStore.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{
		client: client,
		prefix: strings.TrimSpace(prefix),
		ttl:    ttl,
	}
}

// Save stores an entry under its id with the configured TTL.
func (s *RedisStore) Save(ctx context.Context, id string, entry Entry) error {
	if s == nil || s.client == nil {
		return errors.New("continuation redis: not initialized")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("continuation redis: missing id")
	}
	payload, errMarshal := json.Marshal(entry)
	if errMarshal != nil {
		return fmt.Errorf("continuation redis: marshal: %w", errMarshal)
	}
	if errSet := s.client.Set(ctx, s.buildKey(id), payload, s.ttl).Err(); errSet != nil {
		return fmt.Errorf("continuation redis: set: %w", errSet)
	}
	return nil
}

// Resolve loads an entry by id. Expired keys vanish from Redis, so a miss
// covers both unknown and expired ids.
func (s *RedisStore) Resolve(ctx context.Context, id string) (Entry, bool, error) {
	if s == nil || s.client == nil {
		return Entry{}, false, errors.New("continuation redis: not initialized")
	}
	raw, errGet := s.client.Get(ctx, s.buildKey(strings.TrimSpace(id))).Bytes()
	if errGet != nil {
		if errors.Is(errGet, redis.Nil) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("continuation redis: get: %w", errGet)
	}
	var entry Entry
	if errUnmarshal := json.Unmarshal(raw, &entry); errUnmarshal != nil {
		return Entry{}, false, fmt.Errorf("continuation redis: unmarshal: %w", errUnmarshal)
	}
	return entry, true, nil
}

func (s *RedisStore) buildKey(id string) string {
	if s.prefix == "" {
		return "cont:" + id
	}
	return s.prefix + ":cont:" + id
}
