package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	valuePending = "pending"
	valueSent    = "sent"
)

// releaseScript deletes the key only while it still holds a lease, so a
// late release never erases a sent marker.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisStore struct {
	rdb *redis.Client
	lg  zerolog.Logger
}

func NewRedisStore(rdb *redis.Client, lg zerolog.Logger) *RedisStore {
	return &RedisStore{
		rdb: rdb,
		lg:  lg.With().Str("component", "idem_store").Logger(),
	}
}

// Seen implements notify.IdempotencyStore
func (s *RedisStore) Seen(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, fmt.Errorf("empty key")
	}
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return v == valueSent, nil
}

// Claim implements notify.IdempotencyStore
func (s *RedisStore) Claim(ctx context.Context, key string, lease time.Duration) (bool, error) {
	if key == "" {
		return false, fmt.Errorf("empty key")
	}
	if lease <= 0 {
		lease = 30 * time.Second
	}
	ok, err := s.rdb.SetNX(ctx, key, valuePending, lease).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// MarkSent implements notify.IdempotencyStore
func (s *RedisStore) MarkSent(ctx context.Context, key string, ttl time.Duration) error {
	if key == "" {
		return fmt.Errorf("empty key")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return s.rdb.Set(ctx, key, valueSent, ttl).Err()
}

// Release implements notify.IdempotencyStore
func (s *RedisStore) Release(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("empty key")
	}
	return releaseScript.Run(ctx, s.rdb, []string{key}, valuePending).Err()
}
