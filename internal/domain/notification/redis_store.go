package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "notify:idem:"
	pendingMarker  = "pending"
)

// RedisStore shares idempotency keys between instances. Claims use SET NX
// with the retention window as TTL, so expiry is handled by redis.
type RedisStore struct {
	client redis.Cmdable
}

func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, *Result, error) {
	k := redisKeyPrefix + key
	ok, err := s.client.SetNX(ctx, k, pendingMarker, ttl).Result()
	if err != nil {
		return false, nil, fmt.Errorf("reserve idempotency key: %w", err)
	}
	if ok {
		return true, nil, nil
	}

	val, err := s.client.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) || val == pendingMarker {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, fmt.Errorf("read idempotency key: %w", err)
	}
	var res Result
	if err := json.Unmarshal([]byte(val), &res); err != nil {
		return false, nil, fmt.Errorf("decode idempotency record: %w", err)
	}
	return false, &res, nil
}

func (s *RedisStore) Complete(ctx context.Context, key string, res *Result, ttl time.Duration) error {
	b, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisKeyPrefix+key, string(b), ttl).Err()
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, redisKeyPrefix+key).Err()
}
