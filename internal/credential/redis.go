package credential

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore 共享槽位（多个终端共用一个登录态）
type RedisStore struct {
	rdb *redis.Client
	key string
}

func NewRedisStore(rdb *redis.Client, key string) *RedisStore {
	if key == "" {
		key = "skillmentor:token"
	}
	return &RedisStore{rdb: rdb, key: key}
}

func (r *RedisStore) Load(ctx context.Context) (string, error) {
	v, err := r.rdb.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("credential: redis get: %w", err)
	}
	return v, nil
}

func (r *RedisStore) Save(ctx context.Context, token string) error {
	if err := r.rdb.Set(ctx, r.key, token, 0).Err(); err != nil {
		return fmt.Errorf("credential: redis set: %w", err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.rdb.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("credential: redis del: %w", err)
	}
	return nil
}
