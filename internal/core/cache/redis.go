package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Cache redis 读穿缓存；RDB 为 nil 时退化为直连回源（本地开发不依赖 redis）
type Cache struct {
	RDB    *redis.Client
	Prefix string
	sf     singleflight.Group
}

func New(addr, pass string, db int) *Cache {
	if addr == "" {
		return &Cache{}
	}
	return &Cache{
		RDB: redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}),
	}
}

func (c *Cache) key(k string) string { return c.Prefix + k }

func (c *Cache) Enabled() bool { return c != nil && c.RDB != nil }

func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	if c.Enabled() {
		if b, err := c.RDB.Get(ctx, c.key(key)).Bytes(); err == nil {
			return b, nil
		}
	}
	// single flight 合并回源
	v, err, _ := c.sf.Do(key, func() (any, error) {
		b, e := load(ctx)
		if e != nil {
			return nil, e
		}
		if c.Enabled() {
			_ = c.RDB.Set(ctx, c.key(key), b, ttl).Err()
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Invalidate 写操作后删缓存
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if !c.Enabled() || len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	return c.RDB.Del(ctx, full...).Err()
}

func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.RDB.Close()
}
