package cache

import (
	"context"
	"encoding/json"
	"time"
)

// GetOrLoadJSON 读穿缓存的 JSON 版本；loader 返回 nil 时缓存 "null"，下次直接得到 nil。
// 未启用 redis 时不做序列化，直接回源
func GetOrLoadJSON[T any](c *Cache, ctx context.Context, key string, ttl time.Duration,
	load func(ctx context.Context) (*T, error)) (*T, error) {
	if !c.Enabled() {
		return load(ctx)
	}
	raw, err := c.GetOrLoad(ctx, key, ttl, func(ctx context.Context) ([]byte, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	})
	switch {
	case err != nil:
		return nil, err
	case string(raw) == "null":
		return nil, nil
	}
	out := new(T)
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, err
	}
	return out, nil
}
