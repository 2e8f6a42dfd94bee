// Package credential 持久化的登录 token 槽位（单值：有或没有）。
package credential

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Store 持久化 token；空槽位 Load 返回 ("", nil)
type Store interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Options 构造参数，对应 config.Credential
type Options struct {
	Driver string // file | redis | memory
	Path   string
	Key    string
	Redis  *redis.Client
}

var ErrUnknownDriver = errors.New("credential: unknown driver")

// Open 按 driver 选择实现
func Open(o Options) (Store, error) {
	switch o.Driver {
	case "", "file":
		return NewFileStore(o.Path), nil
	case "memory":
		return NewMemoryStore(""), nil
	case "redis":
		if o.Redis == nil {
			return nil, errors.New("credential: redis driver requires a redis client")
		}
		return NewRedisStore(o.Redis, o.Key), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, o.Driver)
}

// MemoryStore 进程内槽位（测试 / 临时会话）
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

func NewMemoryStore(token string) *MemoryStore { return &MemoryStore{token: token} }

func (m *MemoryStore) Load(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryStore) Save(_ context.Context, token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
	return nil
}
