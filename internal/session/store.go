// Package session 当前登录身份与持久化 token。
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"skillmentor/internal/core/auth"
	"skillmentor/internal/core/pubsub"
	"skillmentor/internal/credential"
	"skillmentor/internal/domain"
	"skillmentor/internal/remote"
)

type State int

const (
	Unknown State = iota
	Checking
	Authenticated
	Anonymous
)

func (s State) String() string {
	switch s {
	case Checking:
		return "checking"
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	}
	return "unknown"
}

// AuthAPI 登录相关远程接口（*remote.AuthAPI）
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (remote.Result[remote.Session], error)
	Register(ctx context.Context, in domain.Registration) (remote.Result[remote.Session], error)
	Me(ctx context.Context) (remote.Result[domain.Identity], error)
}

// ProfileAPI 资料更新（*remote.UsersAPI）
type ProfileAPI interface {
	UpdateProfile(ctx context.Context, in domain.ProfileUpdate) (remote.Result[domain.Identity], error)
}

var ErrNotAuthenticated = errors.New("session: not authenticated")

type Options struct {
	Auth     AuthAPI
	Profiles ProfileAPI
	Creds    credential.Store
	Local    *LocalAuthority // nil 关闭本地管理员捷径
	Notifier Notifier
	Log      *zap.Logger
	Now      func() time.Time
}

// Snapshot 某一时刻的只读视图
type Snapshot struct {
	State   State
	User    *domain.Identity
	Loading bool
	Err     string
}

// Store 会话状态；token 槽位与状态切换在同一把锁内完成
type Store struct {
	auth     AuthAPI
	profiles ProfileAPI
	creds    credential.Store
	local    *LocalAuthority
	notify   Notifier
	log      *zap.Logger
	now      func() time.Time

	mu      sync.RWMutex
	state   State
	user    *domain.Identity
	loading bool
	err     string

	hub pubsub.Hub[Snapshot]
}

func New(o Options) *Store {
	l := o.Log
	if l == nil {
		l = zap.NewNop()
	}
	n := o.Notifier
	if n == nil {
		n = LogNotifier(l)
	}
	now := o.Now
	if now == nil {
		now = time.Now
	}
	creds := o.Creds
	if creds == nil {
		creds = credential.NewMemoryStore("")
	}
	return &Store{
		auth:     o.Auth,
		profiles: o.Profiles,
		creds:    creds,
		local:    o.Local,
		notify:   n,
		log:      l.Named("session"),
		now:      now,
	}
}

// Init 启动时检查已保存的 token
func (s *Store) Init(ctx context.Context) {
	s.mutate(func() {
		s.state = Checking
		s.loading = true
	})

	tok, err := s.creds.Load(ctx)
	if err != nil {
		s.log.Warn("read credential slot", zap.Error(err))
		s.discard(ctx)
		return
	}
	if tok == "" {
		s.mutate(func() {
			s.state = Anonymous
			s.loading = false
		})
		return
	}
	if s.local.Owns(tok) {
		id := s.local.Identity()
		s.log.Warn("local authority session restored", zap.String("email", id.Email))
		s.mutate(func() {
			s.state = Authenticated
			s.user = &id
			s.loading = false
		})
		return
	}
	if auth.ExpiredAt(tok, s.now()) {
		s.log.Info("persisted token expired")
		s.discard(ctx)
		return
	}
	if s.auth == nil {
		s.discard(ctx)
		return
	}
	res, err := s.auth.Me(ctx)
	if err != nil {
		s.log.Info("current user check failed", zap.Error(err))
		s.discard(ctx)
		return
	}
	u := res.Data
	s.mutate(func() {
		s.state = Authenticated
		s.user = &u
		s.loading = false
	})
}

// discard 清掉 token 并转为匿名
func (s *Store) discard(ctx context.Context) {
	s.mutate(func() {
		if err := s.creds.Clear(ctx); err != nil {
			s.log.Warn("clear credential slot", zap.Error(err))
		}
		s.state = Anonymous
		s.user = nil
		s.loading = false
	})
}

// Login 认证失败返回 false 并提示，不返回错误
func (s *Store) Login(ctx context.Context, email, password string) bool {
	s.begin()
	if s.local.Match(email, password) {
		s.log.Warn("local authority login", zap.String("email", email))
		return s.establish(ctx, s.local.Token(), s.local.Identity(), "Admin login successful!")
	}
	if email == "" || password == "" {
		return s.fail("Email and password are required")
	}
	if s.auth == nil {
		return s.fail(remote.DefaultMessage)
	}
	res, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return s.fail(remote.Message(err))
	}
	if res.Data.Token == "" {
		return s.fail("Login failed. Check credentials.")
	}
	return s.establish(ctx, res.Data.Token, res.Data.User, "Login successful!")
}

func (s *Store) Register(ctx context.Context, in domain.Registration) bool {
	s.begin()
	if err := domain.Validate(in); err != nil {
		return s.fail(err.Error())
	}
	if s.auth == nil {
		return s.fail(remote.DefaultMessage)
	}
	res, err := s.auth.Register(ctx, in)
	if err != nil {
		return s.fail(remote.Message(err))
	}
	if res.Data.Token == "" {
		return s.fail("Registration failed.")
	}
	return s.establish(ctx, res.Data.Token, res.Data.User, "Registration successful!")
}

// Logout 只清本地，不会失败
func (s *Store) Logout(ctx context.Context) {
	s.mutate(func() {
		if err := s.creds.Clear(ctx); err != nil {
			s.log.Warn("clear credential slot", zap.Error(err))
		}
		s.state = Anonymous
		s.user = nil
		s.err = ""
		s.loading = false
	})
	s.notify.Info("Logged out successfully.")
}

// UpdateProfile 成功后用后端返回的身份替换；失败时身份不变并返回错误
func (s *Store) UpdateProfile(ctx context.Context, in domain.ProfileUpdate) error {
	if !s.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	s.mutate(func() { s.err = "" })
	if err := domain.Validate(in); err != nil {
		s.setErr(err.Error())
		s.notify.Error(err.Error())
		return err
	}
	if s.profiles == nil {
		return &remote.Error{Op: "users.profile", Message: remote.DefaultMessage}
	}
	res, err := s.profiles.UpdateProfile(ctx, in)
	if err != nil {
		msg := remote.Message(err)
		s.setErr(msg)
		s.notify.Error(msg)
		return err
	}
	u := res.Data
	s.mutate(func() { s.user = &u })
	s.notify.Success("Profile updated!")
	return nil
}

func (s *Store) begin() {
	s.mutate(func() {
		s.err = ""
		s.loading = true
	})
}

// establish token 落盘与状态切换同一临界区；落盘失败则不切换
func (s *Store) establish(ctx context.Context, token string, u domain.Identity, msg string) bool {
	var saveErr error
	s.mutate(func() {
		if saveErr = s.creds.Save(ctx, token); saveErr != nil {
			s.loading = false
			return
		}
		s.state = Authenticated
		s.user = &u
		s.err = ""
		s.loading = false
	})
	if saveErr != nil {
		s.log.Error("persist credential", zap.Error(saveErr))
		return s.fail("Could not save session")
	}
	s.notify.Success(msg)
	return true
}

func (s *Store) fail(msg string) bool {
	s.mutate(func() {
		s.err = msg
		s.loading = false
		if s.state != Authenticated {
			s.state = Anonymous
		}
	})
	s.notify.Error(msg)
	return false
}

func (s *Store) setErr(msg string) { s.mutate(func() { s.err = msg }) }

// mutate 持锁修改，解锁后按顺序通知订阅者
func (s *Store) mutate(fn func()) {
	s.mu.Lock()
	fn()
	// 锁内入队，订阅者看到的顺序与修改顺序一致
	s.hub.Enqueue(s.snapshotLocked())
	s.mu.Unlock()
	s.hub.Drain()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{State: s.state, Loading: s.loading, Err: s.err}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// User 当前身份的副本；未登录返回 nil
func (s *Store) User() *domain.Identity { return s.Snapshot().User }

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) IsAuthenticated() bool { return s.State() == Authenticated }

func (s *Store) IsAdmin() bool {
	u := s.User()
	return u != nil && u.IsAdmin()
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Subscribe 每次状态变化回调；返回取消函数
func (s *Store) Subscribe(fn func(Snapshot)) (cancel func()) { return s.hub.Subscribe(fn) }

// Dispose 丢弃订阅者
func (s *Store) Dispose() { s.hub.Reset() }
