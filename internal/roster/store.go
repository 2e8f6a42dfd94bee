// Package roster 管理端学员名录。
package roster

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"skillmentor/internal/core/pubsub"
	"skillmentor/internal/domain"
	"skillmentor/internal/remote"
)

var (
	// ErrNotFound 状态已改但拿不到该用户的资料
	ErrNotFound = errors.New("roster: user not found")
	// ErrNotApplied 请求已在后端生效，但 ctx 先结束，本地名录没有更新
	ErrNotApplied = errors.New("roster: applied remotely, not cached")
)

// UsersAPI *remote.UsersAPI
type UsersAPI interface {
	List(ctx context.Context, q domain.UserQuery) (remote.Result[remote.UserPage], error)
	Get(ctx context.Context, id string) (remote.Result[domain.Identity], error)
	Update(ctx context.Context, id string, in domain.UserUpdate) (remote.Result[domain.Identity], error)
	SetStatus(ctx context.Context, id string, active bool) (remote.Result[domain.Identity], error)
	Delete(ctx context.Context, id string) (remote.Result[remote.Empty], error)
}

type Snapshot struct {
	Users      []domain.Identity
	Pagination domain.Pagination
	Query      domain.UserQuery
	Loading    bool
	Err        string
}

type Store struct {
	api UsersAPI
	log *zap.Logger

	mu    sync.RWMutex
	st    Snapshot
	inFly int

	hub pubsub.Hub[Snapshot]
}

func New(api UsersAPI, l *zap.Logger) *Store {
	if l == nil {
		l = zap.NewNop()
	}
	return &Store{api: api, log: l.Named("roster"), st: Snapshot{Users: []domain.Identity{}}}
}

// List 默认只列学员，第一页 10 条
func (s *Store) List(ctx context.Context, q domain.UserQuery) error {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = 10
	}
	if q.Role == "" {
		q.Role = domain.RoleStudent
	}
	s.begin()
	res, err := s.api.List(ctx, q)
	if err != nil {
		return s.fail("list users", err)
	}
	return s.commit(ctx, func(st *Snapshot) {
		st.Users = slices.Clone(res.Data.Users)
		if st.Users == nil {
			st.Users = []domain.Identity{}
		}
		st.Pagination = res.Data.Pagination
		st.Query = q
	})
}

// Get 直读后端
func (s *Store) Get(ctx context.Context, id string) (*domain.Identity, error) {
	s.begin()
	res, err := s.api.Get(ctx, id)
	if err != nil {
		return nil, s.fail("get user", err)
	}
	if err := s.commit(ctx, nil); err != nil {
		return nil, err
	}
	u := res.Data
	return &u, nil
}

func (s *Store) Update(ctx context.Context, id string, in domain.UserUpdate) (*domain.Identity, error) {
	if err := domain.Validate(in); err != nil {
		s.setErr(err.Error())
		return nil, err
	}
	s.begin()
	res, err := s.api.Update(ctx, id, in)
	if err != nil {
		return nil, s.fail("update user", err)
	}
	return s.replace(ctx, id, res.Data)
}

// SetStatus 启用 / 停用账号
func (s *Store) SetStatus(ctx context.Context, id string, active bool) (*domain.Identity, error) {
	s.begin()
	res, err := s.api.SetStatus(ctx, id, active)
	if err != nil {
		return nil, s.fail("set user status", err)
	}
	u := res.Data
	if u.ID == "" {
		// 后端只回了 message：本页有副本就按副本翻转，否则回读一次
		cached, ok := s.find(id)
		if ok {
			cached.IsActive = active
			return s.replace(ctx, id, cached)
		}
		got, err := s.api.Get(ctx, id)
		if err == nil && got.Data.ID == "" {
			err = &remote.Error{Op: "users.get", Status: 404, Message: "User not found"}
		}
		if err != nil {
			return nil, s.fail("set user status", fmt.Errorf("%w: %s: %w", ErrNotFound, id, err))
		}
		u = got.Data
	}
	return s.replace(ctx, id, u)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.begin()
	if _, err := s.api.Delete(ctx, id); err != nil {
		return s.fail("delete user", err)
	}
	return s.commit(ctx, func(st *Snapshot) {
		st.Users = slices.DeleteFunc(slices.Clone(st.Users), func(u domain.Identity) bool { return u.ID == id })
		if st.Pagination.Total > 0 {
			st.Pagination.Total--
		}
	})
}

func (s *Store) replace(ctx context.Context, id string, u domain.Identity) (*domain.Identity, error) {
	if u.ID == "" {
		u.ID = id
	}
	err := s.commit(ctx, func(st *Snapshot) {
		out := slices.Clone(st.Users)
		for i := range out {
			if out[i].ID == u.ID {
				out[i] = u
			}
		}
		st.Users = out
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) find(id string) (domain.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.st.Users {
		if u.ID == id {
			return u, true
		}
	}
	return domain.Identity{}, false
}

func (s *Store) Users() []domain.Identity { return s.Snapshot().Users }

// ActiveCount 当前页内启用的账号数
func (s *Store) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeLocked()
}

func (s *Store) InactiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.st.Users) - s.activeLocked()
}

func (s *Store) activeLocked() int {
	n := 0
	for _, u := range s.st.Users {
		if u.IsActive {
			n++
		}
	}
	return n
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := s.st
	snap.Users = slices.Clone(s.st.Users)
	snap.Loading = s.inFly > 0
	return snap
}

func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.Err
}

func (s *Store) Subscribe(fn func(Snapshot)) (cancel func()) { return s.hub.Subscribe(fn) }

func (s *Store) Dispose() { s.hub.Reset() }

func (s *Store) begin() {
	s.mutate(func(st *Snapshot) {
		s.inFly++
		st.Err = ""
	})
}

// commit ctx 已结束时丢弃结果，返回 ErrNotApplied 包住 ctx.Err()
func (s *Store) commit(ctx context.Context, patch func(*Snapshot)) error {
	if err := ctx.Err(); err != nil {
		s.mutate(func(*Snapshot) { s.inFly-- })
		return fmt.Errorf("%w: %w", ErrNotApplied, err)
	}
	s.mutate(func(st *Snapshot) {
		s.inFly--
		if patch != nil {
			patch(st)
		}
	})
	return nil
}

func (s *Store) fail(op string, err error) error {
	s.log.Debug(op+" failed", zap.Error(err))
	msg := remote.Message(err)
	s.mutate(func(st *Snapshot) {
		s.inFly--
		st.Err = msg
	})
	return fmt.Errorf("%s: %w", op, err)
}

func (s *Store) setErr(msg string) { s.mutate(func(st *Snapshot) { st.Err = msg }) }

func (s *Store) mutate(fn func(*Snapshot)) {
	s.mu.Lock()
	fn(&s.st)
	// 锁内入队，订阅者看到的顺序与修改顺序一致
	s.hub.Enqueue(s.snapshotLocked())
	s.mu.Unlock()
	s.hub.Drain()
}
