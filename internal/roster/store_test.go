package roster

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"skillmentor/internal/domain"
	"skillmentor/internal/remote"
)

func TestMain(m *testing.M) { goleak.VerifyTestMain(m) }

type fakeUsers struct {
	users     []domain.Identity
	lastQuery domain.UserQuery
	statusErr error
	echo      bool
}

func (f *fakeUsers) List(_ context.Context, q domain.UserQuery) (remote.Result[remote.UserPage], error) {
	f.lastQuery = q
	return remote.Result[remote.UserPage]{Success: true, Data: remote.UserPage{
		Users: f.users, Pagination: domain.NewPagination(q.Page, q.Limit, int64(len(f.users))),
	}}, nil
}

func (f *fakeUsers) Get(_ context.Context, id string) (remote.Result[domain.Identity], error) {
	for _, u := range f.users {
		if u.ID == id {
			return remote.Result[domain.Identity]{Success: true, Data: u}, nil
		}
	}
	return remote.Result[domain.Identity]{}, &remote.Error{Op: "users.get", Status: 404, Message: "User not found"}
}

func (f *fakeUsers) Update(_ context.Context, id string, in domain.UserUpdate) (remote.Result[domain.Identity], error) {
	u := domain.Identity{ID: id, Role: domain.RoleStudent}
	if in.Name != nil {
		u.Name = *in.Name
	}
	return remote.Result[domain.Identity]{Success: true, Data: u}, nil
}

func (f *fakeUsers) SetStatus(_ context.Context, id string, active bool) (remote.Result[domain.Identity], error) {
	if f.statusErr != nil {
		return remote.Result[domain.Identity]{}, f.statusErr
	}
	for i := range f.users {
		if f.users[i].ID == id {
			f.users[i].IsActive = active
		}
	}
	if !f.echo {
		return remote.Result[domain.Identity]{Success: true}, nil
	}
	return remote.Result[domain.Identity]{Success: true, Data: domain.Identity{ID: id, IsActive: active, Name: "echo"}}, nil
}

func (f *fakeUsers) Delete(context.Context, string) (remote.Result[remote.Empty], error) {
	return remote.Result[remote.Empty]{Success: true}, nil
}

func seeded() *fakeUsers {
	return &fakeUsers{users: []domain.Identity{
		{ID: "u1", Name: "Ann", IsActive: true, Role: domain.RoleStudent},
		{ID: "u2", Name: "Bob", IsActive: false, Role: domain.RoleStudent},
		{ID: "u3", Name: "Cid", IsActive: true, Role: domain.RoleStudent},
	}}
}

func TestListAppliesDefaults(t *testing.T) {
	f := seeded()
	s := New(f, nil)
	require.NoError(t, s.List(context.Background(), domain.UserQuery{Search: "a"}))
	assert.Equal(t, domain.UserQuery{Page: 1, Limit: 10, Role: domain.RoleStudent, Search: "a"}, f.lastQuery)
	assert.Len(t, s.Users(), 3)
	assert.Equal(t, int64(3), s.Snapshot().Pagination.Total)
	assert.Equal(t, 2, s.ActiveCount())
	assert.Equal(t, 1, s.InactiveCount())
}

func TestSetStatusReplacesByID(t *testing.T) {
	ctx := context.Background()
	f := seeded()
	s := New(f, nil)
	require.NoError(t, s.List(ctx, domain.UserQuery{}))

	u, err := s.SetStatus(ctx, "u2", true)
	require.NoError(t, err)
	assert.True(t, u.IsActive)
	assert.Equal(t, "Bob", u.Name)
	assert.Equal(t, 3, s.ActiveCount())

	f.echo = true
	u, err = s.SetStatus(ctx, "u1", false)
	require.NoError(t, err)
	assert.Equal(t, "echo", u.Name)
	assert.Equal(t, 2, s.ActiveCount())
}

func TestSetStatusOffPageReadsBack(t *testing.T) {
	ctx := context.Background()
	f := seeded()
	s := New(f, nil)

	u, err := s.SetStatus(ctx, "u2", true)
	require.NoError(t, err)
	assert.Equal(t, "u2", u.ID)
	assert.Equal(t, "Bob", u.Name)
	assert.True(t, u.IsActive)
	assert.False(t, s.Snapshot().Loading)

	_, err = s.SetStatus(ctx, "ghost", false)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 404, remote.StatusOf(err))
	assert.Equal(t, "User not found", s.Err())
	assert.False(t, s.Snapshot().Loading)
	assert.Empty(t, s.Users())
}

func TestDeleteAfterCancelIsNotApplied(t *testing.T) {
	f := seeded()
	s := New(f, nil)
	require.NoError(t, s.List(context.Background(), domain.UserQuery{}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Delete(ctx, "u1")
	require.ErrorIs(t, err, ErrNotApplied)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, s.Users(), 3)
	assert.False(t, s.Snapshot().Loading)
}

func TestSetStatusFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	f := seeded()
	f.statusErr = &remote.Error{Status: 403, Message: "Access denied"}
	s := New(f, nil)
	require.NoError(t, s.List(ctx, domain.UserQuery{}))
	_, err := s.SetStatus(ctx, "u1", false)
	require.Error(t, err)
	assert.Equal(t, "Access denied", s.Err())
	assert.Equal(t, 2, s.ActiveCount())
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	s := New(seeded(), nil)
	require.NoError(t, s.List(ctx, domain.UserQuery{}))

	bad := "not-an-email"
	_, err := s.Update(ctx, "u1", domain.UserUpdate{Email: &bad})
	assert.True(t, domain.IsValidation(err))

	name := "Anne"
	u, err := s.Update(ctx, "u1", domain.UserUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Anne", u.Name)
	assert.Equal(t, "Anne", s.Users()[0].Name)

	require.NoError(t, s.Delete(ctx, "u2"))
	assert.Len(t, s.Users(), 2)
	assert.Equal(t, int64(2), s.Snapshot().Pagination.Total)
}

func TestGet(t *testing.T) {
	s := New(seeded(), nil)
	u, err := s.Get(context.Background(), "u3")
	require.NoError(t, err)
	assert.Equal(t, "Cid", u.Name)

	_, err = s.Get(context.Background(), "zz")
	assert.True(t, remote.IsNotFound(err))
	assert.Equal(t, "User not found", s.Err())
}
