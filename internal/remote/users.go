package remote

import (
	"context"
	"net/http"

	"github.com/google/go-querystring/query"

	"skillmentor/internal/domain"
)

type UsersAPI struct{ c *Client }

func (u *UsersAPI) List(ctx context.Context, q domain.UserQuery) (Result[UserPage], error) {
	vals, err := query.Values(q)
	if err != nil {
		return Result[UserPage]{}, &Error{Op: "users.list", Message: DefaultMessage, Err: err}
	}
	var env envelope[UserPage]
	if err := u.c.call(ctx, request{op: "users.list", method: http.MethodGet, path: "/users", query: vals}, &env); err != nil {
		return Result[UserPage]{}, err
	}
	return ok(env.Message, env.Data), nil
}

func (u *UsersAPI) Get(ctx context.Context, id string) (Result[domain.Identity], error) {
	var env userEnvelope
	if err := u.c.call(ctx, request{op: "users.get", method: http.MethodGet, path: "/users/" + escape(id)}, &env); err != nil {
		return Result[domain.Identity]{}, err
	}
	return ok(env.Message, env.User), nil
}

func (u *UsersAPI) Update(ctx context.Context, id string, in domain.UserUpdate) (Result[domain.Identity], error) {
	var env userEnvelope
	if err := u.c.call(ctx, request{op: "users.update", method: http.MethodPut, path: "/users/" + escape(id), body: in}, &env); err != nil {
		return Result[domain.Identity]{}, err
	}
	return ok(env.Message, env.User), nil
}

// SetStatus 启用 / 停用
func (u *UsersAPI) SetStatus(ctx context.Context, id string, active bool) (Result[domain.Identity], error) {
	var env userEnvelope
	err := u.c.call(ctx, request{
		op: "users.status", method: http.MethodPatch, path: "/users/" + escape(id) + "/status",
		body: map[string]bool{"isActive": active},
	}, &env)
	if err != nil {
		return Result[domain.Identity]{}, err
	}
	return ok(env.Message, env.User), nil
}

// UpdateProfile 不带 id，后端按 token 识别用户
func (u *UsersAPI) UpdateProfile(ctx context.Context, in domain.ProfileUpdate) (Result[domain.Identity], error) {
	var env userEnvelope
	if err := u.c.call(ctx, request{op: "users.profile", method: http.MethodPut, path: "/users/profile", body: in}, &env); err != nil {
		return Result[domain.Identity]{}, err
	}
	return ok(env.Message, env.User), nil
}

func (u *UsersAPI) Delete(ctx context.Context, id string) (Result[Empty], error) {
	var env envelope[Empty]
	if err := u.c.call(ctx, request{op: "users.delete", method: http.MethodDelete, path: "/users/" + escape(id)}, &env); err != nil {
		return Result[Empty]{}, err
	}
	return ok(env.Message, Empty{}), nil
}
