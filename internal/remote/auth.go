package remote

import (
	"context"
	"net/http"

	"skillmentor/internal/domain"
)

type AuthAPI struct{ c *Client }

func (a *AuthAPI) Login(ctx context.Context, email, password string) (Result[Session], error) {
	var env userEnvelope
	err := a.c.call(ctx, request{
		op: "auth.login", method: http.MethodPost, path: "/auth/login",
		body: map[string]string{"email": email, "password": password},
	}, &env)
	if err != nil {
		return Result[Session]{}, err
	}
	return ok(env.Message, Session{Token: env.Token, User: env.User}), nil
}

func (a *AuthAPI) Register(ctx context.Context, in domain.Registration) (Result[Session], error) {
	var env userEnvelope
	err := a.c.call(ctx, request{op: "auth.register", method: http.MethodPost, path: "/auth/register", body: in}, &env)
	if err != nil {
		return Result[Session]{}, err
	}
	return ok(env.Message, Session{Token: env.Token, User: env.User}), nil
}

// Me 当前 token 对应的用户
func (a *AuthAPI) Me(ctx context.Context) (Result[domain.Identity], error) {
	var env userEnvelope
	if err := a.c.call(ctx, request{op: "auth.me", method: http.MethodGet, path: "/auth/me"}, &env); err != nil {
		return Result[domain.Identity]{}, err
	}
	return ok(env.Message, env.User), nil
}

func (a *AuthAPI) UpdatePassword(ctx context.Context, in domain.PasswordChange) (Result[Empty], error) {
	var env envelope[Empty]
	if err := a.c.call(ctx, request{op: "auth.password", method: http.MethodPut, path: "/auth/password", body: in}, &env); err != nil {
		return Result[Empty]{}, err
	}
	return ok(env.Message, Empty{}), nil
}

func (a *AuthAPI) Logout(ctx context.Context) (Result[Empty], error) {
	var env envelope[Empty]
	if err := a.c.call(ctx, request{op: "auth.logout", method: http.MethodPost, path: "/auth/logout"}, &env); err != nil {
		return Result[Empty]{}, err
	}
	return ok(env.Message, Empty{}), nil
}
