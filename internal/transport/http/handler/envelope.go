package handler

import (
	"skillmentor/internal/domain"
	resp "skillmentor/internal/transport/http/response"
)

// session 登录 / 注册：token 与 user 放在顶层
type session struct {
	token string
	user  domain.Identity
}

func (s session) Envelope(msg string) resp.Resp { return resp.WithUser(msg, s.token, s.user) }

// userOnly 单个用户放顶层 user；msg 非空时覆盖路由文案
type userOnly struct {
	user domain.Identity
	msg  string
}

func (u userOnly) Envelope(msg string) resp.Resp {
	if u.msg != "" {
		msg = u.msg
	}
	return resp.WithUser(msg, "", u.user)
}

type none struct{}
