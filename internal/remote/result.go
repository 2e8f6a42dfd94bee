package remote

import "skillmentor/internal/domain"

// Result 所有操作的统一返回形状
type Result[T any] struct {
	Success bool
	Data    T
	Message string
}

func ok[T any](msg string, v T) Result[T] {
	return Result[T]{Success: true, Data: v, Message: msg}
}

// Empty 无数据的成功响应（删除等）
type Empty struct{}

// Session 登录 / 注册返回
type Session struct {
	Token string
	User  domain.Identity
}

type UserPage struct {
	Users      []domain.Identity `json:"users"`
	Pagination domain.Pagination `json:"pagination"`
}

type CoursePage struct {
	Courses    []domain.Course   `json:"courses"`
	Pagination domain.Pagination `json:"pagination"`
}

// envelope {success, message, data}
type envelope[D any] struct {
	Message string `json:"message"`
	Data    D      `json:"data"`
}

type userEnvelope struct {
	Message string          `json:"message"`
	Token   string          `json:"token"`
	User    domain.Identity `json:"user"`
}
