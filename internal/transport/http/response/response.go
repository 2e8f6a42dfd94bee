package response

// Resp 统一响应体：{success, message, data}；登录类接口把 token / user 放顶层
type Resp struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Token   string `json:"token,omitempty"`
	User    any    `json:"user,omitempty"`
}

// Enveloper 出参自己决定顶层字段
type Enveloper interface {
	Envelope(msg string) Resp
}

// OK 成功响应
func OK(msg string, data any) Resp {
	if msg == "" {
		msg = Text(200)
	}
	return Resp{Success: true, Message: msg, Data: data}
}

// Error 失败响应（可以传自定义 msg 覆盖默认）
func Error(code int, customMsg string) Resp {
	msg := Text(code)
	if customMsg != "" {
		msg = customMsg
	}
	return Resp{Success: false, Message: msg}
}

// WithUser 顶层带 user（可选 token）
func WithUser(msg, token string, user any) Resp {
	return Resp{Success: true, Message: msg, Token: token, User: user}
}
