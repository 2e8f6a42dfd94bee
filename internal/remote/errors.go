package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// DefaultMessage 后端没给 message 时的兜底提示
const DefaultMessage = "Something went wrong"

// Error 统一的远程错误；Status 为 0 表示没拿到 HTTP 响应
type Error struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Status > 0 {
		fmt.Fprintf(&b, ": %d", e.Status)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(" (")
		b.WriteString(e.Err.Error())
		b.WriteString(")")
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func errorFromBody(op string, code int, body []byte) *Error {
	var p struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	_ = json.Unmarshal(body, &p)
	msg := p.Message
	if msg == "" {
		msg = p.Error
	}
	return &Error{Op: op, Status: code, Message: messageOr(msg)}
}

func messageOr(msg string) string {
	if strings.TrimSpace(msg) == "" {
		return DefaultMessage
	}
	return msg
}

// StatusOf 取 HTTP 状态码，非远程错误返回 0
func StatusOf(err error) int {
	var re *Error
	if errors.As(err, &re) {
		return re.Status
	}
	return 0
}

func IsUnauthorized(err error) bool { return StatusOf(err) == http.StatusUnauthorized }

func IsNotFound(err error) bool { return StatusOf(err) == http.StatusNotFound }

func IsConflict(err error) bool { return StatusOf(err) == http.StatusConflict }

// Message 面向用户的提示文本
func Message(err error) string {
	if err == nil {
		return ""
	}
	var re *Error
	if errors.As(err, &re) {
		return re.Message
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return DefaultMessage
	}
	return err.Error()
}
