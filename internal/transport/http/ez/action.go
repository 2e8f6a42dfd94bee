package ez

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"skillmentor/internal/domain"
	"skillmentor/internal/service"
	mdw "skillmentor/internal/transport/http/middleware"
	resp "skillmentor/internal/transport/http/response"
)

// EZ 路由分组的轻封装
type EZ struct {
	g   *gin.RouterGroup
	log *zap.Logger
}

func New(g *gin.RouterGroup, l *zap.Logger) EZ {
	if l == nil {
		l = zap.NewNop()
	}
	return EZ{g: g, log: l}
}

// Group 子分组，可追加中间件
func (e EZ) Group(path string, h ...gin.HandlerFunc) EZ {
	return EZ{g: e.g.Group(path, h...), log: e.log}
}

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON 绑定
	BindQuery Binder = "query" // 从 URL ?a=b 绑定
	BindNone  Binder = "none"  // 不绑定
)

// 统一错误对象
type AErr struct {
	Code int
	Msg  string
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error { return e.Err }

func BadRequest(msg string) error   { return &AErr{Code: http.StatusBadRequest, Msg: msg} }
func Unauthorized(msg string) error { return &AErr{Code: http.StatusUnauthorized, Msg: msg} }
func Forbidden(msg string) error    { return &AErr{Code: http.StatusForbidden, Msg: msg} }
func NotFound(msg string) error     { return &AErr{Code: http.StatusNotFound, Msg: msg} }
func Internal(msg string, err error) error {
	return &AErr{Code: http.StatusInternalServerError, Msg: msg, Err: err}
}

// bindError 请求体读取 / 解析失败
func bindError(err error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return &AErr{Code: http.StatusRequestEntityTooLarge, Msg: resp.Text(http.StatusRequestEntityTooLarge), Err: err}
	}
	return &AErr{Code: http.StatusBadRequest, Msg: "Invalid request: " + err.Error(), Err: err}
}

// Classify 错误 → HTTP 状态码 + 对外文案；5xx 不透出内部错误
func Classify(err error) (int, string) {
	var ae *AErr
	if errors.As(err, &ae) {
		if ae.Code >= 500 && ae.Msg == "" {
			return ae.Code, resp.Text(ae.Code)
		}
		return ae.Code, ae.Error()
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ve.Error()
	}
	var se *service.Error
	if errors.As(err, &se) {
		switch {
		case errors.Is(se.Kind, service.ErrInvalid):
			return http.StatusBadRequest, se.Msg
		case errors.Is(se.Kind, service.ErrUnauthorized):
			return http.StatusUnauthorized, se.Msg
		case errors.Is(se.Kind, service.ErrForbidden):
			return http.StatusForbidden, se.Msg
		case errors.Is(se.Kind, service.ErrNotFound):
			return http.StatusNotFound, se.Msg
		case errors.Is(se.Kind, service.ErrConflict):
			return http.StatusConflict, se.Msg
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, resp.Text(http.StatusGatewayTimeout)
	}
	return http.StatusInternalServerError, resp.Text(http.StatusInternalServerError)
}

// Fail 写错误响应；5xx 记日志
func (e EZ) Fail(c *gin.Context, err error) {
	code, msg := Classify(err)
	if code >= http.StatusInternalServerError {
		_ = c.Error(err)
		e.log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.AbortWithStatusJSON(code, resp.Error(code, msg))
}

// UserID 鉴权中间件写入的当前用户
func UserID(c *gin.Context) string { return c.GetString(mdw.KeyUserID) }

func IsAdmin(c *gin.Context) bool { return c.GetString(mdw.KeyRole) == string(domain.RoleAdmin) }

// 动作定义：I 入参，O 出参
type Action[I any, O any] struct {
	Method  string   // "GET" | "POST" | "PUT" | "PATCH" | "DELETE"
	Path    string   // 例："/auth/login"、"/enrollments/:id/progress"
	Binder  Binder   // 绑定方式
	Auth    bool     // 是否要求登录（检查 userId）
	Roles   []string // 限定角色（可选）
	Status  int      // 成功状态码，默认 200
	Message string   // 成功文案
	Handler func(c *gin.Context, in *I) (O, error)
}

// 在当前 EZ 下注册动作接口
func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	status := a.Status
	if status == 0 {
		status = http.StatusOK
	}
	h := func(c *gin.Context) {
		// 1) 鉴权/角色
		if a.Auth || len(a.Roles) > 0 {
			if UserID(c) == "" {
				e.Fail(c, Unauthorized("Not authorized, please log in"))
				return
			}
			if len(a.Roles) > 0 && !slices.Contains(a.Roles, c.GetString(mdw.KeyRole)) {
				e.Fail(c, Forbidden("Access denied"))
				return
			}
		}

		// 2) 绑定入参
		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		}
		if bindErr != nil {
			e.Fail(c, bindError(bindErr))
			return
		}

		// 3) 执行
		out, err := a.Handler(c, &in)
		if err != nil {
			e.Fail(c, err)
			return
		}

		// 4) 输出
		if ev, ok := any(out).(resp.Enveloper); ok {
			c.JSON(status, ev.Envelope(a.Message))
			return
		}
		c.JSON(status, resp.OK(a.Message, out))
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodPatch:
		e.g.PATCH(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default: // 默认 POST
		e.g.POST(a.Path, h)
	}
}

// Files multipart 上传；field 为表单字段名，maxFiles<=0 不限
func (e EZ) Files(path, field string, maxFiles int, msg string, h func(c *gin.Context, files []*multipart.FileHeader) (any, error)) {
	e.g.POST(path, func(c *gin.Context) {
		if UserID(c) == "" {
			e.Fail(c, Unauthorized("Not authorized, please log in"))
			return
		}
		form, err := c.MultipartForm()
		if err != nil {
			e.Fail(c, bindError(err))
			return
		}
		files := form.File[field]
		if len(files) == 0 {
			e.Fail(c, BadRequest("No file uploaded"))
			return
		}
		if maxFiles > 0 && len(files) > maxFiles {
			e.Fail(c, BadRequest("Too many files"))
			return
		}
		data, err := h(c, files)
		if err != nil {
			e.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, resp.OK(msg, data))
	})
}
