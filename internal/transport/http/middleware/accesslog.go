package middleware

import (
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// 敏感字段 key（query 中统一按 key）
var sensitiveKeys = map[string]struct{}{
	"password": {}, "pwd": {}, "token": {}, "authorization": {},
	"secret": {}, "client_secret": {}, "access_token": {},
}

func mask(kv url.Values) map[string][]string {
	out := make(map[string][]string, len(kv))
	for k, v := range kv {
		if _, ok := sensitiveKeys[strings.ToLower(k)]; ok {
			out[k] = []string{"****"}
		} else {
			out[k] = v
		}
	}
	return out
}

// AccessFields 访问日志附加字段：rid / 路由模板 / 当前用户 / 脱敏 query（给 ginzap 的 Context 用）
func AccessFields(c *gin.Context) []zapcore.Field {
	fields := []zapcore.Field{
		zap.String("rid", c.GetString(KeyRequestID)),
		zap.String("route", c.FullPath()),
	}
	if uid := c.GetString(KeyUserID); uid != "" {
		fields = append(fields, zap.String("uid", uid))
	}
	if q := c.Request.URL.Query(); len(q) > 0 {
		fields = append(fields, zap.Any("query", mask(q)))
	}
	return fields
}
