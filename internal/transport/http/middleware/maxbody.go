package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	resp "skillmentor/internal/transport/http/response"
)

// MaxBodyBytes 限制请求体大小；声明长度超限直接 413，
// 未声明长度（chunked）的由 handler 读 body 时拿到 *http.MaxBytesError
func MaxBodyBytes(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > n {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, resp.Error(http.StatusRequestEntityTooLarge, ""))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}
