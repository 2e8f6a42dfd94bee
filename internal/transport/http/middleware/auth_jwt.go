package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"skillmentor/internal/core/auth"
	resp "skillmentor/internal/transport/http/response"
)

// gin.Context 里的鉴权信息
const (
	KeyUserID = "userId"
	KeyRole   = "role"
	KeyClaims = "claims"
)

func bearer(c *gin.Context) string {
	ah := c.GetHeader("Authorization")
	if !strings.HasPrefix(ah, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(ah, "Bearer "))
}

func setClaims(c *gin.Context, claims *auth.Claims) {
	c.Set(KeyClaims, claims)
	c.Set(KeyUserID, claims.UID)
	c.Set(KeyRole, claims.Role)
}

// AuthJWT 必须登录；requireRole 非空时还要求角色
func AuthJWT(j *auth.JWTer, requireRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := bearer(c)
		if tok == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, resp.Error(http.StatusUnauthorized, "Not authorized, no token"))
			return
		}
		claims, err := j.Parse(tok)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, resp.Error(http.StatusUnauthorized, "Not authorized, token failed"))
			return
		}
		if requireRole != "" && claims.Role != requireRole {
			c.AbortWithStatusJSON(http.StatusForbidden, resp.Error(http.StatusForbidden, "Access denied"))
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// AuthOptional 带合法 token 就识别身份，否则按游客放行（公开列表区分 admin 视图）
func AuthOptional(j *auth.JWTer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tok := bearer(c); tok != "" {
			if claims, err := j.Parse(tok); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}
