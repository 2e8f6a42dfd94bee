// Package devtest 在测试里起一个真实的参考后端（内存 sqlite + httptest）。
package devtest

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"skillmentor/internal/core/auth"
	"skillmentor/internal/repo"
	"skillmentor/internal/service"
	"skillmentor/internal/transport/http/router"
)

const (
	AdminEmail    = "root@edu.com"
	AdminPassword = "rootpass"
)

// Backend 返回 /api 基地址；测试结束自动关闭
func Backend(t testing.TB) string {
	t.Helper()
	dsn := "file:" + strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()) + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 内存库只活在连接上
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, repo.Migrate(db))

	j := &auth.JWTer{Secret: []byte("devtest"), Issuer: "skillmentor", TTL: time.Hour}
	require.NoError(t, service.NewAuthService(db, j, zap.NewNop()).
		EnsureAdmin(t.Context(), AdminEmail, AdminPassword, "Root"))

	srv := httptest.NewServer(router.NewAPIEngine(router.Deps{
		DB: db, JWT: j, Mode: gin.TestMode, UploadDir: t.TempDir(),
	}))
	t.Cleanup(func() {
		srv.Close()
		_ = sqlDB.Close()
	})
	return srv.URL + "/api"
}
