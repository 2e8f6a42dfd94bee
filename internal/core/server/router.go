package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter gin 引擎：zap 访问日志 + panic 恢复 + CORS（前端带 Authorization 头）。
// fields 可为 nil，用于给访问日志追加字段（request id 等）
func NewRouter(l *zap.Logger, mode string, fields ginzap.Fn) *gin.Engine {
	if mode != "" {
		gin.SetMode(mode)
	}
	r := gin.New()
	r.Use(ginzap.GinzapWithConfig(l, &ginzap.Config{
		TimeFormat: time.RFC3339,
		UTC:        true,
		SkipPaths:  []string{"/healthz", "/metrics"},
		Context:    fields,
	}))
	r.Use(ginzap.RecoveryWithZap(l, true))

	cc := cors.DefaultConfig()
	cc.AllowAllOrigins = true
	cc.AllowHeaders = append(cc.AllowHeaders, "Authorization", "X-Request-ID")
	cc.ExposeHeaders = []string{"X-Request-ID"}
	r.Use(cors.New(cc))
	return r
}

func BuildServer(addr string, handler http.Handler, rt, wt, it time.Duration) *http.Server {
	return &http.Server{
		Addr:           addr,
		Handler:        handler,
		ReadTimeout:    rt,
		WriteTimeout:   wt,
		IdleTimeout:    it,
		MaxHeaderBytes: 1 << 20,
	}
}

// Run 阻塞直到 ctx 结束，然后优雅关停
func Run(ctx context.Context, srv *http.Server, l *zap.Logger, grace time.Duration) error {
	errc := make(chan error, 1)
	go func() {
		l.Info("http starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	l.Info("http shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	return srv.Shutdown(sctx)
}

func Addr(host string, port int) string { return fmt.Sprintf("%s:%d", host, port) }
