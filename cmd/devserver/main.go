// devserver 本地参考后端：实现客户端用到的全部 /api 接口
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"skillmentor/internal/core/auth"
	"skillmentor/internal/core/cache"
	"skillmentor/internal/core/config"
	"skillmentor/internal/core/database"
	"skillmentor/internal/core/logger"
	"skillmentor/internal/core/server"
	"skillmentor/internal/repo"
	"skillmentor/internal/service"
	"skillmentor/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad("")

	log, cleanup := logger.Build(logger.Options{
		Level:       cfg.Log.Level,
		JSON:        cfg.Log.JSON,
		AddCaller:   true,
		Development: !cfg.Log.JSON,
		Rotate: logger.FileRotate{
			Enable: cfg.Log.File != "", Filename: cfg.Log.File,
			MaxSizeMB: 50, MaxBackups: 5, MaxAgeDays: 14, Compress: true,
		},
	})
	defer cleanup()
	// gin 自己的调试输出也走 zap
	gin.DefaultWriter = logger.ToWriter(log, zapcore.DebugLevel)
	gin.DefaultErrorWriter = logger.ToWriter(log, zapcore.ErrorLevel)

	db := mustOpenDB(cfg, log)
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))
	if cfg.DB.AutoMigrate {
		if err := repo.Migrate(db); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
		log.Info("automigrate done")
	}

	rc := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	rc.Prefix = cfg.App.Name + ":"
	defer func() { _ = rc.Close() }()
	if rc.Enabled() {
		log.Info("redis cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	jwter := &auth.JWTer{Secret: []byte(cfg.JWT.Secret), Issuer: cfg.JWT.Issuer, TTL: cfg.JWT.TTL()}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Seed.AdminEmail != "" {
		as := service.NewAuthService(db, jwter, log)
		if err := as.EnsureAdmin(ctx, cfg.Seed.AdminEmail, cfg.Seed.AdminPassword, cfg.Seed.AdminName); err != nil {
			log.Fatal("seed admin failed", zap.Error(err))
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	mode := gin.DebugMode
	if cfg.App.Env != "local" {
		mode = gin.ReleaseMode
	}
	r := router.NewAPIEngine(router.Deps{
		Log:            log,
		DB:             db,
		Cache:          rc,
		JWT:            jwter,
		Metrics:        reg,
		Mode:           mode,
		UploadDir:      cfg.Devserver.UploadDir,
		RateLimitRPS:   cfg.Devserver.RateLimitRPS,
		RateLimitBurst: cfg.Devserver.RateLimitBurst,
		MaxInflight:    cfg.Devserver.MaxInflight,
		MaxBodyBytes:   cfg.Devserver.MaxBodyMB << 20,
		RequestTimeout: cfg.Devserver.RequestTimeout(),
	})

	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := fmt.Sprintf("http://%s:%d", host4human, cfg.App.HTTP.Port)
	log.Info("devserver starting",
		zap.String("addr", addr),
		zap.String("health", baseURL+"/healthz"),
		zap.String("api", baseURL+"/api"),
	)

	if err := server.Run(ctx, srv, log, time.Duration(cfg.Devserver.GraceSec)*time.Second); err != nil {
		log.Error("devserver stopped with error", zap.Error(err))
		os.Exit(1)
	}
	log.Info("devserver stopped gracefully")
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
		Log:                l,
	})
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	return db
}
