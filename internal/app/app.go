// Package app 组装客户端：配置 → 日志 → token 槽位 → 远程客户端 → 各 Store。
package app

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"skillmentor/internal/catalog"
	"skillmentor/internal/core/config"
	"skillmentor/internal/credential"
	"skillmentor/internal/remote"
	"skillmentor/internal/roster"
	"skillmentor/internal/session"
)

type App struct {
	Config  *config.Config
	Log     *zap.Logger
	Creds   credential.Store
	Remote  *remote.Client
	Session *session.Store
	Catalog *catalog.Store
	Roster  *roster.Store
	Metrics *prometheus.Registry

	closers []func() error
}

type Option func(*options)

type options struct {
	notifier session.Notifier
	creds    credential.Store
}

// WithNotifier 替换默认（写日志）的提示实现
func WithNotifier(n session.Notifier) Option { return func(o *options) { o.notifier = n } }

// WithCredentials 直接注入 token 槽位（测试用）
func WithCredentials(s credential.Store) Option { return func(o *options) { o.creds = s } }

func New(cfg *config.Config, l *zap.Logger, opts ...Option) (*App, error) {
	if l == nil {
		l = zap.NewNop()
	}
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	a := &App{Config: cfg, Log: l, Metrics: prometheus.NewRegistry()}

	creds := o.creds
	if creds == nil {
		co := credential.Options{Driver: cfg.Credential.Driver, Path: cfg.Credential.Path, Key: cfg.Credential.Key}
		if co.Driver == "redis" {
			rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
			a.closers = append(a.closers, rdb.Close)
			co.Redis = rdb
		}
		var err error
		if creds, err = credential.Open(co); err != nil {
			_ = a.Close()
			return nil, err
		}
	}
	a.Creds = creds

	ro := remote.OptionsFromConfig(cfg.API)
	ro.Registerer = a.Metrics
	a.Remote = remote.New(ro, creds, l)

	local := session.LocalAuthorityFromConfig(cfg.LocalAdmin)
	if local != nil {
		l.Warn("local admin shortcut enabled", zap.String("email", cfg.LocalAdmin.Email))
	}
	a.Session = session.New(session.Options{
		Auth:     a.Remote.Auth,
		Profiles: a.Remote.Users,
		Creds:    creds,
		Local:    local,
		Notifier: o.notifier,
		Log:      l,
	})
	a.Catalog = catalog.New(catalog.Options{
		Courses:     a.Remote.Courses,
		Enrollments: a.Remote.Enrollments,
		Reviews:     a.Remote.Reviews,
		Log:         l,
	})
	a.Roster = roster.New(a.Remote.Users, l)
	return a, nil
}

// Init 启动期检查登录态
func (a *App) Init(ctx context.Context) { a.Session.Init(ctx) }

// Close 释放订阅和外部连接
func (a *App) Close() error {
	if a.Session != nil {
		a.Session.Dispose()
	}
	if a.Catalog != nil {
		a.Catalog.Dispose()
	}
	if a.Roster != nil {
		a.Roster.Dispose()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
