package database

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Opts struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	LogLevel           string
	Log                *zap.Logger
}

var ErrUnsupportedDriver = errors.New("database: unsupported driver")

// NewGorm 按 driver 打开连接；sqlite 用于本地 devserver 与测试
func NewGorm(o Opts) (*gorm.DB, error) {
	l := o.Log
	if l == nil {
		l = zap.NewNop()
	}
	var dial gorm.Dialector
	switch o.Driver {
	case "sqlite", "":
		dsn := o.DSN
		if dsn == "" {
			dsn = "file::memory:?cache=shared"
		}
		dial = sqlite.Open(dsn)
	case "postgres":
		dial = postgres.Open(o.DSN)
	case "mysql":
		dsn := NormalizeMySQLDSN(o.DSN, o.Username, o.Password)
		l.Info("db mysql dsn", zap.String("dsn", maskDSN(dsn)))
		dial = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, o.Driver)
	}

	db, err := gorm.Open(dial, &gorm.Config{Logger: logger.Default.LogMode(gormLevel(o.LogLevel))})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if o.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(o.MaxOpenConns)
	}
	if o.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(o.MaxIdleConns)
	}
	if o.ConnMaxLifetimeMin > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(o.ConnMaxLifetimeMin) * time.Minute)
	}
	return db.Session(&gorm.Session{
		PrepareStmt:            true,
		SkipDefaultTransaction: true, // 计数类更新自己开 Tx
	}), nil
}

func gormLevel(s string) logger.LogLevel {
	switch s {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	}
	return logger.Warn
}

// NormalizeMySQLDSN 把 jdbc:mysql:// / mysql:// URL 改写成 go-sql-driver 的 user:pass@tcp(host)/db 形式；
// 其它输入原样返回
func NormalizeMySQLDSN(input, userOverride, passOverride string) string {
	in := strings.TrimPrefix(strings.TrimSpace(input), "jdbc:")
	if !strings.HasPrefix(in, "mysql://") {
		return in
	}
	u, err := url.Parse(in)
	if err != nil {
		return in
	}
	var user, pass string
	if u.User != nil {
		user = u.User.Username()
		pass, _ = u.User.Password()
	}
	if userOverride != "" {
		user = userOverride
	}
	if passOverride != "" {
		pass = passOverride
	}

	q := u.Query()
	if tz := q.Get("serverTimezone"); tz != "" {
		q.Set("loc", tz)
	}
	for _, k := range []string{"serverTimezone", "useUnicode", "characterEncoding", "zeroDateTimeBehavior", "useSSL"} {
		q.Del(k)
	}
	if q.Get("parseTime") == "" {
		q.Set("parseTime", "true")
	}
	if q.Get("charset") == "" {
		q.Set("charset", "utf8mb4")
	}

	cred := user
	if pass != "" {
		cred += ":" + pass
	}
	if cred != "" {
		cred += "@"
	}
	return fmt.Sprintf("%stcp(%s)/%s?%s", cred, u.Host, strings.TrimPrefix(u.Path, "/"), q.Encode())
}

func maskDSN(dsn string) string {
	at := strings.Index(dsn, "@")
	if at <= 0 {
		return dsn
	}
	if colon := strings.Index(dsn[:at], ":"); colon > 0 {
		return dsn[:colon+1] + "****" + dsn[at:]
	}
	return dsn
}
