package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
}

type App struct {
	Name string
	Env  string
	HTTP HTTP
}

type Log struct {
	Level string
	JSON  bool
	File  string // 非空则写文件并切割
}

// API 客户端访问后端的参数
type API struct {
	BaseURL        string
	TimeoutSec     int
	RetryCount     int
	RetryWaitMs    int
	RetryMaxWaitMs int
	RateLimitRPS   float64 // <=0 不限速
	RateLimitBurst int
	Breaker        Breaker
}

// Breaker 熔断参数
type Breaker struct {
	Enable       bool
	MaxRequests  uint32
	IntervalSec  int
	TimeoutSec   int
	MinRequests  uint32
	FailureRatio float64
}

// Credential 本地 token 槽位
type Credential struct {
	Driver string // file | redis | memory
	Path   string
	Key    string
}

// LocalAdmin 本地管理员捷径（开发用，生产应关闭）
type LocalAdmin struct {
	Enabled  bool
	Email    string
	Password string
	Token    string
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

// Devserver 本地参考后端的运行参数
type Devserver struct {
	UploadDir         string
	RateLimitRPS      float64
	RateLimitBurst    int
	MaxInflight       int64
	MaxBodyMB         int64
	RequestTimeoutSec int
	GraceSec          int
}

// Seed 启动时确保存在的管理员账号；Email 为空则跳过
type Seed struct {
	AdminEmail    string
	AdminPassword string
	AdminName     string
}

type Config struct {
	App        App
	Log        Log
	API        API
	Credential Credential
	LocalAdmin LocalAdmin `mapstructure:"localAdmin"`
	JWT        JWT
	DB         DB
	Redis      Redis `mapstructure:"redis"`
	Devserver  Devserver
	Seed       Seed
}

func (a API) Timeout() time.Duration { return time.Duration(a.TimeoutSec) * time.Second }

func (d Devserver) RequestTimeout() time.Duration {
	return time.Duration(d.RequestTimeoutSec) * time.Second
}

func (j JWT) TTL() time.Duration { return time.Duration(j.AccessTokenTTLMin) * time.Minute }

const defaultPath = "./configs/config.local.yaml"

// Load 读 yaml + APP_ 环境变量；文件不存在时只用默认值
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = defaultPath
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// MustLoad 启动期使用，失败直接退出
func MustLoad(path string) *Config {
	c, err := Load(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return c
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "skillmentor")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 5000)
	v.SetDefault("app.http.readTimeoutSec", 5)
	v.SetDefault("app.http.writeTimeoutSec", 10)
	v.SetDefault("app.http.idleTimeoutSec", 60)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)

	v.SetDefault("api.baseURL", "http://127.0.0.1:5000/api")
	v.SetDefault("api.timeoutSec", 15)
	v.SetDefault("api.retryCount", 3)
	v.SetDefault("api.retryWaitMs", 700)
	v.SetDefault("api.retryMaxWaitMs", 30000)
	v.SetDefault("api.rateLimitRPS", 20)
	v.SetDefault("api.rateLimitBurst", 40)
	v.SetDefault("api.breaker.enable", true)
	v.SetDefault("api.breaker.maxRequests", 5)
	v.SetDefault("api.breaker.intervalSec", 30)
	v.SetDefault("api.breaker.timeoutSec", 10)
	v.SetDefault("api.breaker.minRequests", 5)
	v.SetDefault("api.breaker.failureRatio", 0.6)

	v.SetDefault("credential.driver", "file")
	v.SetDefault("credential.path", defaultCredentialPath())
	v.SetDefault("credential.key", "skillmentor:token")

	v.SetDefault("localAdmin.enabled", true)
	v.SetDefault("localAdmin.email", "admin@edu.com")
	v.SetDefault("localAdmin.password", "admin123")
	v.SetDefault("localAdmin.token", "admin-token")

	v.SetDefault("jwt.secret", "change-me")
	v.SetDefault("jwt.issuer", "skillmentor")
	v.SetDefault("jwt.accessTokenTTLMin", 60*24*7)

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "file:skillmentor.db?_foreign_keys=on")
	v.SetDefault("db.maxOpenConns", 10)
	v.SetDefault("db.maxIdleConns", 5)
	v.SetDefault("db.connMaxLifetimeMin", 30)
	v.SetDefault("db.autoMigrate", true)
	v.SetDefault("db.logLevel", "warn")

	v.SetDefault("devserver.uploadDir", "./uploads")
	v.SetDefault("devserver.rateLimitRPS", 100)
	v.SetDefault("devserver.rateLimitBurst", 200)
	v.SetDefault("devserver.maxInflight", 300)
	v.SetDefault("devserver.maxBodyMB", 16)
	v.SetDefault("devserver.requestTimeoutSec", 10)
	v.SetDefault("devserver.graceSec", 10)

	v.SetDefault("seed.adminEmail", "admin@edu.com")
	v.SetDefault("seed.adminPassword", "admin123")
	v.SetDefault("seed.adminName", "Administrator")
}

func defaultCredentialPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return ".skillmentor/credentials.json"
	}
	return dir + "/skillmentor/credentials.json"
}
