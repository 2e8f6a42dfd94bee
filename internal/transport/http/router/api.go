package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"skillmentor/internal/core/auth"
	"skillmentor/internal/core/cache"
	"skillmentor/internal/core/server"
	"skillmentor/internal/domain"
	"skillmentor/internal/service"
	"skillmentor/internal/transport/http/ez"
	"skillmentor/internal/transport/http/handler"
	mdw "skillmentor/internal/transport/http/middleware"
)

// Deps 引擎依赖；零值字段走默认
type Deps struct {
	Log       *zap.Logger
	DB        *gorm.DB
	Cache     *cache.Cache
	JWT       *auth.JWTer
	Metrics   *prometheus.Registry
	Mode      string // gin mode
	UploadDir string

	RateLimitRPS   float64 // 每 IP
	RateLimitBurst int
	MaxInflight    int64
	MaxBodyBytes   int64
	RequestTimeout time.Duration
}

func (d *Deps) defaults() {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Cache == nil {
		d.Cache = &cache.Cache{}
	}
	if d.Metrics == nil {
		d.Metrics = prometheus.NewRegistry()
	}
	if d.UploadDir == "" {
		d.UploadDir = "./uploads"
	}
	if d.RateLimitRPS <= 0 {
		d.RateLimitRPS = 100
	}
	if d.RateLimitBurst <= 0 {
		d.RateLimitBurst = 200
	}
	if d.MaxInflight <= 0 {
		d.MaxInflight = 300
	}
	if d.MaxBodyBytes <= 0 {
		d.MaxBodyBytes = 16 << 20
	}
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 10 * time.Second
	}
}

// NewAPIEngine 组装中间件与全部业务路由，挂在 /api 下
func NewAPIEngine(d Deps) *gin.Engine {
	d.defaults()
	r := server.NewRouter(d.Log, d.Mode, mdw.AccessFields)
	// handler 直接把 *gin.Context 当 context.Context 传给 service
	r.ContextWithFallback = true

	r.Use(
		mdw.RequestID(),
		mdw.RateLimitPerIP(rate.Limit(d.RateLimitRPS), d.RateLimitBurst),
		mdw.ConcurrencyLimit(d.MaxInflight),
		mdw.MaxBodyBytes(d.MaxBodyBytes),
		mdw.Timeout(d.RequestTimeout),
		mdw.Metrics(d.Metrics),
	)

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Metrics, promhttp.HandlerOpts{})))
	r.Static("/uploads", d.UploadDir)

	api := ez.New(r.Group("/api", mdw.AuthOptional(d.JWT)), d.Log)

	courses := service.NewCourseService(d.DB, d.Cache, d.Log)
	reviews := service.NewReviewService(d.DB, courses, d.Log)

	var reg Registry
	reg.Register(
		handler.NewAuthHandler(service.NewAuthService(d.DB, d.JWT, d.Log)),
		handler.NewUserHandler(service.NewUserService(d.DB, courses, d.Log)),
		handler.NewCourseHandler(courses),
		handler.NewEnrollmentHandler(service.NewEnrollmentService(d.DB, courses, d.Log)),
		handler.NewReviewHandler(reviews),
		handler.NewNoteHandler(d.DB, service.NewNoteService(d.DB)),
		handler.NewUploadHandler(service.NewUploadService(d.UploadDir, "/uploads")),
		handler.NewAdminHandler(service.NewAdminService(d.DB, reviews, d.Log)),
	)
	reg.MountAllAPI(api)
	reg.MountAllAdmin(api.Group("/admin", mdw.AuthJWT(d.JWT, string(domain.RoleAdmin))))
	return r
}
