package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 按路由模板统计请求数与耗时，注册到调用方给的 registry
func Metrics(reg prometheus.Registerer) gin.HandlerFunc {
	total := prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "skillmentor_http_requests_total", Help: "Count of HTTP requests"},
		[]string{"path", "method", "status"},
	)
	latency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skillmentor_http_request_duration_seconds",
			Help:    "Latency of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "method"},
	)
	if reg != nil {
		reg.MustRegister(total, latency)
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		total.WithLabelValues(path, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		latency.WithLabelValues(path, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
