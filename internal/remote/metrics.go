package remote

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"
)

// Metrics 每个操作的调用次数与耗时
type Metrics struct {
	calls   *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

// NewMetrics reg 为 nil 时只建不注册
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "skillmentor_client_calls_total", Help: "Count of backend calls by operation and outcome"},
			[]string{"op", "outcome"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "skillmentor_client_call_duration_seconds",
				Help:    "Latency of backend calls",
				Buckets: prometheus.DefBuckets,
			}, []string{"op"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.calls, m.latency)
	}
	return m
}

func (m *Metrics) observe(op string, err error, d time.Duration) {
	m.calls.WithLabelValues(op, outcome(err)).Inc()
	m.latency.WithLabelValues(op).Observe(d.Seconds())
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "breaker_open"
	}
	if code := StatusOf(err); code > 0 {
		return strconv.Itoa(code)
	}
	return "transport"
}
