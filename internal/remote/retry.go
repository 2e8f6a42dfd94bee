package remote

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

var retryStatuses = map[int]bool{
	http.StatusRequestTimeout:  true, // 408
	http.StatusTooEarly:        true, // 425
	http.StatusTooManyRequests: true, // 429
}

func retryableStatus(code int) bool {
	return retryStatuses[code] || code >= 500
}

// shouldRetry 只重试 GET；写操作不幂等
func shouldRetry(r *resty.Response, err error) bool {
	if r == nil || r.Request == nil || r.Request.Method != http.MethodGet {
		return false
	}
	if ctx := r.Request.Context(); ctx != nil && ctx.Err() != nil {
		return false
	}
	if err != nil {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	return retryableStatus(r.StatusCode())
}

// retryAfter 尊重 Retry-After；返回 0 时 resty 走默认退避
func retryAfter(_ *resty.Client, r *resty.Response) (time.Duration, error) {
	if r == nil {
		return 0, nil
	}
	return parseRetryAfter(r.Header().Get("Retry-After"), time.Now()), nil
}

func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

// breakerSuccess 4xx 是调用方问题，不计入熔断失败
func breakerSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	code := StatusOf(err)
	if code == 0 {
		return false
	}
	return !retryableStatus(code)
}
