// Package remote 访问 SkillMentor 后端 REST 接口；整个客户端只有这里做网络 I/O。
package remote

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"skillmentor/internal/core/config"
	"skillmentor/internal/credential"
)

const HeaderRequestID = "X-Request-ID"

// Options 传输层参数；零值可用（无重试、无熔断、不限速）
type Options struct {
	BaseURL      string
	Timeout      time.Duration
	RetryCount   int
	RetryWait    time.Duration
	RetryMaxWait time.Duration
	RateLimit    float64 // 每秒请求数，<=0 不限速
	RateBurst    int
	Breaker      *gobreaker.Settings
	Registerer   prometheus.Registerer
	Transport    http.RoundTripper
}

// OptionsFromConfig 由 config.API 生成
func OptionsFromConfig(a config.API) Options {
	o := Options{
		BaseURL:      a.BaseURL,
		Timeout:      a.Timeout(),
		RetryCount:   a.RetryCount,
		RetryWait:    time.Duration(a.RetryWaitMs) * time.Millisecond,
		RetryMaxWait: time.Duration(a.RetryMaxWaitMs) * time.Millisecond,
		RateLimit:    a.RateLimitRPS,
		RateBurst:    a.RateLimitBurst,
	}
	if b := a.Breaker; b.Enable {
		o.Breaker = &gobreaker.Settings{
			Name:        "skillmentor-api",
			MaxRequests: b.MaxRequests,
			Interval:    time.Duration(b.IntervalSec) * time.Second,
			Timeout:     time.Duration(b.TimeoutSec) * time.Second,
			ReadyToTrip: tripOnRatio(b.MinRequests, b.FailureRatio),
		}
	}
	return o
}

func tripOnRatio(min uint32, ratio float64) func(gobreaker.Counts) bool {
	return func(c gobreaker.Counts) bool {
		if c.Requests < min || c.Requests == 0 {
			return false
		}
		return float64(c.TotalFailures)/float64(c.Requests) >= ratio
	}
}

// Client 按业务分组暴露接口
type Client struct {
	http    *resty.Client
	creds   credential.Store
	log     *zap.Logger
	cb      *gobreaker.CircuitBreaker
	lim     *rate.Limiter
	sf      singleflight.Group
	shared  time.Duration // 合并 GET 的总时限
	metrics *Metrics

	Auth        *AuthAPI
	Users       *UsersAPI
	Courses     *CoursesAPI
	Enrollments *EnrollmentsAPI
	Reviews     *ReviewsAPI
	Notes       *NotesAPI
	Admin       *AdminAPI
	AI          *AIAPI
	Uploads     *UploadsAPI
}

func New(o Options, creds credential.Store, l *zap.Logger) *Client {
	if l == nil {
		l = zap.NewNop()
	}
	if creds == nil {
		creds = credential.NewMemoryStore("")
	}
	c := &Client{
		creds:   creds,
		log:     l.Named("remote"),
		shared:  sharedTimeout(o),
		metrics: NewMetrics(o.Registerer),
	}

	r := resty.New().
		SetBaseURL(strings.TrimRight(o.BaseURL, "/")).
		SetHeader("Accept", "application/json").
		SetLogger(c.log.Sugar())
	if o.Transport != nil {
		r.SetTransport(o.Transport)
	}
	if o.Timeout > 0 {
		r.SetTimeout(o.Timeout)
	}
	if o.RetryCount > 0 {
		r.SetRetryCount(o.RetryCount).
			SetRetryWaitTime(o.RetryWait).
			SetRetryMaxWaitTime(o.RetryMaxWait).
			SetRetryAfter(retryAfter).
			AddRetryCondition(shouldRetry)
	}
	if o.RateLimit > 0 {
		burst := o.RateBurst
		if burst <= 0 {
			burst = 1
		}
		c.lim = rate.NewLimiter(rate.Limit(o.RateLimit), burst)
	}
	if o.Breaker != nil {
		st := *o.Breaker
		st.IsSuccessful = breakerSuccess
		st.OnStateChange = func(name string, from, to gobreaker.State) {
			c.log.Warn("circuit breaker state", zap.String("name", name), zap.Stringer("from", from), zap.Stringer("to", to))
		}
		c.cb = gobreaker.NewCircuitBreaker(st)
	}
	r.OnBeforeRequest(c.beforeRequest)
	c.http = r

	c.Auth = &AuthAPI{c}
	c.Users = &UsersAPI{c}
	c.Courses = &CoursesAPI{c}
	c.Enrollments = &EnrollmentsAPI{c}
	c.Reviews = &ReviewsAPI{c}
	c.Notes = &NotesAPI{c}
	c.Admin = &AdminAPI{c}
	c.AI = &AIAPI{c}
	c.Uploads = &UploadsAPI{c}
	return c
}

// beforeRequest 每次请求（包括重试）都重新读取 token，限速，打 request id
func (c *Client) beforeRequest(_ *resty.Client, req *resty.Request) error {
	ctx := req.Context()
	if c.lim != nil {
		if err := c.lim.Wait(ctx); err != nil {
			return err
		}
	}
	tok, err := c.creds.Load(ctx)
	if err != nil {
		c.log.Warn("load credential", zap.Error(err))
	} else if tok != "" {
		req.SetAuthToken(tok)
	}
	if req.Header.Get(HeaderRequestID) == "" {
		req.SetHeader(HeaderRequestID, uuid.NewString())
	}
	return nil
}

type upload struct {
	param string
	name  string
	r     io.Reader
}

type request struct {
	op     string
	method string
	path   string
	query  url.Values
	body   any
	files  []upload
}

// key 合并键带上 token 摘要，换了账号不会拿到上一个账号的结果
func (rq request) key(token string) string {
	k := rq.method + " " + rq.path + "?" + rq.query.Encode()
	if token == "" {
		return k
	}
	sum := sha256.Sum256([]byte(token))
	return k + "#" + hex.EncodeToString(sum[:8])
}

const defaultSharedTimeout = 30 * time.Second

// sharedTimeout 单次超时 × 尝试次数 + 重试等待
func sharedTimeout(o Options) time.Duration {
	if o.Timeout <= 0 {
		return defaultSharedTimeout
	}
	n := time.Duration(max(0, o.RetryCount))
	return o.Timeout*(n+1) + o.RetryMaxWait*n
}

// call 发请求并把响应体解到 out；非 2xx、success=false、解码失败都归一成 *Error
func (c *Client) call(ctx context.Context, rq request, out any) error {
	start := time.Now()
	body, err := c.send(ctx, rq)
	if err == nil {
		err = decode(rq.op, body, out)
	}
	c.metrics.observe(rq.op, err, time.Since(start))
	if err != nil {
		c.log.Debug("call failed", zap.String("op", rq.op), zap.Error(err))
		return err
	}
	return nil
}

func (c *Client) send(ctx context.Context, rq request) ([]byte, error) {
	if rq.method != http.MethodGet {
		return c.guarded(ctx, rq)
	}
	if err := ctx.Err(); err != nil {
		return nil, &Error{Op: rq.op, Message: DefaultMessage, Err: err}
	}
	tok, err := c.creds.Load(ctx)
	if err != nil {
		tok = ""
	}
	// 相同 GET 并发合并；共享请求不跟随任何一个调用方取消，各自只等自己的 ctx
	ch := c.sf.DoChan(rq.key(tok), func() (any, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.shared)
		defer cancel()
		return c.guarded(sctx, rq)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, &Error{Op: rq.op, Message: DefaultMessage, Err: ctx.Err()}
	}
}

func (c *Client) guarded(ctx context.Context, rq request) ([]byte, error) {
	if c.cb == nil {
		return c.roundTrip(ctx, rq)
	}
	v, err := c.cb.Execute(func() (any, error) { return c.roundTrip(ctx, rq) })
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &Error{Op: rq.op, Message: DefaultMessage, Err: err}
	}
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (c *Client) roundTrip(ctx context.Context, rq request) ([]byte, error) {
	req := c.http.R().SetContext(ctx)
	if len(rq.query) > 0 {
		req.SetQueryParamsFromValues(rq.query)
	}
	if rq.body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(rq.body)
	}
	for _, f := range rq.files {
		req.SetFileReader(f.param, f.name, f.r)
	}
	resp, err := req.Execute(rq.method, rq.path)
	if err != nil {
		return nil, &Error{Op: rq.op, Message: DefaultMessage, Err: err}
	}
	if resp.IsError() {
		return nil, errorFromBody(rq.op, resp.StatusCode(), resp.Body())
	}
	return resp.Body(), nil
}

type status struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

func decode(op string, body []byte, out any) error {
	if len(body) == 0 {
		return nil
	}
	var st status
	if err := json.Unmarshal(body, &st); err != nil {
		return &Error{Op: op, Status: http.StatusOK, Message: DefaultMessage, Err: err}
	}
	if st.Success != nil && !*st.Success {
		return &Error{Op: op, Status: http.StatusOK, Message: messageOr(st.Message)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Op: op, Status: http.StatusOK, Message: DefaultMessage, Err: err}
	}
	return nil
}

func escape(id string) string { return url.PathEscape(id) }
