package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillmentor/internal/core/config"
	"skillmentor/internal/credential"
	"skillmentor/internal/domain"
)

func newTestClient(t *testing.T, h http.Handler, token string, mod ...func(*Options)) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	o := Options{BaseURL: srv.URL + "/api", Timeout: 2 * time.Second}
	for _, m := range mod {
		m(&o)
	}
	return New(o, credential.NewMemoryStore(token), nil)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func TestBearerAndRequestIDAttached(t *testing.T) {
	var auth, rid string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		rid = r.Header.Get(HeaderRequestID)
		assert.Equal(t, "/api/auth/me", r.URL.Path)
		writeJSON(w, 200, map[string]any{"success": true, "user": map[string]any{"_id": "u1", "role": "student", "email": "s@x.io"}})
	}), "tok-123")

	res, err := c.Auth.Me(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "u1", res.Data.ID)
	assert.Equal(t, domain.RoleStudent, res.Data.Role)
	assert.Equal(t, "Bearer tok-123", auth)
	assert.NotEmpty(t, rid)
}

func TestNoTokenNoAuthorizationHeader(t *testing.T) {
	var has bool
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, has = r.Header["Authorization"]
		writeJSON(w, 200, map[string]any{"success": true, "data": map[string]any{"courses": []any{}, "pagination": map[string]any{"page": 1}}})
	}), "")
	_, err := c.Courses.List(context.Background(), domain.CourseFilter{})
	require.NoError(t, err)
	assert.False(t, has)
}

func TestTokenReadOnEveryRequest(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		writeJSON(w, 200, map[string]any{"success": true, "user": map[string]any{"_id": "u1"}})
	}))
	defer srv.Close()
	store := credential.NewMemoryStore("")
	c := New(Options{BaseURL: srv.URL + "/api"}, store, nil)

	_, err := c.Auth.Me(context.Background())
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), "fresh"))
	_, err = c.Auth.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"", "Bearer fresh"}, seen)
}

func TestErrorNormalization(t *testing.T) {
	cases := []struct {
		name   string
		code   int
		body   string
		status int
		msg    string
	}{
		{"backend message", 401, `{"success":false,"message":"Invalid credentials"}`, 401, "Invalid credentials"},
		{"no message", 500, `oops`, 500, DefaultMessage},
		{"error field", 404, `{"error":"Course not found"}`, 404, "Course not found"},
		{"200 but success false", 200, `{"success":false,"message":"nope"}`, 200, "nope"},
		{"200 not json", 200, `<html>`, 200, DefaultMessage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.code)
				_, _ = io.WriteString(w, tc.body)
			}), "")
			_, err := c.Auth.Login(context.Background(), "a@b.c", "pw")
			require.Error(t, err)
			var re *Error
			require.ErrorAs(t, err, &re)
			assert.Equal(t, "auth.login", re.Op)
			assert.Equal(t, tc.status, re.Status)
			assert.Equal(t, tc.msg, re.Message)
			assert.Equal(t, tc.msg, Message(err))
		})
	}
}

func TestTransportErrorIsNormalized(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	c := New(Options{BaseURL: url, Timeout: time.Second}, nil, nil)
	_, err := c.Courses.Get(context.Background(), "c1")
	var re *Error
	require.ErrorAs(t, err, &re)
	assert.Zero(t, re.Status)
	assert.Equal(t, DefaultMessage, re.Message)
	assert.NotNil(t, re.Err)
}

func TestStatusHelpers(t *testing.T) {
	assert.True(t, IsUnauthorized(&Error{Status: 401}))
	assert.True(t, IsNotFound(&Error{Status: 404}))
	assert.True(t, IsConflict(&Error{Status: 409}))
	assert.Zero(t, StatusOf(errors.New("x")))
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, DefaultMessage, Message(context.Canceled))
}

func TestGetIsRetriedOnRetryableStatus(t *testing.T) {
	var hits int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, 200, map[string]any{"success": true, "data": map[string]any{"course": map[string]any{"_id": "c1", "title": "Go"}}})
	}), "", func(o *Options) {
		o.RetryCount = 3
		o.RetryWait = time.Millisecond
		o.RetryMaxWait = 5 * time.Millisecond
	})

	res, err := c.Courses.Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "Go", res.Data.Title)
	assert.EqualValues(t, 3, atomic.LoadInt32(&hits))
}

func TestWritesAreNotRetried(t *testing.T) {
	var hits int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}), "", func(o *Options) {
		o.RetryCount = 3
		o.RetryWait = time.Millisecond
		o.RetryMaxWait = 5 * time.Millisecond
	})

	_, err := c.Enrollments.Enroll(context.Background(), "c1")
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, StatusOf(err))
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var hits int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		writeJSON(w, 404, map[string]any{"success": false, "message": "Course not found"})
	}), "", func(o *Options) {
		o.RetryCount = 3
		o.RetryWait = time.Millisecond
		o.RetryMaxWait = 5 * time.Millisecond
	})
	_, err := c.Courses.Get(context.Background(), "missing")
	assert.True(t, IsNotFound(err))
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	var hits int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}), "", func(o *Options) {
		o.Breaker = &gobreaker.Settings{Name: "test", Timeout: time.Minute, ReadyToTrip: tripOnRatio(2, 0.5)}
	})

	for i := 0; i < 2; i++ {
		_, err := c.Reviews.Create(context.Background(), domain.ReviewDraft{CourseID: "c1", Rating: 5, Comment: "x"})
		assert.Equal(t, 500, StatusOf(err))
	}
	_, err := c.Reviews.Create(context.Background(), domain.ReviewDraft{CourseID: "c1", Rating: 5, Comment: "x"})
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, DefaultMessage, Message(err))
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))
}

func TestBreakerIgnoresClientErrors(t *testing.T) {
	assert.True(t, breakerSuccess(nil))
	assert.True(t, breakerSuccess(&Error{Status: 400}))
	assert.True(t, breakerSuccess(&Error{Status: 404}))
	assert.False(t, breakerSuccess(&Error{Status: 429}))
	assert.False(t, breakerSuccess(&Error{Status: 502}))
	assert.False(t, breakerSuccess(&Error{Err: errors.New("dial")}))
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 3*time.Second, parseRetryAfter("3", now))
	assert.Zero(t, parseRetryAfter("", now))
	assert.Zero(t, parseRetryAfter("-1", now))
	assert.Equal(t, 10*time.Second, parseRetryAfter(now.Add(10*time.Second).Format(http.TimeFormat), now))
	assert.Zero(t, parseRetryAfter("garbage", now))
}

func TestCourseFilterEncodedAsQuery(t *testing.T) {
	var q string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q = r.URL.RawQuery
		writeJSON(w, 200, map[string]any{"success": true, "data": map[string]any{
			"courses":    []any{map[string]any{"_id": "A", "rating": 4}},
			"pagination": map[string]any{"page": 2, "limit": 5, "total": 6, "pages": 2},
		}})
	}), "")
	res, err := c.Courses.List(context.Background(), domain.CourseFilter{Category: "Web Development", Difficulty: domain.Beginner, Page: 2, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, "category=Web+Development&difficulty=Beginner&limit=5&page=2", q)
	require.Len(t, res.Data.Courses, 1)
	assert.Equal(t, domain.Pagination{Page: 2, Limit: 5, Total: 6, Pages: 2}, res.Data.Pagination)
}

func TestEnrollmentsDecodeBothRelationForms(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{"success": true, "data": map[string]any{"enrollments": []any{
			map[string]any{"_id": "e1", "student": "s1", "course": map[string]any{"_id": "A", "title": "Go"}, "progress": 40},
			map[string]any{"_id": "e2", "student": map[string]any{"_id": "s1"}, "course": "B", "progress": 100},
		}}})
	}), "")
	res, err := c.Enrollments.List(context.Background())
	require.NoError(t, err)
	got := make([][2]string, 0, len(res.Data))
	for _, e := range res.Data {
		got = append(got, [2]string{e.Student.ID(), e.Course.ID()})
	}
	if diff := cmp.Diff([][2]string{{"s1", "A"}, {"s1", "B"}}, got); diff != "" {
		t.Fatalf("relations mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, res.Data[0].Course.Embedded())
	assert.False(t, res.Data[1].Course.Embedded())
}

func TestRequestBodies(t *testing.T) {
	var method, path string
	var body map[string]any
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		body = nil
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, 200, map[string]any{"success": true, "data": map[string]any{"enrollment": map[string]any{"_id": "e1", "progress": 60}}})
	}), "")

	idx := 2
	res, err := c.Enrollments.UpdateProgress(context.Background(), "e1", domain.ProgressUpdate{Progress: 60, CompletedModuleIndex: &idx})
	require.NoError(t, err)
	assert.Equal(t, 60, res.Data.Progress)
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/api/enrollments/e1/progress", path)
	assert.Equal(t, map[string]any{"progress": float64(60), "completedModuleIndex": float64(2)}, body)

	_, err = c.Users.SetStatus(context.Background(), "u/1", false)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, method)
	assert.Equal(t, "/api/users/u/1/status", path)
	assert.Equal(t, map[string]any{"isActive": false}, body)
}

func TestUploadSendsMultipart(t *testing.T) {
	var name, content string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		b, _ := io.ReadAll(f)
		name, content = hdr.Filename, string(b)
		writeJSON(w, 200, map[string]any{"success": true, "data": map[string]any{"url": "/uploads/x.png", "filename": hdr.Filename, "size": len(b)}})
	}), "")
	res, err := c.Uploads.Upload(context.Background(), File{Name: "x.png", Body: strings.NewReader("PNG")})
	require.NoError(t, err)
	assert.Equal(t, "x.png", name)
	assert.Equal(t, "PNG", content)
	assert.Equal(t, "/uploads/x.png", res.Data.URL)
}

func TestMetricsRecordOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/courses/bad" {
			w.WriteHeader(404)
			return
		}
		writeJSON(w, 200, map[string]any{"success": true, "data": map[string]any{"course": map[string]any{"_id": "ok"}}})
	}), "", func(o *Options) { o.Registerer = reg })

	_, _ = c.Courses.Get(context.Background(), "ok")
	_, _ = c.Courses.Get(context.Background(), "bad")
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.calls.WithLabelValues("courses.get", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.calls.WithLabelValues("courses.get", "404")))
}

func TestCanceledContext(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{"success": true})
	}), "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Reviews.Mine(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSharedGetSurvivesSiblingCancel(t *testing.T) {
	var hits int32
	arrived := make(chan struct{}, 1)
	release := make(chan struct{})
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		arrived <- struct{}{}
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		writeJSON(w, 200, map[string]any{"success": true, "user": map[string]any{"_id": "u1"}})
	}), "tok")

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := c.Auth.Me(ctxA)
		errA <- err
	}()
	<-arrived

	type result struct {
		id  string
		err error
	}
	resB := make(chan result, 1)
	go func() {
		res, err := c.Auth.Me(context.Background())
		resB <- result{res.Data.ID, err}
	}()
	// 等 B 挂到同一个请求上
	time.Sleep(50 * time.Millisecond)

	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)

	close(release)
	b := <-resB
	require.NoError(t, b.err)
	assert.Equal(t, "u1", b.id)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestSharedGetKeyIncludesToken(t *testing.T) {
	rq := request{method: http.MethodGet, path: "/auth/me"}
	assert.Equal(t, rq.key("a"), rq.key("a"))
	assert.NotEqual(t, rq.key("a"), rq.key("b"))
	assert.NotEqual(t, rq.key(""), rq.key("a"))
	assert.NotContains(t, rq.key("secret-token"), "secret-token")
}

func TestGetsWithDifferentTokensAreNotMerged(t *testing.T) {
	var hits int32
	release := make(chan struct{})
	store := credential.NewMemoryStore("first")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		<-release
		id := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		writeJSON(w, 200, map[string]any{"success": true, "user": map[string]any{"_id": id}})
	}))
	defer srv.Close()
	c := New(Options{BaseURL: srv.URL + "/api", Timeout: 2 * time.Second}, store, nil)

	first := make(chan string, 1)
	go func() {
		res, _ := c.Auth.Me(context.Background())
		first <- res.Data.ID
	}()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&hits) == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, store.Save(context.Background(), "second"))
	second := make(chan string, 1)
	go func() {
		res, _ := c.Auth.Me(context.Background())
		second <- res.Data.ID
	}()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&hits) == 2 }, time.Second, 5*time.Millisecond)

	close(release)
	assert.Equal(t, "first", <-first)
	assert.Equal(t, "second", <-second)
}

func TestOptionsFromConfig(t *testing.T) {
	o := OptionsFromConfig(config.API{
		BaseURL: "http://x/api", TimeoutSec: 5, RetryCount: 2, RetryWaitMs: 100, RetryMaxWaitMs: 1000,
		RateLimitRPS: 10, RateLimitBurst: 20,
		Breaker: config.Breaker{Enable: true, MaxRequests: 3, IntervalSec: 30, TimeoutSec: 10, MinRequests: 4, FailureRatio: 0.5},
	})
	assert.Equal(t, 5*time.Second, o.Timeout)
	assert.Equal(t, 100*time.Millisecond, o.RetryWait)
	require.NotNil(t, o.Breaker)
	assert.Equal(t, uint32(3), o.Breaker.MaxRequests)
	assert.False(t, o.Breaker.ReadyToTrip(gobreaker.Counts{Requests: 3, TotalFailures: 3}))
	assert.True(t, o.Breaker.ReadyToTrip(gobreaker.Counts{Requests: 4, TotalFailures: 2}))

	assert.Nil(t, OptionsFromConfig(config.API{}).Breaker)
}
