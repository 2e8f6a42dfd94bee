package remote

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"skillmentor/internal/domain"
)

type AdminAPI struct{ c *Client }

func (a *AdminAPI) Dashboard(ctx context.Context) (Result[domain.Dashboard], error) {
	var env envelope[domain.Dashboard]
	if err := a.c.call(ctx, request{op: "admin.dashboard", method: http.MethodGet, path: "/admin/dashboard"}, &env); err != nil {
		return Result[domain.Dashboard]{}, err
	}
	return ok(env.Message, env.Data), nil
}

func (a *AdminAPI) UserAnalytics(ctx context.Context, timeframe string) (Result[domain.UserAnalytics], error) {
	rq := request{op: "admin.user_analytics", method: http.MethodGet, path: "/admin/analytics/users"}
	if timeframe != "" {
		rq.query = url.Values{"timeframe": {timeframe}}
	}
	var env envelope[domain.UserAnalytics]
	if err := a.c.call(ctx, rq, &env); err != nil {
		return Result[domain.UserAnalytics]{}, err
	}
	return ok(env.Message, env.Data), nil
}

func (a *AdminAPI) CourseAnalytics(ctx context.Context) (Result[domain.CourseAnalytics], error) {
	var env envelope[domain.CourseAnalytics]
	if err := a.c.call(ctx, request{op: "admin.course_analytics", method: http.MethodGet, path: "/admin/analytics/courses"}, &env); err != nil {
		return Result[domain.CourseAnalytics]{}, err
	}
	return ok(env.Message, env.Data), nil
}

func (a *AdminAPI) ReportedReviews(ctx context.Context) (Result[[]domain.ReportedReview], error) {
	var env envelope[struct {
		Reviews []domain.ReportedReview `json:"reviews"`
	}]
	if err := a.c.call(ctx, request{op: "admin.reported_reviews", method: http.MethodGet, path: "/admin/reported-reviews"}, &env); err != nil {
		return Result[[]domain.ReportedReview]{}, err
	}
	return ok(env.Message, env.Data.Reviews), nil
}

func (a *AdminAPI) ModerateReview(ctx context.Context, id string, action domain.Moderation) (Result[domain.Review], error) {
	var env envelope[reviewData]
	err := a.c.call(ctx, request{
		op: "admin.moderate", method: http.MethodPut, path: "/admin/reviews/" + escape(id) + "/moderate",
		body: map[string]domain.Moderation{"action": action},
	}, &env)
	if err != nil {
		return Result[domain.Review]{}, err
	}
	return ok(env.Message, env.Data.Review), nil
}

type UploadsAPI struct{ c *Client }

// File 待上传文件
type File struct {
	Name string
	Body io.Reader
}

func (a *UploadsAPI) Upload(ctx context.Context, f File) (Result[domain.Upload], error) {
	var env envelope[domain.Upload]
	err := a.c.call(ctx, request{
		op: "uploads.single", method: http.MethodPost, path: "/upload",
		files: []upload{{param: "file", name: f.Name, r: f.Body}},
	}, &env)
	if err != nil {
		return Result[domain.Upload]{}, err
	}
	return ok(env.Message, env.Data), nil
}

func (a *UploadsAPI) UploadMany(ctx context.Context, files []File) (Result[[]domain.Upload], error) {
	ups := make([]upload, 0, len(files))
	for _, f := range files {
		ups = append(ups, upload{param: "files", name: f.Name, r: f.Body})
	}
	var env envelope[struct {
		Files []domain.Upload `json:"files"`
	}]
	if err := a.c.call(ctx, request{op: "uploads.multiple", method: http.MethodPost, path: "/upload/multiple", files: ups}, &env); err != nil {
		return Result[[]domain.Upload]{}, err
	}
	return ok(env.Message, env.Data.Files), nil
}
