package remote

import (
	"context"
	"net/http"

	"github.com/google/go-querystring/query"

	"skillmentor/internal/domain"
)

type CoursesAPI struct{ c *Client }

type courseData struct {
	Course domain.Course `json:"course"`
}

func (a *CoursesAPI) List(ctx context.Context, f domain.CourseFilter) (Result[CoursePage], error) {
	vals, err := query.Values(f)
	if err != nil {
		return Result[CoursePage]{}, &Error{Op: "courses.list", Message: DefaultMessage, Err: err}
	}
	var env envelope[CoursePage]
	if err := a.c.call(ctx, request{op: "courses.list", method: http.MethodGet, path: "/courses", query: vals}, &env); err != nil {
		return Result[CoursePage]{}, err
	}
	return ok(env.Message, env.Data), nil
}

func (a *CoursesAPI) Get(ctx context.Context, id string) (Result[domain.Course], error) {
	return a.one(ctx, request{op: "courses.get", method: http.MethodGet, path: "/courses/" + escape(id)})
}

func (a *CoursesAPI) Create(ctx context.Context, d domain.CourseDraft) (Result[domain.Course], error) {
	return a.one(ctx, request{op: "courses.create", method: http.MethodPost, path: "/courses", body: d})
}

func (a *CoursesAPI) Update(ctx context.Context, id string, p domain.CoursePatch) (Result[domain.Course], error) {
	return a.one(ctx, request{op: "courses.update", method: http.MethodPut, path: "/courses/" + escape(id), body: p})
}

func (a *CoursesAPI) Delete(ctx context.Context, id string) (Result[Empty], error) {
	var env envelope[Empty]
	if err := a.c.call(ctx, request{op: "courses.delete", method: http.MethodDelete, path: "/courses/" + escape(id)}, &env); err != nil {
		return Result[Empty]{}, err
	}
	return ok(env.Message, Empty{}), nil
}

// Recommendations 按当前用户推荐
func (a *CoursesAPI) Recommendations(ctx context.Context) (Result[[]domain.Course], error) {
	var env envelope[CoursePage]
	if err := a.c.call(ctx, request{op: "courses.recommendations", method: http.MethodGet, path: "/courses/user/recommendations"}, &env); err != nil {
		return Result[[]domain.Course]{}, err
	}
	return ok(env.Message, env.Data.Courses), nil
}

func (a *CoursesAPI) one(ctx context.Context, rq request) (Result[domain.Course], error) {
	var env envelope[courseData]
	if err := a.c.call(ctx, rq, &env); err != nil {
		return Result[domain.Course]{}, err
	}
	return ok(env.Message, env.Data.Course), nil
}
