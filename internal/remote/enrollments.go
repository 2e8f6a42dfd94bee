package remote

import (
	"context"
	"net/http"

	"skillmentor/internal/domain"
)

type EnrollmentsAPI struct{ c *Client }

type enrollmentData struct {
	Enrollment domain.Enrollment `json:"enrollment"`
}

type enrollmentsData struct {
	Enrollments []domain.Enrollment `json:"enrollments"`
}

func (a *EnrollmentsAPI) Enroll(ctx context.Context, courseID string) (Result[domain.Enrollment], error) {
	return a.one(ctx, request{
		op: "enrollments.enroll", method: http.MethodPost, path: "/enrollments",
		body: map[string]string{"courseId": courseID},
	})
}

// List 当前用户的全部选课
func (a *EnrollmentsAPI) List(ctx context.Context) (Result[[]domain.Enrollment], error) {
	var env envelope[enrollmentsData]
	if err := a.c.call(ctx, request{op: "enrollments.list", method: http.MethodGet, path: "/enrollments"}, &env); err != nil {
		return Result[[]domain.Enrollment]{}, err
	}
	return ok(env.Message, env.Data.Enrollments), nil
}

func (a *EnrollmentsAPI) Get(ctx context.Context, id string) (Result[domain.Enrollment], error) {
	return a.one(ctx, request{op: "enrollments.get", method: http.MethodGet, path: "/enrollments/" + escape(id)})
}

func (a *EnrollmentsAPI) UpdateProgress(ctx context.Context, id string, in domain.ProgressUpdate) (Result[domain.Enrollment], error) {
	return a.one(ctx, request{
		op: "enrollments.progress", method: http.MethodPut, path: "/enrollments/" + escape(id) + "/progress", body: in,
	})
}

func (a *EnrollmentsAPI) Unenroll(ctx context.Context, id string) (Result[Empty], error) {
	var env envelope[Empty]
	if err := a.c.call(ctx, request{op: "enrollments.unenroll", method: http.MethodDelete, path: "/enrollments/" + escape(id)}, &env); err != nil {
		return Result[Empty]{}, err
	}
	return ok(env.Message, Empty{}), nil
}

// ByCourse 当前用户在某门课的选课记录
func (a *EnrollmentsAPI) ByCourse(ctx context.Context, courseID string) (Result[domain.Enrollment], error) {
	return a.one(ctx, request{op: "enrollments.by_course", method: http.MethodGet, path: "/enrollments/course/" + escape(courseID)})
}

func (a *EnrollmentsAPI) one(ctx context.Context, rq request) (Result[domain.Enrollment], error) {
	var env envelope[enrollmentData]
	if err := a.c.call(ctx, rq, &env); err != nil {
		return Result[domain.Enrollment]{}, err
	}
	return ok(env.Message, env.Data.Enrollment), nil
}
