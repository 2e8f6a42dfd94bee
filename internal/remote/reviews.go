package remote

import (
	"context"
	"net/http"

	"skillmentor/internal/domain"
)

type ReviewsAPI struct{ c *Client }

type reviewData struct {
	Review domain.Review `json:"review"`
}

type reviewsData struct {
	Reviews []domain.Review `json:"reviews"`
}

func (a *ReviewsAPI) Create(ctx context.Context, d domain.ReviewDraft) (Result[domain.Review], error) {
	return a.one(ctx, request{op: "reviews.create", method: http.MethodPost, path: "/reviews", body: d})
}

func (a *ReviewsAPI) ByCourse(ctx context.Context, courseID string) (Result[[]domain.Review], error) {
	return a.many(ctx, request{op: "reviews.by_course", method: http.MethodGet, path: "/reviews/course/" + escape(courseID)})
}

// Mine 当前用户写过的评价
func (a *ReviewsAPI) Mine(ctx context.Context) (Result[[]domain.Review], error) {
	return a.many(ctx, request{op: "reviews.mine", method: http.MethodGet, path: "/reviews/my-reviews"})
}

func (a *ReviewsAPI) Update(ctx context.Context, id string, e domain.ReviewEdit) (Result[domain.Review], error) {
	return a.one(ctx, request{op: "reviews.update", method: http.MethodPut, path: "/reviews/" + escape(id), body: e})
}

func (a *ReviewsAPI) Delete(ctx context.Context, id string) (Result[Empty], error) {
	var env envelope[Empty]
	if err := a.c.call(ctx, request{op: "reviews.delete", method: http.MethodDelete, path: "/reviews/" + escape(id)}, &env); err != nil {
		return Result[Empty]{}, err
	}
	return ok(env.Message, Empty{}), nil
}

func (a *ReviewsAPI) MarkHelpful(ctx context.Context, id string) (Result[domain.Review], error) {
	return a.one(ctx, request{op: "reviews.helpful", method: http.MethodPost, path: "/reviews/" + escape(id) + "/helpful"})
}

func (a *ReviewsAPI) Report(ctx context.Context, id, reason string) (Result[Empty], error) {
	var env envelope[Empty]
	err := a.c.call(ctx, request{
		op: "reviews.report", method: http.MethodPost, path: "/reviews/" + escape(id) + "/report",
		body: map[string]string{"reason": reason},
	}, &env)
	if err != nil {
		return Result[Empty]{}, err
	}
	return ok(env.Message, Empty{}), nil
}

func (a *ReviewsAPI) one(ctx context.Context, rq request) (Result[domain.Review], error) {
	var env envelope[reviewData]
	if err := a.c.call(ctx, rq, &env); err != nil {
		return Result[domain.Review]{}, err
	}
	return ok(env.Message, env.Data.Review), nil
}

func (a *ReviewsAPI) many(ctx context.Context, rq request) (Result[[]domain.Review], error) {
	var env envelope[reviewsData]
	if err := a.c.call(ctx, rq, &env); err != nil {
		return Result[[]domain.Review]{}, err
	}
	return ok(env.Message, env.Data.Reviews), nil
}
