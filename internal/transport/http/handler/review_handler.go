package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"skillmentor/internal/domain"
	"skillmentor/internal/service"
	"skillmentor/internal/transport/http/ez"
)

type ReviewHandler struct{ svc *service.ReviewService }

func NewReviewHandler(svc *service.ReviewService) *ReviewHandler { return &ReviewHandler{svc: svc} }

type reviewOut struct {
	Review domain.Review `json:"review"`
}

type reviewsOut struct {
	Reviews []domain.Review `json:"reviews"`
}

func (h *ReviewHandler) MountAPI(api ez.EZ) {
	ez.RegisterAction(api, ez.Action[domain.ReviewDraft, reviewOut]{
		Method:  http.MethodPost,
		Path:    "/reviews",
		Binder:  ez.BindJSON,
		Auth:    true,
		Status:  http.StatusCreated,
		Message: "Review added successfully",
		Handler: func(c *gin.Context, in *domain.ReviewDraft) (reviewOut, error) {
			r, err := h.svc.Create(c, ez.UserID(c), *in)
			return reviewOut{Review: r}, err
		},
	})

	ez.RegisterAction(api, ez.Action[none, reviewsOut]{
		Method: http.MethodGet,
		Path:   "/reviews/course/:courseId",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *none) (reviewsOut, error) {
			rs, err := h.svc.ByCourse(c, c.Param("courseId"))
			return reviewsOut{Reviews: rs}, err
		},
	})

	ez.RegisterAction(api, ez.Action[none, reviewsOut]{
		Method: http.MethodGet,
		Path:   "/reviews/my-reviews",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *none) (reviewsOut, error) {
			rs, err := h.svc.Mine(c, ez.UserID(c))
			return reviewsOut{Reviews: rs}, err
		},
	})

	ez.RegisterAction(api, ez.Action[domain.ReviewEdit, reviewOut]{
		Method:  http.MethodPut,
		Path:    "/reviews/:id",
		Binder:  ez.BindJSON,
		Auth:    true,
		Message: "Review updated successfully",
		Handler: func(c *gin.Context, in *domain.ReviewEdit) (reviewOut, error) {
			r, err := h.svc.Update(c, ez.UserID(c), c.Param("id"), *in)
			return reviewOut{Review: r}, err
		},
	})

	ez.RegisterAction(api, ez.Action[none, none]{
		Method:  http.MethodDelete,
		Path:    "/reviews/:id",
		Binder:  ez.BindNone,
		Auth:    true,
		Message: "Review deleted successfully",
		Handler: func(c *gin.Context, _ *none) (none, error) {
			return none{}, h.svc.Delete(c, ez.UserID(c), ez.IsAdmin(c), c.Param("id"))
		},
	})

	ez.RegisterAction(api, ez.Action[none, reviewOut]{
		Method:  http.MethodPost,
		Path:    "/reviews/:id/helpful",
		Binder:  ez.BindNone,
		Auth:    true,
		Message: "Review marked as helpful",
		Handler: func(c *gin.Context, _ *none) (reviewOut, error) {
			r, err := h.svc.MarkHelpful(c, ez.UserID(c), c.Param("id"))
			return reviewOut{Review: r}, err
		},
	})

	type reportIn struct {
		Reason string `json:"reason"`
	}
	ez.RegisterAction(api, ez.Action[reportIn, none]{
		Method:  http.MethodPost,
		Path:    "/reviews/:id/report",
		Binder:  ez.BindJSON,
		Auth:    true,
		Message: "Review reported successfully",
		Handler: func(c *gin.Context, in *reportIn) (none, error) {
			return none{}, h.svc.Report(c, ez.UserID(c), c.Param("id"), in.Reason)
		},
	})
}
