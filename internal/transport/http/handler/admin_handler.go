package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"skillmentor/internal/domain"
	"skillmentor/internal/service"
	"skillmentor/internal/transport/http/ez"
)

// AdminHandler 挂在 /admin 分组下，分组已要求 admin
type AdminHandler struct{ svc *service.AdminService }

func NewAdminHandler(svc *service.AdminService) *AdminHandler { return &AdminHandler{svc: svc} }

func (h *AdminHandler) MountAdmin(admin ez.EZ) {
	ez.RegisterAction(admin, ez.Action[none, domain.Dashboard]{
		Method: http.MethodGet,
		Path:   "/dashboard",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *none) (domain.Dashboard, error) {
			return h.svc.Dashboard(c)
		},
	})

	type tfQ struct {
		Timeframe string `form:"timeframe"`
	}
	ez.RegisterAction(admin, ez.Action[tfQ, domain.UserAnalytics]{
		Method: http.MethodGet,
		Path:   "/analytics/users",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *tfQ) (domain.UserAnalytics, error) {
			return h.svc.UserAnalytics(c, in.Timeframe)
		},
	})

	ez.RegisterAction(admin, ez.Action[none, domain.CourseAnalytics]{
		Method: http.MethodGet,
		Path:   "/analytics/courses",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *none) (domain.CourseAnalytics, error) {
			return h.svc.CourseAnalytics(c)
		},
	})

	type reportedOut struct {
		Reviews []domain.ReportedReview `json:"reviews"`
	}
	ez.RegisterAction(admin, ez.Action[none, reportedOut]{
		Method: http.MethodGet,
		Path:   "/reported-reviews",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *none) (reportedOut, error) {
			rs, err := h.svc.ReportedReviews(c)
			return reportedOut{Reviews: rs}, err
		},
	})

	type moderateIn struct {
		Action domain.Moderation `json:"action"`
	}
	ez.RegisterAction(admin, ez.Action[moderateIn, reviewOut]{
		Method:  http.MethodPut,
		Path:    "/reviews/:id/moderate",
		Binder:  ez.BindJSON,
		Message: "Review moderated successfully",
		Handler: func(c *gin.Context, in *moderateIn) (reviewOut, error) {
			r, err := h.svc.Moderate(c, c.Param("id"), in.Action)
			return reviewOut{Review: r}, err
		},
	})
}
