package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"skillmentor/internal/domain"
	"skillmentor/internal/service"
	"skillmentor/internal/transport/http/ez"
)

type CourseHandler struct{ svc *service.CourseService }

func NewCourseHandler(svc *service.CourseService) *CourseHandler { return &CourseHandler{svc: svc} }

type coursesPage struct {
	Courses    []domain.Course    `json:"courses"`
	Pagination *domain.Pagination `json:"pagination,omitempty"`
}

type courseOut struct {
	Course domain.Course `json:"course"`
}

func (h *CourseHandler) MountAPI(api ez.EZ) {
	type listQ struct {
		Category   string `form:"category"`
		Difficulty string `form:"difficulty"`
		Search     string `form:"search"`
		Page       int    `form:"page"`
		Limit      int    `form:"limit"`
		Sort       string `form:"sort"`
	}
	ez.RegisterAction(api, ez.Action[listQ, coursesPage]{
		Method: http.MethodGet,
		Path:   "/courses",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *listQ) (coursesPage, error) {
			f := domain.CourseFilter{
				Category:   in.Category,
				Difficulty: domain.Difficulty(in.Difficulty),
				Search:     in.Search,
				Page:       in.Page,
				Limit:      in.Limit,
				Sort:       in.Sort,
			}
			cs, pg, err := h.svc.List(c, f, ez.IsAdmin(c))
			return coursesPage{Courses: cs, Pagination: &pg}, err
		},
	})

	// 静态段要先于 /courses/:id 注册
	ez.RegisterAction(api, ez.Action[none, coursesPage]{
		Method: http.MethodGet,
		Path:   "/courses/user/recommendations",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *none) (coursesPage, error) {
			cs, err := h.svc.Recommendations(c, ez.UserID(c))
			return coursesPage{Courses: cs}, err
		},
	})

	ez.RegisterAction(api, ez.Action[none, courseOut]{
		Method: http.MethodGet,
		Path:   "/courses/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *none) (courseOut, error) {
			co, err := h.svc.Get(c, c.Param("id"), ez.IsAdmin(c))
			return courseOut{Course: co}, err
		},
	})

	ez.RegisterAction(api, ez.Action[domain.CourseDraft, courseOut]{
		Method:  http.MethodPost,
		Path:    "/courses",
		Binder:  ez.BindJSON,
		Roles:   adminOnly,
		Status:  http.StatusCreated,
		Message: "Course created successfully",
		Handler: func(c *gin.Context, in *domain.CourseDraft) (courseOut, error) {
			co, err := h.svc.Create(c, ez.UserID(c), *in)
			return courseOut{Course: co}, err
		},
	})

	ez.RegisterAction(api, ez.Action[domain.CoursePatch, courseOut]{
		Method:  http.MethodPut,
		Path:    "/courses/:id",
		Binder:  ez.BindJSON,
		Roles:   adminOnly,
		Message: "Course updated successfully",
		Handler: func(c *gin.Context, in *domain.CoursePatch) (courseOut, error) {
			co, err := h.svc.Update(c, c.Param("id"), *in)
			return courseOut{Course: co}, err
		},
	})

	ez.RegisterAction(api, ez.Action[none, none]{
		Method:  http.MethodDelete,
		Path:    "/courses/:id",
		Binder:  ez.BindNone,
		Roles:   adminOnly,
		Message: "Course deleted successfully",
		Handler: func(c *gin.Context, _ *none) (none, error) {
			return none{}, h.svc.Delete(c, c.Param("id"))
		},
	})
}
