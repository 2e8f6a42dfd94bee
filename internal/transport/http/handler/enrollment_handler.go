package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"skillmentor/internal/domain"
	"skillmentor/internal/service"
	"skillmentor/internal/transport/http/ez"
)

type EnrollmentHandler struct{ svc *service.EnrollmentService }

func NewEnrollmentHandler(svc *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{svc: svc}
}

type enrollmentOut struct {
	Enrollment domain.Enrollment `json:"enrollment"`
}

func (h *EnrollmentHandler) MountAPI(api ez.EZ) {
	type enrollIn struct {
		CourseID string `json:"courseId"`
	}
	ez.RegisterAction(api, ez.Action[enrollIn, enrollmentOut]{
		Method:  http.MethodPost,
		Path:    "/enrollments",
		Binder:  ez.BindJSON,
		Auth:    true,
		Status:  http.StatusCreated,
		Message: "Successfully enrolled in course",
		Handler: func(c *gin.Context, in *enrollIn) (enrollmentOut, error) {
			if in.CourseID == "" {
				return enrollmentOut{}, ez.BadRequest("Course ID is required")
			}
			e, err := h.svc.Enroll(c, ez.UserID(c), in.CourseID)
			return enrollmentOut{Enrollment: e}, err
		},
	})

	type listOut struct {
		Enrollments []domain.Enrollment `json:"enrollments"`
	}
	ez.RegisterAction(api, ez.Action[none, listOut]{
		Method: http.MethodGet,
		Path:   "/enrollments",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *none) (listOut, error) {
			es, err := h.svc.List(c, ez.UserID(c))
			return listOut{Enrollments: es}, err
		},
	})

	ez.RegisterAction(api, ez.Action[none, enrollmentOut]{
		Method: http.MethodGet,
		Path:   "/enrollments/course/:courseId",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *none) (enrollmentOut, error) {
			e, err := h.svc.ByCourse(c, ez.UserID(c), c.Param("courseId"))
			return enrollmentOut{Enrollment: e}, err
		},
	})

	ez.RegisterAction(api, ez.Action[none, enrollmentOut]{
		Method: http.MethodGet,
		Path:   "/enrollments/:id",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *none) (enrollmentOut, error) {
			e, err := h.svc.Get(c, ez.UserID(c), ez.IsAdmin(c), c.Param("id"))
			return enrollmentOut{Enrollment: e}, err
		},
	})

	ez.RegisterAction(api, ez.Action[domain.ProgressUpdate, enrollmentOut]{
		Method:  http.MethodPut,
		Path:    "/enrollments/:id/progress",
		Binder:  ez.BindJSON,
		Auth:    true,
		Message: "Progress updated successfully",
		Handler: func(c *gin.Context, in *domain.ProgressUpdate) (enrollmentOut, error) {
			e, err := h.svc.UpdateProgress(c, ez.UserID(c), c.Param("id"), *in)
			return enrollmentOut{Enrollment: e}, err
		},
	})

	ez.RegisterAction(api, ez.Action[none, none]{
		Method:  http.MethodDelete,
		Path:    "/enrollments/:id",
		Binder:  ez.BindNone,
		Auth:    true,
		Message: "Successfully unenrolled from course",
		Handler: func(c *gin.Context, _ *none) (none, error) {
			return none{}, h.svc.Unenroll(c, ez.UserID(c), c.Param("id"))
		},
	})
}
