package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"skillmentor/internal/domain"
	"skillmentor/internal/service"
	"skillmentor/internal/transport/http/ez"
)

type UserHandler struct{ svc *service.UserService }

func NewUserHandler(svc *service.UserService) *UserHandler { return &UserHandler{svc: svc} }

var adminOnly = []string{string(domain.RoleAdmin)}

type usersPage struct {
	Users      []domain.Identity `json:"users"`
	Pagination domain.Pagination `json:"pagination"`
}

func (h *UserHandler) MountAPI(api ez.EZ) {
	type listQ struct {
		Page   int    `form:"page"`
		Limit  int    `form:"limit"`
		Role   string `form:"role"`
		Search string `form:"search"`
	}
	ez.RegisterAction(api, ez.Action[listQ, usersPage]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: ez.BindQuery,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, in *listQ) (usersPage, error) {
			us, pg, err := h.svc.List(c, domain.UserQuery{Page: in.Page, Limit: in.Limit, Role: domain.Role(in.Role), Search: in.Search})
			return usersPage{Users: us, Pagination: pg}, err
		},
	})

	ez.RegisterAction(api, ez.Action[domain.ProfileUpdate, userOnly]{
		Method:  http.MethodPut,
		Path:    "/users/profile",
		Binder:  ez.BindJSON,
		Auth:    true,
		Message: "Profile updated successfully",
		Handler: func(c *gin.Context, in *domain.ProfileUpdate) (userOnly, error) {
			u, err := h.svc.UpdateProfile(c, ez.UserID(c), *in)
			return userOnly{user: u}, err
		},
	})

	ez.RegisterAction(api, ez.Action[none, userOnly]{
		Method: http.MethodGet,
		Path:   "/users/:id",
		Binder: ez.BindNone,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, _ *none) (userOnly, error) {
			u, err := h.svc.Get(c, c.Param("id"))
			return userOnly{user: u}, err
		},
	})

	ez.RegisterAction(api, ez.Action[domain.UserUpdate, userOnly]{
		Method:  http.MethodPut,
		Path:    "/users/:id",
		Binder:  ez.BindJSON,
		Roles:   adminOnly,
		Message: "User updated successfully",
		Handler: func(c *gin.Context, in *domain.UserUpdate) (userOnly, error) {
			u, err := h.svc.Update(c, c.Param("id"), *in)
			return userOnly{user: u}, err
		},
	})

	type statusIn struct {
		IsActive *bool `json:"isActive"`
	}
	ez.RegisterAction(api, ez.Action[statusIn, userOnly]{
		Method: http.MethodPatch,
		Path:   "/users/:id/status",
		Binder: ez.BindJSON,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, in *statusIn) (userOnly, error) {
			if in.IsActive == nil {
				return userOnly{}, ez.BadRequest("isActive is required")
			}
			u, err := h.svc.SetStatus(c, c.Param("id"), *in.IsActive)
			msg := "User deactivated successfully"
			if *in.IsActive {
				msg = "User activated successfully"
			}
			return userOnly{user: u, msg: msg}, err
		},
	})

	ez.RegisterAction(api, ez.Action[none, none]{
		Method:  http.MethodDelete,
		Path:    "/users/:id",
		Binder:  ez.BindNone,
		Roles:   adminOnly,
		Message: "User deleted successfully",
		Handler: func(c *gin.Context, _ *none) (none, error) {
			if c.Param("id") == ez.UserID(c) {
				return none{}, ez.BadRequest("You cannot delete your own account")
			}
			return none{}, h.svc.Delete(c, c.Param("id"))
		},
	})
}
