package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"skillmentor/internal/domain"
	"skillmentor/internal/service"
	"skillmentor/internal/transport/http/ez"
)

type AuthHandler struct{ svc *service.AuthService }

func NewAuthHandler(svc *service.AuthService) *AuthHandler { return &AuthHandler{svc: svc} }

func (AuthHandler) Priority() int { return 10 }

func (h *AuthHandler) MountAPI(api ez.EZ) {
	ez.RegisterAction(api, ez.Action[domain.Registration, session]{
		Method:  http.MethodPost,
		Path:    "/auth/register",
		Binder:  ez.BindJSON,
		Status:  http.StatusCreated,
		Message: "Registration successful",
		Handler: func(c *gin.Context, in *domain.Registration) (session, error) {
			tok, u, err := h.svc.Register(c, *in)
			return session{token: tok, user: u}, err
		},
	})

	type loginIn struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	ez.RegisterAction(api, ez.Action[loginIn, session]{
		Method:  http.MethodPost,
		Path:    "/auth/login",
		Binder:  ez.BindJSON,
		Message: "Login successful",
		Handler: func(c *gin.Context, in *loginIn) (session, error) {
			tok, u, err := h.svc.Login(c, in.Email, in.Password)
			return session{token: tok, user: u}, err
		},
	})

	ez.RegisterAction(api, ez.Action[none, userOnly]{
		Method: http.MethodGet,
		Path:   "/auth/me",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *none) (userOnly, error) {
			u, err := h.svc.Me(c, ez.UserID(c))
			return userOnly{user: u}, err
		},
	})

	ez.RegisterAction(api, ez.Action[domain.PasswordChange, none]{
		Method:  http.MethodPut,
		Path:    "/auth/password",
		Binder:  ez.BindJSON,
		Auth:    true,
		Message: "Password updated successfully",
		Handler: func(c *gin.Context, in *domain.PasswordChange) (none, error) {
			return none{}, h.svc.ChangePassword(c, ez.UserID(c), *in)
		},
	})

	// token 无状态，登出只是确认
	ez.RegisterAction(api, ez.Action[none, none]{
		Method:  http.MethodPost,
		Path:    "/auth/logout",
		Binder:  ez.BindNone,
		Message: "Logged out successfully",
		Handler: func(*gin.Context, *none) (none, error) { return none{}, nil },
	})
}
