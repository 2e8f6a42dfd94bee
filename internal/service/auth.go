package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"skillmentor/internal/core/auth"
	"skillmentor/internal/domain"
	"skillmentor/internal/feature/user"
	"skillmentor/internal/repo"
	"skillmentor/pkg/utils"
)

type AuthService struct {
	users *repo.UserRepo
	jwt   *auth.JWTer
	log   *zap.Logger
}

func NewAuthService(db *gorm.DB, j *auth.JWTer, l *zap.Logger) *AuthService {
	return &AuthService{users: repo.NewUserRepo(db), jwt: j, log: l}
}

// Register 新学员注册并直接登录
func (s *AuthService) Register(ctx context.Context, in domain.Registration) (string, domain.Identity, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if err := domain.Validate(in); err != nil {
		return "", domain.Identity{}, err
	}
	exist, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return "", domain.Identity{}, err
	}
	if exist != nil {
		return "", domain.Identity{}, fail(ErrConflict, "User already exists with this email")
	}
	hash := utils.HashPassword(in.Password)
	if hash == "" {
		return "", domain.Identity{}, fail(ErrInvalid, "Password cannot be used")
	}
	u := user.UserModel{
		ID:           utils.NewID(),
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
		Role:         string(domain.RoleStudent),
		IsActive:     true,
	}
	if in.ContactNo != "" {
		u.Profile = &domain.Profile{ContactNo: in.ContactNo}
	}
	if err := s.users.Create(ctx, &u); err != nil {
		if repo.IsDuplicate(err) {
			return "", domain.Identity{}, fail(ErrConflict, "User already exists with this email")
		}
		return "", domain.Identity{}, err
	}
	return s.issue(u)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, domain.Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", domain.Identity{}, fail(ErrInvalid, "Email and password are required")
	}
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", domain.Identity{}, err
	}
	if u == nil || !utils.CheckPassword(password, u.PasswordHash) {
		return "", domain.Identity{}, fail(ErrUnauthorized, "Invalid email or password")
	}
	if !u.IsActive {
		return "", domain.Identity{}, fail(ErrForbidden, "Account is deactivated")
	}
	now := time.Now()
	if _, err := s.users.Updates(ctx, u.ID, map[string]any{"last_login_at": now}); err != nil {
		s.log.Warn("record last login", zap.String("uid", u.ID), zap.Error(err))
	}
	return s.issue(*u)
}

func (s *AuthService) Me(ctx context.Context, uid string) (domain.Identity, error) {
	u, err := s.users.FindByID(ctx, uid)
	if err != nil {
		return domain.Identity{}, err
	}
	if u == nil {
		return domain.Identity{}, fail(ErrNotFound, "User not found")
	}
	return u.ToDomain(), nil
}

func (s *AuthService) ChangePassword(ctx context.Context, uid string, in domain.PasswordChange) error {
	if err := domain.Validate(in); err != nil {
		return err
	}
	u, err := s.users.FindByID(ctx, uid)
	if err != nil {
		return err
	}
	if u == nil {
		return fail(ErrNotFound, "User not found")
	}
	if !utils.CheckPassword(in.CurrentPassword, u.PasswordHash) {
		return fail(ErrInvalid, "Current password is incorrect")
	}
	_, err = s.users.Updates(ctx, uid, map[string]any{"password_hash": utils.HashPassword(in.NewPassword)})
	return err
}

// EnsureAdmin 启动时种一个管理员账号；已存在则跳过
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password, name string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}
	exist, err := s.users.FindByEmail(ctx, email)
	if err != nil || exist != nil {
		return err
	}
	if name == "" {
		name = "Admin User"
	}
	u := user.UserModel{
		ID:            utils.NewID(),
		Email:         email,
		Name:          name,
		PasswordHash:  utils.HashPassword(password),
		Role:          string(domain.RoleAdmin),
		IsActive:      true,
		EmailVerified: true,
	}
	if err := s.users.Create(ctx, &u); err != nil {
		return err
	}
	s.log.Info("admin account seeded", zap.String("email", email))
	return nil
}

func (s *AuthService) issue(u user.UserModel) (string, domain.Identity, error) {
	tok, err := s.jwt.Issue(u.ID, u.Role)
	if err != nil {
		return "", domain.Identity{}, err
	}
	return tok, u.ToDomain(), nil
}
