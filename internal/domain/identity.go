package domain

import "time"

type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// Profile 学员资料（全部可选）
type Profile struct {
	FatherName       string   `json:"fatherName,omitempty"`
	MotherName       string   `json:"motherName,omitempty"`
	ContactNo        string   `json:"contactNo,omitempty"`
	Education        string   `json:"education,omitempty"`
	University       string   `json:"university,omitempty"`
	Degree           string   `json:"degree,omitempty"`
	Major            string   `json:"major,omitempty"`
	YearOfCompletion string   `json:"yearOfCompletion,omitempty"`
	Skills           []string `json:"skills,omitempty"`
	AreasOfInterest  []string `json:"areasOfInterest,omitempty"`
}

// Identity 用户账号（student / admin）
type Identity struct {
	ID            string    `json:"_id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Role          Role      `json:"role"`
	IsActive      bool      `json:"isActive"`
	EmailVerified bool      `json:"emailVerified"`
	Profile       *Profile  `json:"profile,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (u Identity) Key() string { return u.ID }

func (u Identity) IsAdmin() bool { return u.Role == RoleAdmin }

// Registration 注册表单
type Registration struct {
	Name      string `json:"name" validate:"required,max=64"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	ContactNo string `json:"contactNo,omitempty" validate:"omitempty,max=32"`
}

// ProfileUpdate 部分更新；nil 字段不发送
type ProfileUpdate struct {
	Name    *string  `json:"name,omitempty" validate:"omitempty,min=1,max=64"`
	Profile *Profile `json:"profile,omitempty"`
}

// UserUpdate 管理端编辑学员
type UserUpdate struct {
	Name     *string  `json:"name,omitempty" validate:"omitempty,min=1,max=64"`
	Email    *string  `json:"email,omitempty" validate:"omitempty,email"`
	IsActive *bool    `json:"isActive,omitempty"`
	Profile  *Profile `json:"profile,omitempty"`
}

// Pagination 列表分页信息
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// NewPagination 由总数推出页数；limit<=0 时视为单页
func NewPagination(page, limit int, total int64) Pagination {
	pages := 1
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	if pages == 0 {
		pages = 1
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// UserQuery 管理端学员列表查询
type UserQuery struct {
	Page   int    `url:"page,omitempty"`
	Limit  int    `url:"limit,omitempty"`
	Role   Role   `url:"role,omitempty"`
	Search string `url:"search,omitempty"`
}

// PasswordChange 修改密码
type PasswordChange struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}
