package user

import (
	"time"

	"gorm.io/gorm"

	"skillmentor/internal/domain"
)

type UserModel struct {
	ID            string          `gorm:"primaryKey;type:varchar(32)"`
	Email         string          `gorm:"uniqueIndex;size:255;not null"`
	Name          string          `gorm:"size:64;not null"`
	PasswordHash  string          `gorm:"size:100;not null"`
	Role          string          `gorm:"size:16;not null;default:student;index"`
	IsActive      bool            `gorm:"not null;default:true"`
	EmailVerified bool            `gorm:"not null;default:false"`
	Profile       *domain.Profile `gorm:"serializer:json"`
	LastLoginAt   *time.Time

	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (UserModel) TableName() string { return "users" }

// ToDomain 对外视图，不带密码哈希
func (m UserModel) ToDomain() domain.Identity {
	return domain.Identity{
		ID:            m.ID,
		Email:         m.Email,
		Name:          m.Name,
		Role:          domain.Role(m.Role),
		IsActive:      m.IsActive,
		EmailVerified: m.EmailVerified,
		Profile:       m.Profile,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
