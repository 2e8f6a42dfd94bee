package enrollment

import (
	"time"

	"skillmentor/internal/domain"
)

// EnrollmentModel 学员 × 课程唯一；退课直接物理删除，允许重新报名
type EnrollmentModel struct {
	ID                string                   `gorm:"primaryKey;type:varchar(32)"`
	StudentID         string                   `gorm:"size:32;not null;uniqueIndex:idx_enrollment_student_course"`
	CourseID          string                   `gorm:"size:32;not null;uniqueIndex:idx_enrollment_student_course;index"`
	Progress          int                      `gorm:"not null;default:0"`
	CompletedModules  []domain.CompletedModule `gorm:"serializer:json"`
	StartDate         time.Time
	CompletionDate    *time.Time
	CertificateIssued bool   `gorm:"not null;default:false"`
	CertificateNumber string `gorm:"size:32"`
	CertificateURL    string `gorm:"size:255"`
	LastAccessedAt    time.Time
	IsActive          bool `gorm:"not null;default:true"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (EnrollmentModel) TableName() string { return "enrollments" }

// ToDomain course 不为 nil 时内嵌课程对象，否则只给 id
func (m EnrollmentModel) ToDomain(c *domain.Course) domain.Enrollment {
	e := domain.Enrollment{
		ID:                m.ID,
		Student:           domain.RefOf[domain.Identity](m.StudentID),
		Course:            domain.RefOf[domain.Course](m.CourseID),
		Progress:          m.Progress,
		CompletedModules:  m.CompletedModules,
		StartDate:         m.StartDate,
		CompletionDate:    m.CompletionDate,
		CertificateIssued: m.CertificateIssued,
		CertificateNumber: m.CertificateNumber,
		CertificateURL:    m.CertificateURL,
		LastAccessedAt:    m.LastAccessedAt,
		IsActive:          m.IsActive,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
	if e.CompletedModules == nil {
		e.CompletedModules = []domain.CompletedModule{}
	}
	if c != nil {
		e.Course = domain.Embed(*c)
	}
	return e
}

// ModuleDone 模块是否已记录过
func (m EnrollmentModel) ModuleDone(idx int) bool {
	for _, cm := range m.CompletedModules {
		if cm.ModuleIndex == idx {
			return true
		}
	}
	return false
}
