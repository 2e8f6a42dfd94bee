package review

import (
	"time"

	"skillmentor/internal/domain"
)

type ReviewModel struct {
	ID           string `gorm:"primaryKey;type:varchar(32)"`
	StudentID    string `gorm:"size:32;not null;uniqueIndex:idx_review_student_course"`
	CourseID     string `gorm:"size:32;not null;uniqueIndex:idx_review_student_course;index"`
	Rating       int    `gorm:"not null"`
	Comment      string `gorm:"type:text"`
	IsApproved   bool   `gorm:"not null;default:true"`
	HelpfulVotes int    `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (ReviewModel) TableName() string { return "reviews" }

// ReportModel 举报记录；审核后 Resolved
type ReportModel struct {
	ID         string    `gorm:"primaryKey;type:varchar(32)"`
	ReviewID   string    `gorm:"size:32;not null;index"`
	ReportedBy string    `gorm:"size:32;not null"`
	Reason     string    `gorm:"size:500"`
	Resolved   bool      `gorm:"not null;default:false;index"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (ReportModel) TableName() string { return "review_reports" }

// HelpfulModel 每人每条评价只能点一次
type HelpfulModel struct {
	ReviewID  string    `gorm:"primaryKey;type:varchar(32)"`
	UserID    string    `gorm:"primaryKey;type:varchar(32)"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (HelpfulModel) TableName() string { return "review_helpful_votes" }

// ToDomain student 不为 nil 时内嵌学员（课程页要显示名字）
func (m ReviewModel) ToDomain(student *domain.Identity) domain.Review {
	r := domain.Review{
		ID:           m.ID,
		Student:      domain.RefOf[domain.Identity](m.StudentID),
		Course:       domain.RefOf[domain.Course](m.CourseID),
		Rating:       m.Rating,
		Comment:      m.Comment,
		IsApproved:   m.IsApproved,
		HelpfulVotes: m.HelpfulVotes,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	if student != nil {
		r.Student = domain.Embed(*student)
	}
	return r
}

func (m ReportModel) ToDomain() domain.ReviewReport {
	return domain.ReviewReport{Reason: m.Reason, ReportedBy: m.ReportedBy, ReportedAt: m.CreatedAt}
}
