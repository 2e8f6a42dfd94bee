package course

import (
	"time"

	"gorm.io/gorm"

	"skillmentor/internal/domain"
)

type CourseModel struct {
	ID               string   `gorm:"primaryKey;type:varchar(32)"`
	Slug             string   `gorm:"uniqueIndex;size:240;not null"`
	Title            string   `gorm:"size:200;not null"`
	Description      string   `gorm:"type:text"`
	Instructor       string   `gorm:"size:120"`
	Difficulty       string   `gorm:"size:16;index"`
	Duration         string   `gorm:"size:64"`
	Category         string   `gorm:"size:64;index"`
	Price            float64  `gorm:"not null;default:0"`
	Image            string   `gorm:"size:512"`
	Video            string   `gorm:"size:512"`
	Syllabus         []string `gorm:"serializer:json"`
	Tags             []string `gorm:"serializer:json"`
	Prerequisites    []string `gorm:"serializer:json"`
	LearningOutcomes []string `gorm:"serializer:json"`

	// 聚合字段，由报名 / 评价写操作维护
	Rating           float64 `gorm:"not null;default:0"`
	ReviewCount      int     `gorm:"not null;default:0"`
	EnrolledStudents int     `gorm:"not null;default:0"`

	IsActive  bool   `gorm:"not null;default:true;index"`
	CreatedBy string `gorm:"size:32"`

	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (CourseModel) TableName() string { return "courses" }

func (m CourseModel) ToDomain() domain.Course {
	return domain.Course{
		ID:               m.ID,
		Title:            m.Title,
		Description:      m.Description,
		Instructor:       m.Instructor,
		Difficulty:       domain.Difficulty(m.Difficulty),
		Duration:         m.Duration,
		Category:         m.Category,
		Price:            m.Price,
		Image:            m.Image,
		Video:            m.Video,
		Syllabus:         orEmpty(m.Syllabus),
		Tags:             orEmpty(m.Tags),
		Prerequisites:    orEmpty(m.Prerequisites),
		LearningOutcomes: orEmpty(m.LearningOutcomes),
		Rating:           m.Rating,
		ReviewCount:      m.ReviewCount,
		EnrolledStudents: m.EnrolledStudents,
		IsActive:         m.IsActive,
		CreatedBy:        m.CreatedBy,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// FromDraft 新建课程；聚合字段从 0 开始
func FromDraft(d domain.CourseDraft) CourseModel {
	active := true
	if d.IsActive != nil {
		active = *d.IsActive
	}
	return CourseModel{
		Title:            d.Title,
		Description:      d.Description,
		Instructor:       d.Instructor,
		Difficulty:       string(d.Difficulty),
		Duration:         d.Duration,
		Category:         d.Category,
		Price:            d.Price,
		Image:            d.Image,
		Video:            d.Video,
		Syllabus:         d.Syllabus,
		Tags:             d.Tags,
		Prerequisites:    d.Prerequisites,
		LearningOutcomes: d.LearningOutcomes,
		IsActive:         active,
	}
}

// Changes 部分更新转列 map；map 形式才能把 false / 0 写进去
func Changes(p domain.CoursePatch) map[string]any {
	m := map[string]any{}
	set := func(col string, v any) { m[col] = v }
	if p.Title != nil {
		set("title", *p.Title)
	}
	if p.Description != nil {
		set("description", *p.Description)
	}
	if p.Instructor != nil {
		set("instructor", *p.Instructor)
	}
	if p.Difficulty != nil {
		set("difficulty", string(*p.Difficulty))
	}
	if p.Duration != nil {
		set("duration", *p.Duration)
	}
	if p.Category != nil {
		set("category", *p.Category)
	}
	if p.Price != nil {
		set("price", *p.Price)
	}
	if p.Image != nil {
		set("image", *p.Image)
	}
	if p.Video != nil {
		set("video", *p.Video)
	}
	if p.IsActive != nil {
		set("is_active", *p.IsActive)
	}
	return m
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
