package domain

import (
	"strings"
	"time"
)

type Difficulty string

const (
	Beginner     Difficulty = "Beginner"
	Intermediate Difficulty = "Intermediate"
	Advanced     Difficulty = "Advanced"
)

func (d Difficulty) Valid() bool {
	switch d {
	case Beginner, Intermediate, Advanced:
		return true
	}
	return false
}

// Course 课程；Rating / ReviewCount / EnrolledStudents 由后端聚合
type Course struct {
	ID               string     `json:"_id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Instructor       string     `json:"instructor"`
	Difficulty       Difficulty `json:"difficulty"`
	Duration         string     `json:"duration"`
	Category         string     `json:"category"`
	Price            float64    `json:"price"`
	Image            string     `json:"image,omitempty"`
	Video            string     `json:"video,omitempty"`
	Syllabus         []string   `json:"syllabus"`
	Tags             []string   `json:"tags"`
	Prerequisites    []string   `json:"prerequisites"`
	LearningOutcomes []string   `json:"learningOutcomes"`
	Rating           float64    `json:"rating"`
	ReviewCount      int        `json:"reviewCount"`
	EnrolledStudents int        `json:"enrolledStudents"`
	IsActive         bool       `json:"isActive"`
	CreatedBy        string     `json:"createdBy,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

func (c Course) Key() string { return c.ID }

// CourseDraft 新建 / 编辑课程的提交体
type CourseDraft struct {
	Title            string     `json:"title" validate:"required,max=200"`
	Description      string     `json:"description" validate:"required"`
	Instructor       string     `json:"instructor" validate:"required,max=120"`
	Difficulty       Difficulty `json:"difficulty" validate:"required,oneof=Beginner Intermediate Advanced"`
	Duration         string     `json:"duration" validate:"required,max=64"`
	Category         string     `json:"category" validate:"required,max=64"`
	Price            float64    `json:"price" validate:"gte=0"`
	Image            string     `json:"image,omitempty" validate:"omitempty,url"`
	Video            string     `json:"video,omitempty" validate:"omitempty,url"`
	Syllabus         []string   `json:"syllabus"`
	Tags             []string   `json:"tags"`
	Prerequisites    []string   `json:"prerequisites"`
	LearningOutcomes []string   `json:"learningOutcomes"`
	IsActive         *bool      `json:"isActive,omitempty"`
}

// Normalize 提交前去掉空白条目，保持顺序
func (d CourseDraft) Normalize() CourseDraft {
	d.Title = strings.TrimSpace(d.Title)
	d.Syllabus = CompactStrings(d.Syllabus)
	d.Tags = CompactStrings(d.Tags)
	d.Prerequisites = CompactStrings(d.Prerequisites)
	d.LearningOutcomes = CompactStrings(d.LearningOutcomes)
	return d
}

// CoursePatch 部分更新；nil 字段不发送
type CoursePatch struct {
	Title            *string     `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description      *string     `json:"description,omitempty"`
	Instructor       *string     `json:"instructor,omitempty" validate:"omitempty,min=1,max=120"`
	Difficulty       *Difficulty `json:"difficulty,omitempty" validate:"omitempty,oneof=Beginner Intermediate Advanced"`
	Duration         *string     `json:"duration,omitempty"`
	Category         *string     `json:"category,omitempty"`
	Price            *float64    `json:"price,omitempty" validate:"omitempty,gte=0"`
	Image            *string     `json:"image,omitempty" validate:"omitempty,url"`
	Video            *string     `json:"video,omitempty" validate:"omitempty,url"`
	Syllabus         []string    `json:"syllabus,omitempty"`
	Tags             []string    `json:"tags,omitempty"`
	Prerequisites    []string    `json:"prerequisites,omitempty"`
	LearningOutcomes []string    `json:"learningOutcomes,omitempty"`
	IsActive         *bool       `json:"isActive,omitempty"`
}

func (p CoursePatch) Normalize() CoursePatch {
	if p.Syllabus != nil {
		p.Syllabus = CompactStrings(p.Syllabus)
	}
	if p.Tags != nil {
		p.Tags = CompactStrings(p.Tags)
	}
	if p.Prerequisites != nil {
		p.Prerequisites = CompactStrings(p.Prerequisites)
	}
	if p.LearningOutcomes != nil {
		p.LearningOutcomes = CompactStrings(p.LearningOutcomes)
	}
	return p
}

// CourseFilter 列表查询参数（go-querystring 编码）
type CourseFilter struct {
	Category   string     `url:"category,omitempty"`
	Difficulty Difficulty `url:"difficulty,omitempty"`
	Search     string     `url:"search,omitempty"`
	Page       int        `url:"page,omitempty"`
	Limit      int        `url:"limit,omitempty"`
	Sort       string     `url:"sort,omitempty"`
}

// CompactStrings 去掉空白项，非空项原样保留（去首尾空格）
func CompactStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
