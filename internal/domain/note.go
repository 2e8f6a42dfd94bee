package domain

import "time"

// Note 学习笔记（仅展示层使用）
type Note struct {
	ID          string      `json:"_id"`
	Course      Ref[Course] `json:"course"`
	Title       string      `json:"title"`
	Content     string      `json:"content"`
	ModuleIndex *int        `json:"moduleIndex,omitempty"`
	Summary     string      `json:"summary,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

func (n Note) Key() string { return n.ID }

type NoteDraft struct {
	CourseID    string `json:"courseId" validate:"required"`
	Title       string `json:"title" validate:"required,max=200"`
	Content     string `json:"content" validate:"required"`
	ModuleIndex *int   `json:"moduleIndex,omitempty" validate:"omitempty,gte=0"`
}

type NotePatch struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Content     *string `json:"content,omitempty"`
	ModuleIndex *int    `json:"moduleIndex,omitempty" validate:"omitempty,gte=0"`
}
