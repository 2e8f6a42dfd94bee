package note

import (
	"time"

	"skillmentor/internal/domain"
)

// NoteModel 直接作为 CRUD 的绑定体；OwnerID 由服务端写入
type NoteModel struct {
	ID          string    `gorm:"primaryKey;type:varchar(32)" json:"_id"`
	OwnerID     string    `gorm:"size:32;not null;index" json:"-"`
	CourseID    string    `gorm:"size:32;index" json:"courseId"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Content     string    `gorm:"type:text" json:"content"`
	ModuleIndex *int      `json:"moduleIndex,omitempty"`
	Summary     string    `gorm:"type:text" json:"summary,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (NoteModel) TableName() string { return "notes" }

func (m *NoteModel) ToDomain() domain.Note {
	return domain.Note{
		ID:          m.ID,
		Course:      domain.RefOf[domain.Course](m.CourseID),
		Title:       m.Title,
		Content:     m.Content,
		ModuleIndex: m.ModuleIndex,
		Summary:     m.Summary,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
