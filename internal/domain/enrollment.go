package domain

import "time"

type CompletedModule struct {
	ModuleIndex int       `json:"moduleIndex"`
	CompletedAt time.Time `json:"completedAt"`
}

// Enrollment 学员 × 课程；Course/Student 可能是 id 也可能是内嵌对象
type Enrollment struct {
	ID                string            `json:"_id"`
	Student           Ref[Identity]     `json:"student"`
	Course            Ref[Course]       `json:"course"`
	Progress          int               `json:"progress"`
	CompletedModules  []CompletedModule `json:"completedModules"`
	StartDate         time.Time         `json:"startDate"`
	CompletionDate    *time.Time        `json:"completionDate,omitempty"`
	CertificateIssued bool              `json:"certificateIssued"`
	CertificateNumber string            `json:"certificateNumber,omitempty"`
	CertificateURL    string            `json:"certificateUrl,omitempty"`
	LastAccessedAt    time.Time         `json:"lastAccessedAt"`
	IsActive          bool              `json:"isActive"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

func (e Enrollment) Key() string { return e.ID }

func (e Enrollment) Completed() bool { return e.Progress >= MaxProgress }

const (
	MinProgress = 0
	MaxProgress = 100
)

// ProgressUpdate 进度上报
type ProgressUpdate struct {
	Progress             int  `json:"progress" validate:"gte=0,lte=100"`
	CompletedModuleIndex *int `json:"completedModuleIndex,omitempty" validate:"omitempty,gte=0"`
}
