package domain

import "time"

// Review 评价；Course 在实践中多为 id，但同样按双形态处理
type Review struct {
	ID           string        `json:"_id"`
	Student      Ref[Identity] `json:"student"`
	Course       Ref[Course]   `json:"course"`
	Rating       int           `json:"rating"`
	Comment      string        `json:"comment"`
	IsApproved   bool          `json:"isApproved"`
	HelpfulVotes int           `json:"helpfulVotes"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

func (r Review) Key() string { return r.ID }

const (
	MinRating = 1
	MaxRating = 5
)

// ReviewDraft 新评价
type ReviewDraft struct {
	CourseID string `json:"courseId" validate:"required"`
	Rating   int    `json:"rating" validate:"gte=1,lte=5"`
	Comment  string `json:"comment" validate:"required,max=2000"`
}

// ReviewEdit 修改自己的评价
type ReviewEdit struct {
	Rating  int    `json:"rating" validate:"gte=1,lte=5"`
	Comment string `json:"comment" validate:"required,max=2000"`
}
