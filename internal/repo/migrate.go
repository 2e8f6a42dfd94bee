package repo

import (
	"gorm.io/gorm"

	"skillmentor/internal/feature/course"
	"skillmentor/internal/feature/enrollment"
	"skillmentor/internal/feature/note"
	"skillmentor/internal/feature/review"
	"skillmentor/internal/feature/user"
)

// Migrate 建表 / 补列；启动期与测试共用
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&user.UserModel{},
		&course.CourseModel{},
		&enrollment.EnrollmentModel{},
		&review.ReviewModel{},
		&review.ReportModel{},
		&review.HelpfulModel{},
		&note.NoteModel{},
	)
}
