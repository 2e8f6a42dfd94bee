package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"skillmentor/internal/feature/enrollment"
)

type EnrollmentRepo struct{ db *gorm.DB }

func NewEnrollmentRepo(db *gorm.DB) *EnrollmentRepo { return &EnrollmentRepo{db: db} }

func (r *EnrollmentRepo) Create(ctx context.Context, m *enrollment.EnrollmentModel) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *EnrollmentRepo) FindByID(ctx context.Context, id string) (*enrollment.EnrollmentModel, error) {
	var m enrollment.EnrollmentModel
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &m, err
}

// Find 学员在某课程下的报名
func (r *EnrollmentRepo) Find(ctx context.Context, studentID, courseID string) (*enrollment.EnrollmentModel, error) {
	var m enrollment.EnrollmentModel
	err := r.db.WithContext(ctx).First(&m, "student_id = ? AND course_id = ?", studentID, courseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &m, err
}

func (r *EnrollmentRepo) ListByStudent(ctx context.Context, studentID string) ([]enrollment.EnrollmentModel, error) {
	var ms []enrollment.EnrollmentModel
	err := r.db.WithContext(ctx).Where("student_id = ?", studentID).Order("created_at desc").Find(&ms).Error
	return ms, err
}

// CourseIDs 学员已报名课程
func (r *EnrollmentRepo) CourseIDs(ctx context.Context, studentID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&enrollment.EnrollmentModel{}).
		Where("student_id = ?", studentID).Pluck("course_id", &ids).Error
	return ids, err
}

func (r *EnrollmentRepo) Save(ctx context.Context, m *enrollment.EnrollmentModel) error {
	return r.db.WithContext(ctx).Save(m).Error
}

func (r *EnrollmentRepo) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&enrollment.EnrollmentModel{})
	return res.RowsAffected > 0, res.Error
}

// DeleteByStudent 删除学员时一并清理
func (r *EnrollmentRepo) DeleteByStudent(ctx context.Context, studentID string) ([]string, error) {
	ids, err := r.CourseIDs(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return ids, r.db.WithContext(ctx).Where("student_id = ?", studentID).Delete(&enrollment.EnrollmentModel{}).Error
}

// EnrollmentCounts 全站报名统计
type EnrollmentCounts struct {
	Total        int64
	Completed    int64
	Certificates int64
}

func (r *EnrollmentRepo) Counts(ctx context.Context) (EnrollmentCounts, error) {
	var c EnrollmentCounts
	q := func() *gorm.DB { return r.db.WithContext(ctx).Model(&enrollment.EnrollmentModel{}) }
	if err := q().Count(&c.Total).Error; err != nil {
		return c, err
	}
	if err := q().Where("progress >= ?", 100).Count(&c.Completed).Error; err != nil {
		return c, err
	}
	err := q().Where("certificate_issued = ?", true).Count(&c.Certificates).Error
	return c, err
}

// CourseCount 按课程聚合的报名 / 完成数
type CourseCount struct {
	CourseID  string
	Enrolled  int64
	Completed int64
}

func (r *EnrollmentRepo) ByCourse(ctx context.Context) (map[string]CourseCount, error) {
	var rows []CourseCount
	err := r.db.WithContext(ctx).Model(&enrollment.EnrollmentModel{}).
		Select("course_id, COUNT(*) AS enrolled, SUM(CASE WHEN progress >= 100 THEN 1 ELSE 0 END) AS completed").
		Group("course_id").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]CourseCount, len(rows))
	for _, row := range rows {
		out[row.CourseID] = row
	}
	return out, nil
}

func (r *EnrollmentRepo) DeleteByCourse(ctx context.Context, courseID string) error {
	return r.db.WithContext(ctx).Where("course_id = ?", courseID).Delete(&enrollment.EnrollmentModel{}).Error
}
