package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"skillmentor/internal/feature/review"
)

type ReviewRepo struct{ db *gorm.DB }

func NewReviewRepo(db *gorm.DB) *ReviewRepo { return &ReviewRepo{db: db} }

func (r *ReviewRepo) Create(ctx context.Context, m *review.ReviewModel) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *ReviewRepo) FindByID(ctx context.Context, id string) (*review.ReviewModel, error) {
	var m review.ReviewModel
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &m, err
}

func (r *ReviewRepo) Find(ctx context.Context, studentID, courseID string) (*review.ReviewModel, error) {
	var m review.ReviewModel
	err := r.db.WithContext(ctx).First(&m, "student_id = ? AND course_id = ?", studentID, courseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &m, err
}

// ListByCourse 课程页只展示已通过审核的
func (r *ReviewRepo) ListByCourse(ctx context.Context, courseID string) ([]review.ReviewModel, error) {
	var ms []review.ReviewModel
	err := r.db.WithContext(ctx).Where("course_id = ? AND is_approved = ?", courseID, true).
		Order("helpful_votes desc, created_at desc").Find(&ms).Error
	return ms, err
}

func (r *ReviewRepo) ListByStudent(ctx context.Context, studentID string) ([]review.ReviewModel, error) {
	var ms []review.ReviewModel
	err := r.db.WithContext(ctx).Where("student_id = ?", studentID).Order("created_at desc").Find(&ms).Error
	return ms, err
}

func (r *ReviewRepo) ByIDs(ctx context.Context, ids []string) (map[string]review.ReviewModel, error) {
	out := make(map[string]review.ReviewModel, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var ms []review.ReviewModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&ms).Error; err != nil {
		return nil, err
	}
	for _, m := range ms {
		out[m.ID] = m
	}
	return out, nil
}

func (r *ReviewRepo) Updates(ctx context.Context, id string, cols map[string]any) error {
	return r.db.WithContext(ctx).Model(&review.ReviewModel{}).Where("id = ?", id).Updates(cols).Error
}

func (r *ReviewRepo) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("review_id = ?", id).Delete(&review.ReportModel{}).Error; err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Where("review_id = ?", id).Delete(&review.HelpfulModel{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&review.ReviewModel{}).Error
}

// RatingOf 已审核评价的平均分和条数
func (r *ReviewRepo) RatingOf(ctx context.Context, courseID string) (float64, int, error) {
	var row struct {
		Avg float64
		N   int
	}
	err := r.db.WithContext(ctx).Model(&review.ReviewModel{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS n").
		Where("course_id = ? AND is_approved = ?", courseID, true).
		Scan(&row).Error
	return row.Avg, row.N, err
}

// AddHelpful 记一票；同一人重复投票返回 false
func (r *ReviewRepo) AddHelpful(ctx context.Context, reviewID, userID string) (bool, error) {
	err := r.db.WithContext(ctx).Create(&review.HelpfulModel{ReviewID: reviewID, UserID: userID}).Error
	if IsDuplicate(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	err = r.db.WithContext(ctx).Model(&review.ReviewModel{}).Where("id = ?", reviewID).
		UpdateColumn("helpful_votes", gorm.Expr("helpful_votes + ?", 1)).Error
	return err == nil, err
}

func (r *ReviewRepo) AddReport(ctx context.Context, m *review.ReportModel) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// OpenReports 未处理的举报，按评价分组（保持首次举报时间顺序）
func (r *ReviewRepo) OpenReports(ctx context.Context) ([]string, map[string][]review.ReportModel, error) {
	var ms []review.ReportModel
	if err := r.db.WithContext(ctx).Where("resolved = ?", false).Order("created_at asc").Find(&ms).Error; err != nil {
		return nil, nil, err
	}
	var order []string
	byReview := map[string][]review.ReportModel{}
	for _, m := range ms {
		if _, seen := byReview[m.ReviewID]; !seen {
			order = append(order, m.ReviewID)
		}
		byReview[m.ReviewID] = append(byReview[m.ReviewID], m)
	}
	return order, byReview, nil
}

func (r *ReviewRepo) ResolveReports(ctx context.Context, reviewID string) error {
	return r.db.WithContext(ctx).Model(&review.ReportModel{}).Where("review_id = ?", reviewID).
		Update("resolved", true).Error
}

// Totals 全站评价条数与平均分（已审核）
func (r *ReviewRepo) Totals(ctx context.Context) (int64, float64, error) {
	var row struct {
		N   int64
		Avg float64
	}
	err := r.db.WithContext(ctx).Model(&review.ReviewModel{}).
		Select("COUNT(*) AS n, COALESCE(AVG(rating), 0) AS avg").
		Where("is_approved = ?", true).Scan(&row).Error
	return row.N, row.Avg, err
}
