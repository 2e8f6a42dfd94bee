package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"skillmentor/internal/feature/course"
)

type CourseRepo struct{ db *gorm.DB }

func NewCourseRepo(db *gorm.DB) *CourseRepo { return &CourseRepo{db: db} }

type CourseFilter struct {
	Category   string
	Difficulty string
	Search     string // title / description / instructor
	ActiveOnly bool
	Offset     int
	Limit      int
	Sort       string // rating | price | -price | newest(默认)
}

func (r *CourseRepo) Create(ctx context.Context, m *course.CourseModel) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *CourseRepo) FindByID(ctx context.Context, id string) (*course.CourseModel, error) {
	var m course.CourseModel
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &m, err
}

func (r *CourseRepo) ByIDs(ctx context.Context, ids []string) (map[string]course.CourseModel, error) {
	out := make(map[string]course.CourseModel, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var ms []course.CourseModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&ms).Error; err != nil {
		return nil, err
	}
	for _, m := range ms {
		out[m.ID] = m
	}
	return out, nil
}

func (r *CourseRepo) List(ctx context.Context, f CourseFilter) ([]course.CourseModel, int64, error) {
	tx := r.db.WithContext(ctx).Model(&course.CourseModel{})
	if f.ActiveOnly {
		tx = tx.Where("is_active = ?", true)
	}
	if f.Category != "" {
		tx = tx.Where("category = ?", f.Category)
	}
	if f.Difficulty != "" {
		tx = tx.Where("difficulty = ?", f.Difficulty)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + s + "%"
		tx = tx.Where("title LIKE ? OR description LIKE ? OR instructor LIKE ?", like, like, like)
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var ms []course.CourseModel
	if f.Limit > 0 {
		tx = tx.Offset(f.Offset).Limit(f.Limit)
	}
	if err := tx.Order(orderOf(f.Sort)).Find(&ms).Error; err != nil {
		return nil, 0, err
	}
	return ms, total, nil
}

func orderOf(sort string) string {
	switch sort {
	case "rating":
		return "rating desc, review_count desc"
	case "price":
		return "price asc"
	case "-price":
		return "price desc"
	case "popular":
		return "enrolled_students desc"
	}
	return "created_at desc"
}

// Recommend 启用且不在 skipIDs 里的课程，优先 preferCategories，按评分排
func (r *CourseRepo) Recommend(ctx context.Context, skipIDs, preferCategories []string, limit int) ([]course.CourseModel, error) {
	tx := r.db.WithContext(ctx).Model(&course.CourseModel{}).Where("is_active = ?", true)
	if len(skipIDs) > 0 {
		tx = tx.Where("id NOT IN ?", skipIDs)
	}
	var ms []course.CourseModel
	if len(preferCategories) > 0 {
		if err := tx.Session(&gorm.Session{}).Where("category IN ?", preferCategories).
			Order("rating desc, enrolled_students desc").Limit(limit).Find(&ms).Error; err != nil {
			return nil, err
		}
		if len(ms) >= limit {
			return ms, nil
		}
		for _, m := range ms {
			skipIDs = append(skipIDs, m.ID)
		}
		if len(skipIDs) > 0 {
			tx = tx.Where("id NOT IN ?", skipIDs)
		}
	}
	var rest []course.CourseModel
	if err := tx.Order("rating desc, enrolled_students desc").Limit(limit - len(ms)).Find(&rest).Error; err != nil {
		return nil, err
	}
	return append(ms, rest...), nil
}

func (r *CourseRepo) Updates(ctx context.Context, id string, cols map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).Model(&course.CourseModel{}).Where("id = ?", id).Updates(cols)
	return res.RowsAffected > 0, res.Error
}

// SaveLists 列表字段走 serializer，需要整行 Select 写入
func (r *CourseRepo) SaveLists(ctx context.Context, m *course.CourseModel) error {
	return r.db.WithContext(ctx).Model(m).
		Select("syllabus", "tags", "prerequisites", "learning_outcomes").
		Updates(m).Error
}

func (r *CourseRepo) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&course.CourseModel{})
	return res.RowsAffected > 0, res.Error
}

// AdjustEnrolled 报名数 +delta，不低于 0
func (r *CourseRepo) AdjustEnrolled(ctx context.Context, id string, delta int) error {
	expr := gorm.Expr("enrolled_students + ?", delta)
	if delta < 0 {
		expr = gorm.Expr("CASE WHEN enrolled_students + ? < 0 THEN 0 ELSE enrolled_students + ? END", delta, delta)
	}
	return r.db.WithContext(ctx).Model(&course.CourseModel{}).Where("id = ?", id).
		UpdateColumn("enrolled_students", expr).Error
}

func (r *CourseRepo) SetRating(ctx context.Context, id string, rating float64, count int) error {
	return r.db.WithContext(ctx).Model(&course.CourseModel{}).Where("id = ?", id).
		UpdateColumns(map[string]any{"rating": rating, "review_count": count}).Error
}

func (r *CourseRepo) Count(ctx context.Context, activeOnly bool) (int64, error) {
	tx := r.db.WithContext(ctx).Model(&course.CourseModel{})
	if activeOnly {
		tx = tx.Where("is_active = ?", true)
	}
	var n int64
	return n, tx.Count(&n).Error
}
