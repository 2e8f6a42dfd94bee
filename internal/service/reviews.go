package service

import (
	"context"
	"math"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"skillmentor/internal/domain"
	"skillmentor/internal/feature/review"
	"skillmentor/internal/repo"
	"skillmentor/pkg/utils"
)

type ReviewService struct {
	db      *gorm.DB
	reviews *repo.ReviewRepo
	users   *repo.UserRepo
	courses *CourseService
	log     *zap.Logger
}

func NewReviewService(db *gorm.DB, courses *CourseService, l *zap.Logger) *ReviewService {
	return &ReviewService{
		db:      db,
		reviews: repo.NewReviewRepo(db),
		users:   repo.NewUserRepo(db),
		courses: courses,
		log:     l,
	}
}

// Create 须已报名；每人每课一条；写后重算课程评分
func (s *ReviewService) Create(ctx context.Context, uid string, d domain.ReviewDraft) (domain.Review, error) {
	d.Comment = strings.TrimSpace(d.Comment)
	if err := domain.Validate(d); err != nil {
		return domain.Review{}, err
	}
	if _, err := s.courses.Get(ctx, d.CourseID, false); err != nil {
		return domain.Review{}, err
	}
	enrolled, err := repo.NewEnrollmentRepo(s.db).Find(ctx, uid, d.CourseID)
	if err != nil {
		return domain.Review{}, err
	}
	if enrolled == nil {
		return domain.Review{}, fail(ErrForbidden, "You must be enrolled in this course to review it")
	}
	if exist, err := s.reviews.Find(ctx, uid, d.CourseID); err != nil {
		return domain.Review{}, err
	} else if exist != nil {
		return domain.Review{}, fail(ErrConflict, "You have already reviewed this course")
	}
	m := review.ReviewModel{
		ID:         utils.NewID(),
		StudentID:  uid,
		CourseID:   d.CourseID,
		Rating:     d.Rating,
		Comment:    d.Comment,
		IsApproved: true,
	}
	if err := s.reviews.Create(ctx, &m); err != nil {
		if repo.IsDuplicate(err) {
			return domain.Review{}, fail(ErrConflict, "You have already reviewed this course")
		}
		return domain.Review{}, err
	}
	if err := s.recompute(ctx, d.CourseID); err != nil {
		return domain.Review{}, err
	}
	return s.withStudent(ctx, m), nil
}

func (s *ReviewService) ByCourse(ctx context.Context, courseID string) ([]domain.Review, error) {
	ms, err := s.reviews.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return s.withStudents(ctx, ms)
}

func (s *ReviewService) Mine(ctx context.Context, uid string) ([]domain.Review, error) {
	ms, err := s.reviews.ListByStudent(ctx, uid)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Review, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.ToDomain(nil))
	}
	return out, nil
}

func (s *ReviewService) Update(ctx context.Context, uid, id string, e domain.ReviewEdit) (domain.Review, error) {
	e.Comment = strings.TrimSpace(e.Comment)
	if err := domain.Validate(e); err != nil {
		return domain.Review{}, err
	}
	m, err := s.owned(ctx, uid, id)
	if err != nil {
		return domain.Review{}, err
	}
	if err := s.reviews.Updates(ctx, id, map[string]any{"rating": e.Rating, "comment": e.Comment}); err != nil {
		return domain.Review{}, err
	}
	m.Rating, m.Comment = e.Rating, e.Comment
	if err := s.recompute(ctx, m.CourseID); err != nil {
		return domain.Review{}, err
	}
	return s.withStudent(ctx, *m), nil
}

// Delete 本人或管理员
func (s *ReviewService) Delete(ctx context.Context, uid string, admin bool, id string) error {
	m, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if m == nil || (!admin && m.StudentID != uid) {
		return fail(ErrNotFound, "Review not found")
	}
	if err := s.reviews.Delete(ctx, id); err != nil {
		return err
	}
	return s.recompute(ctx, m.CourseID)
}

func (s *ReviewService) MarkHelpful(ctx context.Context, uid, id string) (domain.Review, error) {
	m, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return domain.Review{}, err
	}
	if m == nil {
		return domain.Review{}, fail(ErrNotFound, "Review not found")
	}
	added, err := s.reviews.AddHelpful(ctx, id, uid)
	if err != nil {
		return domain.Review{}, err
	}
	if !added {
		return domain.Review{}, fail(ErrConflict, "You already marked this review as helpful")
	}
	m.HelpfulVotes++
	return s.withStudent(ctx, *m), nil
}

func (s *ReviewService) Report(ctx context.Context, uid, id, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return fail(ErrInvalid, "Reason is required")
	}
	m, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if m == nil {
		return fail(ErrNotFound, "Review not found")
	}
	return s.reviews.AddReport(ctx, &review.ReportModel{ID: utils.NewID(), ReviewID: id, ReportedBy: uid, Reason: reason})
}

func (s *ReviewService) owned(ctx context.Context, uid, id string) (*review.ReviewModel, error) {
	m, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil || m.StudentID != uid {
		return nil, fail(ErrNotFound, "Review not found")
	}
	return m, nil
}

// recompute 课程评分 = 已审核评价均值，保留一位小数
func (s *ReviewService) recompute(ctx context.Context, courseID string) error {
	avg, n, err := s.reviews.RatingOf(ctx, courseID)
	if err != nil {
		return err
	}
	if err := repo.NewCourseRepo(s.db).SetRating(ctx, courseID, math.Round(avg*10)/10, n); err != nil {
		return err
	}
	s.courses.invalidate(ctx, courseID)
	return nil
}

func (s *ReviewService) withStudent(ctx context.Context, m review.ReviewModel) domain.Review {
	out, err := s.withStudents(ctx, []review.ReviewModel{m})
	if err != nil || len(out) == 0 {
		return m.ToDomain(nil)
	}
	return out[0]
}

// withStudents 内嵌学员（只带公开字段）
func (s *ReviewService) withStudents(ctx context.Context, ms []review.ReviewModel) ([]domain.Review, error) {
	ids := make([]string, 0, len(ms))
	for _, m := range ms {
		ids = append(ids, m.StudentID)
	}
	byID, err := s.users.ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Review, 0, len(ms))
	for _, m := range ms {
		if u, ok := byID[m.StudentID]; ok {
			id := domain.Identity{ID: u.ID, Name: u.Name, Role: domain.Role(u.Role)}
			out = append(out, m.ToDomain(&id))
			continue
		}
		out = append(out, m.ToDomain(nil))
	}
	return out, nil
}
