package service

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"skillmentor/internal/domain"
	"skillmentor/internal/repo"
)

type AdminService struct {
	db      *gorm.DB
	reviews *ReviewService
	log     *zap.Logger
	now     func() time.Time
}

func NewAdminService(db *gorm.DB, reviews *ReviewService, l *zap.Logger) *AdminService {
	return &AdminService{db: db, reviews: reviews, log: l, now: time.Now}
}

func (s *AdminService) Dashboard(ctx context.Context) (domain.Dashboard, error) {
	var d domain.Dashboard
	var err error
	users := repo.NewUserRepo(s.db)
	if d.TotalStudents, err = users.Count(ctx, string(domain.RoleStudent), false); err != nil {
		return d, err
	}
	if d.ActiveStudents, err = users.Count(ctx, string(domain.RoleStudent), true); err != nil {
		return d, err
	}
	courses := repo.NewCourseRepo(s.db)
	if d.TotalCourses, err = courses.Count(ctx, false); err != nil {
		return d, err
	}
	if d.ActiveCourses, err = courses.Count(ctx, true); err != nil {
		return d, err
	}
	ec, err := repo.NewEnrollmentRepo(s.db).Counts(ctx)
	if err != nil {
		return d, err
	}
	d.TotalEnrollments, d.CompletedEnrollments, d.CertificatesIssued = ec.Total, ec.Completed, ec.Certificates
	n, avg, err := repo.NewReviewRepo(s.db).Totals(ctx)
	if err != nil {
		return d, err
	}
	d.TotalReviews, d.AverageRating = n, math.Round(avg*10)/10
	return d, nil
}

var timeframes = map[string]int{"7d": 7, "30d": 30, "90d": 90}

// UserAnalytics 按天统计注册数，缺的日子补 0
func (s *AdminService) UserAnalytics(ctx context.Context, timeframe string) (domain.UserAnalytics, error) {
	if timeframe == "" {
		timeframe = "30d"
	}
	days, ok := timeframes[timeframe]
	if !ok {
		return domain.UserAnalytics{}, fail(ErrInvalid, "Timeframe must be one of 7d, 30d, 90d")
	}
	today := s.now().UTC().Truncate(24 * time.Hour)
	since := today.AddDate(0, 0, -(days - 1))

	users := repo.NewUserRepo(s.db)
	created, err := users.CreatedSince(ctx, string(domain.RoleStudent), since)
	if err != nil {
		return domain.UserAnalytics{}, err
	}
	active, err := users.CountActiveSince(ctx, string(domain.RoleStudent), since)
	if err != nil {
		return domain.UserAnalytics{}, err
	}

	counts := make(map[string]int64, days)
	for _, t := range created {
		counts[t.UTC().Format(time.DateOnly)]++
	}
	out := domain.UserAnalytics{
		Timeframe:   timeframe,
		NewUsers:    int64(len(created)),
		ActiveUsers: active,
		Signups:     make([]domain.DailyCount, 0, days),
	}
	for d := since; !d.After(today); d = d.AddDate(0, 0, 1) {
		key := d.Format(time.DateOnly)
		out.Signups = append(out.Signups, domain.DailyCount{Date: key, Count: counts[key]})
	}
	return out, nil
}

// CourseAnalytics 每门课报名 / 完成 / 评分，按报名数倒序
func (s *AdminService) CourseAnalytics(ctx context.Context) (domain.CourseAnalytics, error) {
	ms, _, err := repo.NewCourseRepo(s.db).List(ctx, repo.CourseFilter{})
	if err != nil {
		return domain.CourseAnalytics{}, err
	}
	counts, err := repo.NewEnrollmentRepo(s.db).ByCourse(ctx)
	if err != nil {
		return domain.CourseAnalytics{}, err
	}
	out := domain.CourseAnalytics{Courses: make([]domain.CourseStat, 0, len(ms))}
	for _, m := range ms {
		cc := counts[m.ID]
		out.Courses = append(out.Courses, domain.CourseStat{
			CourseID:    m.ID,
			Title:       m.Title,
			Category:    m.Category,
			Enrolled:    cc.Enrolled,
			Completed:   cc.Completed,
			Rating:      m.Rating,
			ReviewCount: m.ReviewCount,
		})
	}
	sort.SliceStable(out.Courses, func(i, j int) bool { return out.Courses[i].Enrolled > out.Courses[j].Enrolled })
	return out, nil
}

// ReportedReviews 有未处理举报的评价
func (s *AdminService) ReportedReviews(ctx context.Context) ([]domain.ReportedReview, error) {
	rr := repo.NewReviewRepo(s.db)
	order, reports, err := rr.OpenReports(ctx)
	if err != nil {
		return nil, err
	}
	byID, err := rr.ByIDs(ctx, order)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ReportedReview, 0, len(order))
	for _, id := range order {
		m, ok := byID[id]
		if !ok {
			continue
		}
		item := domain.ReportedReview{Review: s.reviews.withStudent(ctx, m)}
		for _, r := range reports[id] {
			item.Reports = append(item.Reports, r.ToDomain())
		}
		out = append(out, item)
	}
	return out, nil
}

// Moderate approve / reject；处理后关闭该评价的举报并重算课程评分
func (s *AdminService) Moderate(ctx context.Context, id string, action domain.Moderation) (domain.Review, error) {
	var approved bool
	switch action {
	case domain.Approve:
		approved = true
	case domain.Reject:
	default:
		return domain.Review{}, fail(ErrInvalid, "Action must be approve or reject")
	}
	rr := repo.NewReviewRepo(s.db)
	m, err := rr.FindByID(ctx, id)
	if err != nil {
		return domain.Review{}, err
	}
	if m == nil {
		return domain.Review{}, fail(ErrNotFound, "Review not found")
	}
	if err := rr.Updates(ctx, id, map[string]any{"is_approved": approved}); err != nil {
		return domain.Review{}, err
	}
	if err := rr.ResolveReports(ctx, id); err != nil {
		return domain.Review{}, err
	}
	if err := s.reviews.recompute(ctx, m.CourseID); err != nil {
		return domain.Review{}, err
	}
	m.IsApproved = approved
	s.log.Info("review moderated", zap.String("review", id), zap.String("action", string(action)))
	return s.reviews.withStudent(ctx, *m), nil
}
