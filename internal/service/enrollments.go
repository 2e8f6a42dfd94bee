package service

import (
	"context"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"skillmentor/internal/domain"
	"skillmentor/internal/feature/enrollment"
	"skillmentor/internal/repo"
	"skillmentor/pkg/utils"
)

type EnrollmentService struct {
	db      *gorm.DB
	repo    *repo.EnrollmentRepo
	courses *CourseService
	log     *zap.Logger
	now     func() time.Time
}

func NewEnrollmentService(db *gorm.DB, courses *CourseService, l *zap.Logger) *EnrollmentService {
	return &EnrollmentService{db: db, repo: repo.NewEnrollmentRepo(db), courses: courses, log: l, now: time.Now}
}

// Enroll 每个学员每门课只能报一次；报名数同事务 +1
func (s *EnrollmentService) Enroll(ctx context.Context, uid, courseID string) (domain.Enrollment, error) {
	if strings.TrimSpace(courseID) == "" {
		return domain.Enrollment{}, fail(ErrInvalid, "Course ID is required")
	}
	c, err := s.courses.Get(ctx, courseID, false)
	if err != nil {
		return domain.Enrollment{}, err
	}
	now := s.now()
	m := enrollment.EnrollmentModel{
		ID:               utils.NewID(),
		StudentID:        uid,
		CourseID:         courseID,
		CompletedModules: []domain.CompletedModule{},
		StartDate:        now,
		LastAccessedAt:   now,
		IsActive:         true,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		er := repo.NewEnrollmentRepo(tx)
		exist, err := er.Find(ctx, uid, courseID)
		if err != nil {
			return err
		}
		if exist != nil {
			return fail(ErrConflict, "Already enrolled in this course")
		}
		if err := er.Create(ctx, &m); err != nil {
			if repo.IsDuplicate(err) {
				return fail(ErrConflict, "Already enrolled in this course")
			}
			return err
		}
		return repo.NewCourseRepo(tx).AdjustEnrolled(ctx, courseID, 1)
	})
	if err != nil {
		return domain.Enrollment{}, err
	}
	s.courses.invalidate(ctx, courseID)
	c.EnrolledStudents++
	return m.ToDomain(&c), nil
}

// List 本人报名，课程内嵌（课程已删除的只给 id）
func (s *EnrollmentService) List(ctx context.Context, uid string) ([]domain.Enrollment, error) {
	ms, err := s.repo.ListByStudent(ctx, uid)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(ms))
	for _, m := range ms {
		ids = append(ids, m.CourseID)
	}
	byID, err := repo.NewCourseRepo(s.db).ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Enrollment, 0, len(ms))
	for _, m := range ms {
		var cp *domain.Course
		if cm, ok := byID[m.CourseID]; ok {
			c := cm.ToDomain()
			cp = &c
		}
		out = append(out, m.ToDomain(cp))
	}
	return out, nil
}

// Get 本人或管理员可见
func (s *EnrollmentService) Get(ctx context.Context, uid string, admin bool, id string) (domain.Enrollment, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Enrollment{}, err
	}
	if m == nil || (!admin && m.StudentID != uid) {
		return domain.Enrollment{}, fail(ErrNotFound, "Enrollment not found")
	}
	return s.view(ctx, *m), nil
}

func (s *EnrollmentService) ByCourse(ctx context.Context, uid, courseID string) (domain.Enrollment, error) {
	m, err := s.repo.Find(ctx, uid, courseID)
	if err != nil {
		return domain.Enrollment{}, err
	}
	if m == nil {
		return domain.Enrollment{}, fail(ErrNotFound, "Not enrolled in this course")
	}
	return s.view(ctx, *m), nil
}

// UpdateProgress 进度只增不减；模块只记一次；到 100 记完成时间并发证书
func (s *EnrollmentService) UpdateProgress(ctx context.Context, uid, id string, in domain.ProgressUpdate) (domain.Enrollment, error) {
	if err := domain.Validate(in); err != nil {
		return domain.Enrollment{}, err
	}
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Enrollment{}, err
	}
	if m == nil || m.StudentID != uid {
		return domain.Enrollment{}, fail(ErrNotFound, "Enrollment not found")
	}
	now := s.now()
	m.Progress = max(m.Progress, in.Progress)
	m.LastAccessedAt = now
	if idx := in.CompletedModuleIndex; idx != nil && !m.ModuleDone(*idx) {
		m.CompletedModules = append(m.CompletedModules, domain.CompletedModule{ModuleIndex: *idx, CompletedAt: now})
	}
	if m.Progress >= domain.MaxProgress && m.CompletionDate == nil {
		m.CompletionDate = &now
		s.issueCertificate(ctx, m, now)
	}
	if err := s.repo.Save(ctx, m); err != nil {
		return domain.Enrollment{}, err
	}
	return s.view(ctx, *m), nil
}

func (s *EnrollmentService) issueCertificate(ctx context.Context, m *enrollment.EnrollmentModel, now time.Time) {
	title := m.CourseID
	if c, err := s.courses.Get(ctx, m.CourseID, true); err == nil {
		title = c.Title
	}
	m.CertificateIssued = true
	m.CertificateNumber = utils.CertificateNumber(now.Year())
	m.CertificateURL = "/certificates/" + slug.Make(title) + "/" + strings.ToLower(m.CertificateNumber)
	s.log.Info("certificate issued",
		zap.String("enrollment", m.ID), zap.String("student", m.StudentID), zap.String("number", m.CertificateNumber))
}

// Unenroll 删除报名，报名数 -1
func (s *EnrollmentService) Unenroll(ctx context.Context, uid, id string) error {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if m == nil || m.StudentID != uid {
		return fail(ErrNotFound, "Enrollment not found")
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.NewEnrollmentRepo(tx).Delete(ctx, id); err != nil {
			return err
		}
		return repo.NewCourseRepo(tx).AdjustEnrolled(ctx, m.CourseID, -1)
	})
	if err != nil {
		return err
	}
	s.courses.invalidate(ctx, m.CourseID)
	return nil
}

func (s *EnrollmentService) view(ctx context.Context, m enrollment.EnrollmentModel) domain.Enrollment {
	c, err := s.courses.Get(ctx, m.CourseID, true)
	if err != nil {
		return m.ToDomain(nil)
	}
	return m.ToDomain(&c)
}
