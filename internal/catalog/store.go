// Package catalog 课程 / 选课 / 评价的内存镜像，远程调用成功后就地打补丁。
package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"skillmentor/internal/core/pubsub"
	"skillmentor/internal/domain"
	"skillmentor/internal/remote"
)

var (
	ErrAlreadyEnrolled = errors.New("catalog: already enrolled in this course")
	ErrNotFound        = errors.New("catalog: not found")
	// ErrNotApplied 请求已在后端生效，但 ctx 先结束，本地快照没有更新
	ErrNotApplied = errors.New("catalog: applied remotely, not cached")
)

// CourseAPI *remote.CoursesAPI
type CourseAPI interface {
	List(ctx context.Context, f domain.CourseFilter) (remote.Result[remote.CoursePage], error)
	Get(ctx context.Context, id string) (remote.Result[domain.Course], error)
	Create(ctx context.Context, d domain.CourseDraft) (remote.Result[domain.Course], error)
	Update(ctx context.Context, id string, p domain.CoursePatch) (remote.Result[domain.Course], error)
	Delete(ctx context.Context, id string) (remote.Result[remote.Empty], error)
}

// EnrollmentAPI *remote.EnrollmentsAPI
type EnrollmentAPI interface {
	Enroll(ctx context.Context, courseID string) (remote.Result[domain.Enrollment], error)
	List(ctx context.Context) (remote.Result[[]domain.Enrollment], error)
	UpdateProgress(ctx context.Context, id string, in domain.ProgressUpdate) (remote.Result[domain.Enrollment], error)
	Unenroll(ctx context.Context, id string) (remote.Result[remote.Empty], error)
}

// ReviewAPI *remote.ReviewsAPI
type ReviewAPI interface {
	Create(ctx context.Context, d domain.ReviewDraft) (remote.Result[domain.Review], error)
	ByCourse(ctx context.Context, courseID string) (remote.Result[[]domain.Review], error)
	Mine(ctx context.Context) (remote.Result[[]domain.Review], error)
}

type Options struct {
	Courses     CourseAPI
	Enrollments EnrollmentAPI
	Reviews     ReviewAPI
	Log         *zap.Logger
}

// Snapshot 集合副本
type Snapshot struct {
	Courses     []domain.Course
	Pagination  domain.Pagination
	Enrollments []domain.Enrollment
	Reviews     []domain.Review
	Loading     bool
	Err         string
}

// Store 只有自身的方法会写集合；网络调用在锁外，补丁在锁内
type Store struct {
	courses     CourseAPI
	enrollments EnrollmentAPI
	reviews     ReviewAPI
	log         *zap.Logger

	mu    sync.RWMutex
	st    Snapshot
	inFly int

	hub pubsub.Hub[Snapshot]
}

func New(o Options) *Store {
	l := o.Log
	if l == nil {
		l = zap.NewNop()
	}
	return &Store{
		courses:     o.Courses,
		enrollments: o.Enrollments,
		reviews:     o.Reviews,
		log:         l.Named("catalog"),
		st: Snapshot{
			Courses:     []domain.Course{},
			Enrollments: []domain.Enrollment{},
			Reviews:     []domain.Review{},
		},
	}
}

// ---- 课程 ----

// FetchCourses 整体替换课程集合
func (s *Store) FetchCourses(ctx context.Context, f domain.CourseFilter) error {
	s.begin()
	res, err := s.courses.List(ctx, f)
	if err != nil {
		return s.fail("fetch courses", err)
	}
	return s.commit(ctx, func(st *Snapshot) {
		st.Courses = replaceAll(res.Data.Courses)
		st.Pagination = res.Data.Pagination
	})
}

// FetchCourseByID 直读后端，不写缓存
func (s *Store) FetchCourseByID(ctx context.Context, id string) (*domain.Course, error) {
	if id == "" {
		return nil, s.invalid(domain.Invalid("id", "course id is required"))
	}
	s.begin()
	res, err := s.courses.Get(ctx, id)
	if err != nil {
		if remote.IsNotFound(err) {
			err = fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return nil, s.fail("fetch course", err)
	}
	if err := s.commit(ctx, nil); err != nil {
		return nil, err
	}
	c := res.Data
	return &c, nil
}

func (s *Store) AddCourse(ctx context.Context, d domain.CourseDraft) (*domain.Course, error) {
	d = d.Normalize()
	if err := domain.Validate(d); err != nil {
		return nil, s.invalid(err)
	}
	s.begin()
	res, err := s.courses.Create(ctx, d)
	if err != nil {
		return nil, s.fail("add course", err)
	}
	c := res.Data
	if err := s.commit(ctx, func(st *Snapshot) { st.Courses = appendOne(st.Courses, c) }); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) UpdateCourse(ctx context.Context, id string, p domain.CoursePatch) (*domain.Course, error) {
	if id == "" {
		return nil, s.invalid(domain.Invalid("id", "course id is required"))
	}
	p = p.Normalize()
	if err := domain.Validate(p); err != nil {
		return nil, s.invalid(err)
	}
	s.begin()
	res, err := s.courses.Update(ctx, id, p)
	if err != nil {
		return nil, s.fail("update course", err)
	}
	c := res.Data
	if c.ID == "" {
		c.ID = id
	}
	if err := s.commit(ctx, func(st *Snapshot) { st.Courses = replaceByID(st.Courses, c) }); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) DeleteCourse(ctx context.Context, id string) error {
	if id == "" {
		return s.invalid(domain.Invalid("id", "course id is required"))
	}
	s.begin()
	if _, err := s.courses.Delete(ctx, id); err != nil {
		return s.fail("delete course", err)
	}
	return s.commit(ctx, func(st *Snapshot) { st.Courses = removeByID(st.Courses, id) })
}

// ---- 选课 ----

// EnrollInCourse 已在缓存里有该课程的选课时直接返回 ErrAlreadyEnrolled，不发请求
func (s *Store) EnrollInCourse(ctx context.Context, courseID string) (*domain.Enrollment, error) {
	if courseID == "" {
		return nil, s.invalid(domain.Invalid("courseId", "course id is required"))
	}
	if _, dup := s.GetEnrollmentByCourse(courseID); dup {
		s.setErr("Already enrolled in this course")
		return nil, ErrAlreadyEnrolled
	}
	s.begin()
	res, err := s.enrollments.Enroll(ctx, courseID)
	if err != nil {
		if remote.IsConflict(err) {
			err = fmt.Errorf("%w: %w", ErrAlreadyEnrolled, err)
		}
		return nil, s.fail("enroll", err)
	}
	e := res.Data
	if err := s.commit(ctx, func(st *Snapshot) {
		st.Courses, st.Enrollments = ApplyEnrollment(st.Courses, st.Enrollments, e, courseID)
	}); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) FetchUserEnrollments(ctx context.Context) error {
	s.begin()
	res, err := s.enrollments.List(ctx)
	if err != nil {
		return s.fail("fetch enrollments", err)
	}
	return s.commit(ctx, func(st *Snapshot) { st.Enrollments = replaceAll(res.Data) })
}

// UpdateProgress progress 超出 0~100 时本地拒绝
func (s *Store) UpdateProgress(ctx context.Context, id string, progress int, moduleIndex *int) (*domain.Enrollment, error) {
	in := domain.ProgressUpdate{Progress: progress, CompletedModuleIndex: moduleIndex}
	if id == "" {
		return nil, s.invalid(domain.Invalid("id", "enrollment id is required"))
	}
	if err := domain.Validate(in); err != nil {
		return nil, s.invalid(err)
	}
	s.begin()
	res, err := s.enrollments.UpdateProgress(ctx, id, in)
	if err != nil {
		return nil, s.fail("update progress", err)
	}
	e := res.Data
	if e.ID == "" {
		e.ID = id
	}
	if err := s.commit(ctx, func(st *Snapshot) { st.Enrollments = replaceByID(st.Enrollments, e) }); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) UnenrollFromCourse(ctx context.Context, id string) error {
	if id == "" {
		return s.invalid(domain.Invalid("id", "enrollment id is required"))
	}
	s.begin()
	if _, err := s.enrollments.Unenroll(ctx, id); err != nil {
		return s.fail("unenroll", err)
	}
	return s.commit(ctx, func(st *Snapshot) { st.Enrollments = removeByID(st.Enrollments, id) })
}

// ---- 评价 ----

func (s *Store) AddReview(ctx context.Context, d domain.ReviewDraft) (*domain.Review, error) {
	if err := domain.Validate(d); err != nil {
		return nil, s.invalid(err)
	}
	s.begin()
	res, err := s.reviews.Create(ctx, d)
	if err != nil {
		return nil, s.fail("add review", err)
	}
	r := res.Data
	if err := s.commit(ctx, func(st *Snapshot) { st.Reviews = appendOne(st.Reviews, r) }); err != nil {
		return nil, err
	}
	return &r, nil
}

// FetchCourseReviews 整体替换评价集合（不按课程过滤，读取时用 GetReviewsByCourse）
func (s *Store) FetchCourseReviews(ctx context.Context, courseID string) error {
	if courseID == "" {
		return s.invalid(domain.Invalid("courseId", "course id is required"))
	}
	s.begin()
	res, err := s.reviews.ByCourse(ctx, courseID)
	if err != nil {
		return s.fail("fetch course reviews", err)
	}
	return s.commit(ctx, func(st *Snapshot) { st.Reviews = replaceAll(res.Data) })
}

func (s *Store) FetchUserReviews(ctx context.Context) error {
	s.begin()
	res, err := s.reviews.Mine(ctx)
	if err != nil {
		return s.fail("fetch user reviews", err)
	}
	return s.commit(ctx, func(st *Snapshot) { st.Reviews = replaceAll(res.Data) })
}

// ---- 查找（只读当前内存） ----

func (s *Store) GetCourseByID(id string) (domain.Course, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return FindCourse(s.st.Courses, id)
}

func (s *Store) GetEnrollmentByCourse(courseID string) (domain.Enrollment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return FindEnrollmentByCourse(s.st.Enrollments, courseID)
}

func (s *Store) GetEnrollmentByCourseAndStudent(courseID, studentID string) (domain.Enrollment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return FindEnrollment(s.st.Enrollments, courseID, studentID)
}

func (s *Store) GetReviewsByCourse(courseID string) []domain.Review {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return FilterReviews(s.st.Reviews, courseID)
}

// ---- 状态 ----

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := s.st
	snap.Courses = slices.Clone(s.st.Courses)
	snap.Enrollments = slices.Clone(s.st.Enrollments)
	snap.Reviews = slices.Clone(s.st.Reviews)
	snap.Loading = s.inFly > 0
	return snap
}

func (s *Store) Courses() []domain.Course { return s.Snapshot().Courses }

func (s *Store) Enrollments() []domain.Enrollment { return s.Snapshot().Enrollments }

func (s *Store) Reviews() []domain.Review { return s.Snapshot().Reviews }

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inFly > 0
}

// Err 最近一次失败的提示；成功的操作开始时清空
func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.Err
}

func (s *Store) ClearErr() { s.setErr("") }

func (s *Store) Subscribe(fn func(Snapshot)) (cancel func()) { return s.hub.Subscribe(fn) }

func (s *Store) Dispose() { s.hub.Reset() }

func (s *Store) begin() {
	s.mutate(func(st *Snapshot) {
		s.inFly++
		st.Err = ""
	})
}

// commit 应用补丁；ctx 已结束时丢弃结果，返回的错误同时匹配 ErrNotApplied 与 ctx.Err()
func (s *Store) commit(ctx context.Context, patch func(*Snapshot)) error {
	if err := ctx.Err(); err != nil {
		s.mutate(func(*Snapshot) { s.inFly-- })
		return fmt.Errorf("%w: %w", ErrNotApplied, err)
	}
	s.mutate(func(st *Snapshot) {
		s.inFly--
		if patch != nil {
			patch(st)
		}
	})
	return nil
}

func (s *Store) fail(op string, err error) error {
	msg := remote.Message(err)
	s.log.Debug(op+" failed", zap.Error(err))
	s.mutate(func(st *Snapshot) {
		s.inFly--
		st.Err = msg
	})
	return fmt.Errorf("%s: %w", op, err)
}

// invalid 本地校验失败，不发请求
func (s *Store) invalid(err error) error {
	s.setErr(err.Error())
	return err
}

func (s *Store) setErr(msg string) { s.mutate(func(st *Snapshot) { st.Err = msg }) }

func (s *Store) mutate(fn func(*Snapshot)) {
	s.mu.Lock()
	fn(&s.st)
	// 锁内入队，订阅者看到的顺序与修改顺序一致
	s.hub.Enqueue(s.snapshotLocked())
	s.mu.Unlock()
	s.hub.Drain()
}
