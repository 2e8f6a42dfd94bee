package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"skillmentor/internal/core/cache"
	"skillmentor/internal/domain"
	"skillmentor/internal/feature/course"
	"skillmentor/internal/repo"
	"skillmentor/pkg/utils"
)

const (
	courseTTL           = 5 * time.Minute
	recommendationLimit = 6
)

// CourseService 课程读走缓存；任何改动课程或其聚合字段的写操作都要 invalidate
type CourseService struct {
	db      *gorm.DB
	courses *repo.CourseRepo
	cache   *cache.Cache
	log     *zap.Logger
	gen     atomic.Int64 // 列表缓存代数，写后 +1
}

func NewCourseService(db *gorm.DB, c *cache.Cache, l *zap.Logger) *CourseService {
	if c == nil {
		c = &cache.Cache{}
	}
	return &CourseService{db: db, courses: repo.NewCourseRepo(db), cache: c, log: l}
}

// coursePage 列表缓存体
type coursePage struct {
	Courses    []domain.Course   `json:"courses"`
	Pagination domain.Pagination `json:"pagination"`
}

// List 公开列表只含启用课程；admin 可看全部。limit 为 0 时不分页
func (s *CourseService) List(ctx context.Context, f domain.CourseFilter, includeInactive bool) ([]domain.Course, domain.Pagination, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit < 0 || f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	vals, err := query.Values(f)
	if err != nil {
		return nil, domain.Pagination{}, err
	}
	key := fmt.Sprintf("courses:v%d:all=%t:%s", s.gen.Load(), includeInactive, vals.Encode())
	pg, err := cache.GetOrLoadJSON(s.cache, ctx, key, courseTTL, func(ctx context.Context) (*coursePage, error) {
		ms, total, err := s.courses.List(ctx, repo.CourseFilter{
			Category:   f.Category,
			Difficulty: string(f.Difficulty),
			Search:     f.Search,
			ActiveOnly: !includeInactive,
			Offset:     (f.Page - 1) * f.Limit,
			Limit:      f.Limit,
			Sort:       f.Sort,
		})
		if err != nil {
			return nil, err
		}
		out := &coursePage{Courses: make([]domain.Course, 0, len(ms)), Pagination: domain.NewPagination(f.Page, f.Limit, total)}
		for _, m := range ms {
			out.Courses = append(out.Courses, m.ToDomain())
		}
		return out, nil
	})
	if err != nil {
		return nil, domain.Pagination{}, err
	}
	return pg.Courses, pg.Pagination, nil
}

func (s *CourseService) Get(ctx context.Context, id string, includeInactive bool) (domain.Course, error) {
	c, err := cache.GetOrLoadJSON(s.cache, ctx, "course:"+id, courseTTL, func(ctx context.Context) (*domain.Course, error) {
		m, err := s.courses.FindByID(ctx, id)
		if err != nil || m == nil {
			return nil, err
		}
		c := m.ToDomain()
		return &c, nil
	})
	if err != nil {
		return domain.Course{}, err
	}
	if c == nil || (!c.IsActive && !includeInactive) {
		return domain.Course{}, fail(ErrNotFound, "Course not found")
	}
	return *c, nil
}

func (s *CourseService) Create(ctx context.Context, uid string, d domain.CourseDraft) (domain.Course, error) {
	d = d.Normalize()
	if err := domain.Validate(d); err != nil {
		return domain.Course{}, err
	}
	m := course.FromDraft(d)
	m.ID = utils.NewID()
	m.Slug = courseSlug(m.Title, m.ID)
	m.CreatedBy = uid
	if err := s.courses.Create(ctx, &m); err != nil {
		return domain.Course{}, err
	}
	s.invalidate(ctx)
	return m.ToDomain(), nil
}

func (s *CourseService) Update(ctx context.Context, id string, p domain.CoursePatch) (domain.Course, error) {
	p = p.Normalize()
	if err := domain.Validate(p); err != nil {
		return domain.Course{}, err
	}
	m, err := s.courses.FindByID(ctx, id)
	if err != nil {
		return domain.Course{}, err
	}
	if m == nil {
		return domain.Course{}, fail(ErrNotFound, "Course not found")
	}
	cols := course.Changes(p)
	if p.Title != nil {
		cols["slug"] = courseSlug(*p.Title, id)
	}
	if len(cols) > 0 {
		if _, err := s.courses.Updates(ctx, id, cols); err != nil {
			return domain.Course{}, err
		}
	}
	if p.Syllabus != nil || p.Tags != nil || p.Prerequisites != nil || p.LearningOutcomes != nil {
		if p.Syllabus != nil {
			m.Syllabus = p.Syllabus
		}
		if p.Tags != nil {
			m.Tags = p.Tags
		}
		if p.Prerequisites != nil {
			m.Prerequisites = p.Prerequisites
		}
		if p.LearningOutcomes != nil {
			m.LearningOutcomes = p.LearningOutcomes
		}
		if err := s.courses.SaveLists(ctx, m); err != nil {
			return domain.Course{}, err
		}
	}
	s.invalidate(ctx, id)
	return s.Get(ctx, id, true)
}

func (s *CourseService) Delete(ctx context.Context, id string) error {
	ok, err := s.courses.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fail(ErrNotFound, "Course not found")
	}
	s.invalidate(ctx, id)
	return nil
}

// Recommendations 未报名的启用课程，优先学员已在学的分类
func (s *CourseService) Recommendations(ctx context.Context, uid string) ([]domain.Course, error) {
	enrolled, err := repo.NewEnrollmentRepo(s.db).CourseIDs(ctx, uid)
	if err != nil {
		return nil, err
	}
	var prefer []string
	if len(enrolled) > 0 {
		byID, err := s.courses.ByIDs(ctx, enrolled)
		if err != nil {
			return nil, err
		}
		seen := map[string]bool{}
		for _, c := range byID {
			if c.Category != "" && !seen[c.Category] {
				seen[c.Category] = true
				prefer = append(prefer, c.Category)
			}
		}
	}
	ms, err := s.courses.Recommend(ctx, enrolled, prefer, recommendationLimit)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Course, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.ToDomain())
	}
	return out, nil
}

// invalidate 列表整体失效，单条按 id 删
func (s *CourseService) invalidate(ctx context.Context, ids ...string) {
	s.gen.Add(1)
	if len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = "course:" + id
	}
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.log.Warn("course cache invalidate", zap.Strings("ids", ids), zap.Error(err))
	}
}

func courseSlug(title, id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return slug.Make(title) + "-" + id
}
