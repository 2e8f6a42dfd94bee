package service

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"skillmentor/internal/domain"
	"skillmentor/internal/repo"
)

type UserService struct {
	db      *gorm.DB
	users   *repo.UserRepo
	courses *CourseService
	log     *zap.Logger
}

func NewUserService(db *gorm.DB, courses *CourseService, l *zap.Logger) *UserService {
	return &UserService{db: db, users: repo.NewUserRepo(db), courses: courses, log: l}
}

const (
	defaultUserLimit = 10
	maxListLimit     = 100
)

func (s *UserService) List(ctx context.Context, q domain.UserQuery) ([]domain.Identity, domain.Pagination, error) {
	page, limit := pageLimit(q.Page, q.Limit, defaultUserLimit)
	ms, total, err := s.users.List(ctx, repo.UserFilter{
		Offset: (page - 1) * limit,
		Limit:  limit,
		Role:   string(q.Role),
		Search: q.Search,
	})
	if err != nil {
		return nil, domain.Pagination{}, err
	}
	out := make([]domain.Identity, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.ToDomain())
	}
	return out, domain.NewPagination(page, limit, total), nil
}

func (s *UserService) Get(ctx context.Context, id string) (domain.Identity, error) {
	m, err := s.users.FindByID(ctx, id)
	if err != nil {
		return domain.Identity{}, err
	}
	if m == nil {
		return domain.Identity{}, fail(ErrNotFound, "User not found")
	}
	return m.ToDomain(), nil
}

// Update 管理端编辑；email 变更要查重
func (s *UserService) Update(ctx context.Context, id string, in domain.UserUpdate) (domain.Identity, error) {
	if err := domain.Validate(in); err != nil {
		return domain.Identity{}, err
	}
	cur, err := s.users.FindByID(ctx, id)
	if err != nil {
		return domain.Identity{}, err
	}
	if cur == nil {
		return domain.Identity{}, fail(ErrNotFound, "User not found")
	}
	cols := map[string]any{}
	if in.Name != nil {
		cols["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email != cur.Email {
			other, err := s.users.FindByEmail(ctx, email)
			if err != nil {
				return domain.Identity{}, err
			}
			if other != nil {
				return domain.Identity{}, fail(ErrConflict, "Email is already in use")
			}
			cols["email"] = email
		}
	}
	if in.IsActive != nil {
		cols["is_active"] = *in.IsActive
	}
	if _, err := s.users.Updates(ctx, id, cols); err != nil {
		return domain.Identity{}, err
	}
	if in.Profile != nil {
		if err := s.users.SaveProfile(ctx, id, mergeProfile(cur.Profile, in.Profile)); err != nil {
			return domain.Identity{}, err
		}
	}
	return s.Get(ctx, id)
}

func (s *UserService) SetStatus(ctx context.Context, id string, active bool) (domain.Identity, error) {
	ok, err := s.users.Updates(ctx, id, map[string]any{"is_active": active})
	if err != nil {
		return domain.Identity{}, err
	}
	if !ok {
		return domain.Identity{}, fail(ErrNotFound, "User not found")
	}
	return s.Get(ctx, id)
}

// UpdateProfile 本人改名字 / 资料
func (s *UserService) UpdateProfile(ctx context.Context, uid string, in domain.ProfileUpdate) (domain.Identity, error) {
	if err := domain.Validate(in); err != nil {
		return domain.Identity{}, err
	}
	cur, err := s.users.FindByID(ctx, uid)
	if err != nil {
		return domain.Identity{}, err
	}
	if cur == nil {
		return domain.Identity{}, fail(ErrNotFound, "User not found")
	}
	if in.Name != nil {
		if _, err := s.users.Updates(ctx, uid, map[string]any{"name": strings.TrimSpace(*in.Name)}); err != nil {
			return domain.Identity{}, err
		}
	}
	if in.Profile != nil {
		if err := s.users.SaveProfile(ctx, uid, mergeProfile(cur.Profile, in.Profile)); err != nil {
			return domain.Identity{}, err
		}
	}
	return s.Get(ctx, uid)
}

// Delete 软删学员，并撤掉其报名（课程报名数同步减）
func (s *UserService) Delete(ctx context.Context, id string) error {
	var courseIDs []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := repo.NewUserRepo(tx).SoftDelete(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return fail(ErrNotFound, "User not found")
		}
		if courseIDs, err = repo.NewEnrollmentRepo(tx).DeleteByStudent(ctx, id); err != nil {
			return err
		}
		cr := repo.NewCourseRepo(tx)
		for _, cid := range courseIDs {
			if err := cr.AdjustEnrolled(ctx, cid, -1); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.courses.invalidate(ctx, courseIDs...)
	return nil
}

// mergeProfile 非空字段覆盖旧值
func mergeProfile(old, in *domain.Profile) *domain.Profile {
	if old == nil {
		return in
	}
	p := *old
	str := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	str(&p.FatherName, in.FatherName)
	str(&p.MotherName, in.MotherName)
	str(&p.ContactNo, in.ContactNo)
	str(&p.Education, in.Education)
	str(&p.University, in.University)
	str(&p.Degree, in.Degree)
	str(&p.Major, in.Major)
	str(&p.YearOfCompletion, in.YearOfCompletion)
	if in.Skills != nil {
		p.Skills = in.Skills
	}
	if in.AreasOfInterest != nil {
		p.AreasOfInterest = in.AreasOfInterest
	}
	return &p
}

func pageLimit(page, limit, def int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > maxListLimit {
		limit = def
	}
	return page, limit
}
