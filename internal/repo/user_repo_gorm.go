package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"skillmentor/internal/domain"
	"skillmentor/internal/feature/user"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

// UserFilter 管理端列表条件
type UserFilter struct {
	Offset int
	Limit  int
	Role   string
	Search string // email / name 模糊
}

func (r *UserRepo) Create(ctx context.Context, u *user.UserModel) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*user.UserModel, error) {
	var u user.UserModel
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &u, err
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*user.UserModel, error) {
	var u user.UserModel
	err := r.db.WithContext(ctx).First(&u, "email = ?", strings.ToLower(email)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &u, err
}

// ByIDs 批量取，返回 id → 用户
func (r *UserRepo) ByIDs(ctx context.Context, ids []string) (map[string]user.UserModel, error) {
	out := make(map[string]user.UserModel, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var us []user.UserModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&us).Error; err != nil {
		return nil, err
	}
	for _, u := range us {
		out[u.ID] = u
	}
	return out, nil
}

func (r *UserRepo) List(ctx context.Context, f UserFilter) ([]user.UserModel, int64, error) {
	tx := r.db.WithContext(ctx).Model(&user.UserModel{})
	if f.Role != "" {
		tx = tx.Where("role = ?", f.Role)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + s + "%"
		tx = tx.Where("email LIKE ? OR name LIKE ?", like, like)
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []user.UserModel
	if err := tx.Offset(f.Offset).Limit(f.Limit).Order("created_at desc").Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Updates 按列更新；返回是否命中
func (r *UserRepo) Updates(ctx context.Context, id string, cols map[string]any) (bool, error) {
	if len(cols) == 0 {
		return true, nil
	}
	res := r.db.WithContext(ctx).Model(&user.UserModel{}).Where("id = ?", id).Updates(cols)
	return res.RowsAffected > 0, res.Error
}

func (r *UserRepo) SoftDelete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&user.UserModel{})
	return res.RowsAffected > 0, res.Error
}

// Count role 为空统计全部；activeOnly 只算启用的
func (r *UserRepo) Count(ctx context.Context, role string, activeOnly bool) (int64, error) {
	tx := r.db.WithContext(ctx).Model(&user.UserModel{})
	if role != "" {
		tx = tx.Where("role = ?", role)
	}
	if activeOnly {
		tx = tx.Where("is_active = ?", true)
	}
	var n int64
	return n, tx.Count(&n).Error
}

// CreatedSince since 之后注册的用户创建时间（升序）
func (r *UserRepo) CreatedSince(ctx context.Context, role string, since time.Time) ([]time.Time, error) {
	var ts []time.Time
	tx := r.db.WithContext(ctx).Model(&user.UserModel{}).Where("created_at >= ?", since)
	if role != "" {
		tx = tx.Where("role = ?", role)
	}
	err := tx.Order("created_at asc").Pluck("created_at", &ts).Error
	return ts, err
}

// CountActiveSince since 之后登录过的用户数
func (r *UserRepo) CountActiveSince(ctx context.Context, role string, since time.Time) (int64, error) {
	tx := r.db.WithContext(ctx).Model(&user.UserModel{}).Where("last_login_at >= ?", since)
	if role != "" {
		tx = tx.Where("role = ?", role)
	}
	var n int64
	return n, tx.Count(&n).Error
}

// IsDuplicate 唯一键冲突；不依赖 gorm.ErrDuplicatedKey（需 TranslateError，各驱动表现不一）
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}

// SaveProfile profile 走 json serializer，必须用结构体 + Select 写
func (r *UserRepo) SaveProfile(ctx context.Context, id string, p *domain.Profile) error {
	return r.db.WithContext(ctx).Model(&user.UserModel{ID: id}).
		Select("profile").Updates(&user.UserModel{Profile: p}).Error
}
