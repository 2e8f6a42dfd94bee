package session

import (
	"crypto/subtle"
	"strings"
	"time"

	"skillmentor/internal/core/config"
	"skillmentor/internal/domain"
	"skillmentor/pkg/utils"
)

// LocalAuthority 本地管理员捷径：保留账号不经过后端，直接得到固定管理员身份，
// 并写入哨兵 token。安全敏感路径，生产部署应关闭（localAdmin.enabled=false）。
// 密码只保存 bcrypt 哈希。
type LocalAuthority struct {
	email string
	hash  string
	token string
	since time.Time
}

func NewLocalAuthority(email, password, token string) *LocalAuthority {
	return &LocalAuthority{
		email: strings.ToLower(strings.TrimSpace(email)),
		hash:  utils.HashPassword(password),
		token: token,
		since: time.Now().UTC(),
	}
}

// LocalAuthorityFromConfig 关闭或配置不全时返回 nil
func LocalAuthorityFromConfig(c config.LocalAdmin) *LocalAuthority {
	if !c.Enabled || c.Email == "" || c.Password == "" || c.Token == "" {
		return nil
	}
	return NewLocalAuthority(c.Email, c.Password, c.Token)
}

// Match 是否保留的管理员账号密码
func (a *LocalAuthority) Match(email, password string) bool {
	if a == nil {
		return false
	}
	if strings.ToLower(strings.TrimSpace(email)) != a.email {
		return false
	}
	return utils.CheckPassword(password, a.hash)
}

// Owns 是否哨兵 token
func (a *LocalAuthority) Owns(token string) bool {
	if a == nil || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(a.token)) == 1
}

func (a *LocalAuthority) Token() string { return a.token }

// Identity 固定的管理员身份
func (a *LocalAuthority) Identity() domain.Identity {
	return domain.Identity{
		ID:            "admin-1",
		Email:         a.email,
		Name:          "Admin User",
		Role:          domain.RoleAdmin,
		IsActive:      true,
		EmailVerified: true,
		CreatedAt:     a.since,
		UpdatedAt:     a.since,
	}
}
