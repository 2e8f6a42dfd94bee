package ez

import (
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"skillmentor/internal/domain"
	resp "skillmentor/internal/transport/http/response"
	"skillmentor/pkg/utils"
)

// Hook
type CrudHooks[T any] struct {
	BeforeCreate func(c *gin.Context, m *T) error
	BeforeUpdate func(c *gin.Context, m *T) error
	ScopeList    func(c *gin.Context, q *gorm.DB) *gorm.DB // 自定义筛选/排序
}

// CrudConfig 归属于当前用户的资源 CRUD；响应形如 {data: {<Single>: ...}} / {data: {<Plural>: [...], pagination}}
type CrudConfig[T any] struct {
	DB   *gorm.DB
	EZ   EZ // 已鉴权分组（能拿 userId）
	Path string
	New  func() *T

	Name   string         // 文案里的资源名，如 "Note"
	Single string         // 单条 key，如 "note"
	Plural string         // 列表 key，如 "notes"
	View   func(m *T) any // 对外视图，默认原样输出

	Hooks CrudHooks[T]

	AllowCreate bool
	AllowList   bool
	AllowGet    bool
	AllowUpdate bool
	AllowDelete bool

	IDField    string // 默认 "ID"
	OwnerField string // 默认优先 "OwnerID"，其次 "UserID"/"UID"

	IDGen func() string // 默认 utils.NewID

	// 列表排序（列名按模型字段自动转 snake_case），为空则按 ID DESC
	OrderBy string // 例如 "created_at DESC"
}

// 反射 & 工具
func (c *CrudConfig[T]) idFieldCandidates() []string {
	if c.IDField != "" {
		return []string{c.IDField, "ID", "Id"}
	}
	return []string{"ID", "Id"}
}

func (c *CrudConfig[T]) ownerFieldCandidates() []string {
	if c.OwnerField != "" {
		return []string{c.OwnerField, "OwnerID", "UserID", "UID"}
	}
	return []string{"OwnerID", "UserID", "UID"}
}

func (c *CrudConfig[T]) view(m *T) any {
	if c.View != nil {
		return c.View(m)
	}
	return m
}

func getStringFieldPtr(obj any, candidates []string) (*string, bool) {
	v := reflect.ValueOf(obj)
	if v.Kind() != reflect.Ptr {
		return nil, false
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return nil, false
	}
	t := v.Type()
	for _, cand := range candidates {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			// 未导出字段跳过
			if f.PkgPath != "" || f.Name != cand {
				continue
			}
			fv := v.Field(i)
			if fv.Kind() == reflect.String && fv.CanSet() {
				return fv.Addr().Interface().(*string), true
			}
		}
	}
	return nil, false
}

func writeStringField(obj any, candidates []string, val string) bool {
	p, ok := getStringFieldPtr(obj, candidates)
	if !ok {
		return false
	}
	*p = val
	return true
}

func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

func toSnake(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Crud 注册（无需模型实现任何接口）；表结构由启动期统一迁移
func Crud[T any](cfg CrudConfig[T]) {
	// 默认放开所有操作
	if !cfg.AllowCreate && !cfg.AllowGet && !cfg.AllowList && !cfg.AllowUpdate && !cfg.AllowDelete {
		cfg.AllowCreate, cfg.AllowList, cfg.AllowGet, cfg.AllowUpdate, cfg.AllowDelete = true, true, true, true, true
	}
	if cfg.IDGen == nil {
		cfg.IDGen = utils.NewID
	}
	e := cfg.EZ
	idFieldNames := cfg.idFieldCandidates()
	ownerFieldNames := cfg.ownerFieldCandidates()
	notFound := NotFound(cfg.Name + " not found")

	// owned 按 id + owner 取一条
	owned := func(c *gin.Context, id, uid string) (*T, error) {
		filter := cfg.New()
		_ = writeStringField(filter, idFieldNames, id)
		_ = writeStringField(filter, ownerFieldNames, uid)
		m := cfg.New()
		res := cfg.DB.WithContext(c).Where(filter).Limit(1).Find(m)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, notFound
		}
		return m, nil
	}

	// Create
	if cfg.AllowCreate {
		e.g.POST(cfg.Path, func(c *gin.Context) {
			uid := UserID(c)
			if uid == "" {
				e.Fail(c, Unauthorized("Not authorized, please log in"))
				return
			}
			m := cfg.New()
			if err := c.ShouldBindJSON(m); err != nil {
				e.Fail(c, bindError(err))
				return
			}
			// 服务端生成 ID，忽略客户端传值
			if !writeStringField(m, idFieldNames, cfg.IDGen()) {
				e.Fail(c, Internal("id field not found", nil))
				return
			}
			// 写 Owner
			if !writeStringField(m, ownerFieldNames, uid) {
				e.Fail(c, Internal("owner field not found", nil))
				return
			}
			if cfg.Hooks.BeforeCreate != nil {
				if err := cfg.Hooks.BeforeCreate(c, m); err != nil {
					e.Fail(c, err)
					return
				}
			}
			if err := cfg.DB.WithContext(c).Create(m).Error; err != nil {
				e.Fail(c, err)
				return
			}
			c.JSON(http.StatusCreated, resp.OK(cfg.Name+" created successfully", gin.H{cfg.Single: cfg.view(m)}))
		})
	}

	// List（我的）
	if cfg.AllowList {
		e.g.GET(cfg.Path, func(c *gin.Context) {
			uid := UserID(c)
			if uid == "" {
				e.Fail(c, Unauthorized("Not authorized, please log in"))
				return
			}
			page := atoiDefault(c.Query("page"), 1)
			limit := atoiDefault(c.Query("limit"), 100)
			if limit > 100 {
				limit = 100
			}
			offset := (page - 1) * limit

			// 用结构体 Where 自动映射列名，避免手写 owner_id
			ownerFilter := cfg.New()
			if !writeStringField(ownerFilter, ownerFieldNames, uid) {
				e.Fail(c, Internal("owner field not found", nil))
				return
			}

			q := cfg.DB.WithContext(c).Model(cfg.New()).Where(ownerFilter)
			if cfg.Hooks.ScopeList != nil {
				q = cfg.Hooks.ScopeList(c, q)
			}

			var total int64
			if err := q.Count(&total).Error; err != nil {
				e.Fail(c, err)
				return
			}

			var items []T
			// 动态排序：优先按配置 OrderBy，否则按 ID DESC
			if cfg.OrderBy != "" {
				q = q.Order(cfg.OrderBy)
			} else {
				idCol := toSnake(idFieldNames[0])
				if idCol == "" {
					idCol = "id"
				}
				q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: idCol}, Desc: true})
			}
			if err := q.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
				e.Fail(c, err)
				return
			}
			views := make([]any, 0, len(items))
			for i := range items {
				views = append(views, cfg.view(&items[i]))
			}
			c.JSON(http.StatusOK, resp.OK("", gin.H{
				cfg.Plural:   views,
				"pagination": domain.NewPagination(page, limit, total),
			}))
		})
	}

	// Get
	if cfg.AllowGet {
		e.g.GET(cfg.Path+"/:id", func(c *gin.Context) {
			uid := UserID(c)
			if uid == "" {
				e.Fail(c, Unauthorized("Not authorized, please log in"))
				return
			}
			m, err := owned(c, c.Param("id"), uid)
			if err != nil {
				e.Fail(c, err)
				return
			}
			c.JSON(http.StatusOK, resp.OK("", gin.H{cfg.Single: cfg.view(m)}))
		})
	}

	// Update
	if cfg.AllowUpdate {
		e.g.PUT(cfg.Path+"/:id", func(c *gin.Context) {
			uid := UserID(c)
			if uid == "" {
				e.Fail(c, Unauthorized("Not authorized, please log in"))
				return
			}
			id := c.Param("id")

			// 先确认归属
			if _, err := owned(c, id, uid); err != nil {
				e.Fail(c, err)
				return
			}

			in := cfg.New()
			if err := c.ShouldBindJSON(in); err != nil {
				e.Fail(c, bindError(err))
				return
			}
			// 强制保持 ID/Owner
			_ = writeStringField(in, idFieldNames, id)
			_ = writeStringField(in, ownerFieldNames, uid)

			if cfg.Hooks.BeforeUpdate != nil {
				if err := cfg.Hooks.BeforeUpdate(c, in); err != nil {
					e.Fail(c, err)
					return
				}
			}
			check := cfg.New()
			_ = writeStringField(check, idFieldNames, id)
			_ = writeStringField(check, ownerFieldNames, uid)
			// struct Updates 只写非零字段，即部分更新
			if err := cfg.DB.WithContext(c).Model(cfg.New()).Where(check).Updates(in).Error; err != nil {
				e.Fail(c, err)
				return
			}
			m, err := owned(c, id, uid)
			if err != nil {
				e.Fail(c, err)
				return
			}
			c.JSON(http.StatusOK, resp.OK(cfg.Name+" updated successfully", gin.H{cfg.Single: cfg.view(m)}))
		})
	}

	// Delete
	if cfg.AllowDelete {
		e.g.DELETE(cfg.Path+"/:id", func(c *gin.Context) {
			uid := UserID(c)
			if uid == "" {
				e.Fail(c, Unauthorized("Not authorized, please log in"))
				return
			}
			filter := cfg.New()
			_ = writeStringField(filter, idFieldNames, c.Param("id"))
			_ = writeStringField(filter, ownerFieldNames, uid)

			res := cfg.DB.WithContext(c).Where(filter).Delete(cfg.New())
			if res.Error != nil {
				e.Fail(c, res.Error)
				return
			}
			if res.RowsAffected == 0 {
				e.Fail(c, notFound)
				return
			}
			c.JSON(http.StatusOK, resp.OK(cfg.Name+" deleted successfully", nil))
		})
	}
}
