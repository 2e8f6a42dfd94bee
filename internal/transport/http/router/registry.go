package router

import (
	"sort"

	"skillmentor/internal/transport/http/ez"
)

// APIModule 模块可选择实现其中一个或两个接口
type APIModule interface{ MountAPI(api ez.EZ) }
type AdminModule interface{ MountAdmin(admin ez.EZ) }

// 可选：实现该接口可控制挂载顺序（数值越小越先挂）
// 不实现则默认 100
type prioritizer interface{ Priority() int }

// Registry 按引擎实例收集模块，测试里可并行建多个引擎
type Registry struct {
	api   []APIModule
	admin []AdminModule
}

// Register 根据类型断言分发到 API/Admin 列表
func (r *Registry) Register(mods ...any) {
	for _, mod := range mods {
		if m, ok := mod.(APIModule); ok {
			r.api = append(r.api, m)
		}
		if m, ok := mod.(AdminModule); ok {
			r.admin = append(r.admin, m)
		}
	}
}

// MountAllAPI 在 /api 上挂载
func (r *Registry) MountAllAPI(api ez.EZ) {
	mods := append([]APIModule(nil), r.api...)
	sort.SliceStable(mods, func(i, j int) bool {
		return priorityOf(mods[i]) < priorityOf(mods[j])
	})
	for _, m := range mods {
		m.MountAPI(api)
	}
}

// MountAllAdmin 在 /api/admin 上挂载
func (r *Registry) MountAllAdmin(admin ez.EZ) {
	mods := append([]AdminModule(nil), r.admin...)
	sort.SliceStable(mods, func(i, j int) bool {
		return priorityOf(mods[i]) < priorityOf(mods[j])
	})
	for _, m := range mods {
		m.MountAdmin(admin)
	}
}

func priorityOf(v any) int {
	if p, ok := v.(prioritizer); ok {
		return p.Priority()
	}
	return 100
}
