package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Keyed 有主键的实体
type Keyed interface {
	Key() string
}

// Ref 关联字段的两种形态：只有 id（Reference），或后端 populate 过的实体（Embedded）。
// 形态在 JSON 解码时确定一次，比较一律走 ID()/Matches()。
type Ref[T Keyed] struct {
	id     string
	entity *T
}

// RefOf 只含 id 的关联
func RefOf[T Keyed](id string) Ref[T] { return Ref[T]{id: id} }

// Embed 内嵌实体的关联
func Embed[T Keyed](e T) Ref[T] { return Ref[T]{entity: &e} }

// ID 规范化后的 id
func (r Ref[T]) ID() string {
	if r.entity != nil {
		return (*r.entity).Key()
	}
	return r.id
}

// Entity 内嵌实体；Reference 形态返回 false
func (r Ref[T]) Entity() (T, bool) {
	if r.entity == nil {
		var zero T
		return zero, false
	}
	return *r.entity, true
}

func (r Ref[T]) Embedded() bool { return r.entity != nil }

func (r Ref[T]) IsZero() bool { return r.ID() == "" }

// Matches 关联是否指向 id；空关联或空 id 永远不匹配
func (r Ref[T]) Matches(id string) bool {
	return id != "" && r.ID() == id
}

func (r Ref[T]) MarshalJSON() ([]byte, error) {
	if r.entity != nil {
		return json.Marshal(r.entity)
	}
	if r.id == "" {
		return []byte("null"), nil
	}
	return json.Marshal(r.id)
}

func (r *Ref[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*r = Ref[T]{}
	case b[0] == '"':
		var id string
		if err := json.Unmarshal(b, &id); err != nil {
			return err
		}
		*r = Ref[T]{id: id}
	case b[0] == '{':
		var e T
		if err := json.Unmarshal(b, &e); err != nil {
			return err
		}
		*r = Ref[T]{entity: &e}
	default:
		return fmt.Errorf("domain: relation must be an id or an object, got %.40s", b)
	}
	return nil
}
