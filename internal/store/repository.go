package store

import (
	"context"
	"errors"
	"fmt"

	"meteora-indexer-sol/internal/model"
)

// Repository 是单表的写穿缓存：读取时先查缓存，未命中再查持久层并提升到缓存；
// 写入只落缓存并标记 dirty，由 UnitOfWork.Flush 统一落库。
type Repository[T model.Entity] struct {
	table   model.Table
	durable DurableStore

	items map[string]T
	order []string // 插入顺序
	dirty map[string]struct{}
}

func NewRepository[T model.Entity](table model.Table, durable DurableStore) *Repository[T] {
	return &Repository[T]{
		table:   table,
		durable: durable,
		items:   make(map[string]T),
		dirty:   make(map[string]struct{}),
	}
}

// Table 返回仓库对应的表
func (r *Repository[T]) Table() model.Table {
	return r.table
}

// Find 按 id 查找；found=false 表示两层都不存在
func (r *Repository[T]) Find(ctx context.Context, id string) (T, bool, error) {
	var zero T
	if v, ok := r.items[id]; ok {
		return v, true, nil
	}
	if r.durable == nil {
		return zero, false, nil
	}

	e, err := r.durable.FindByID(ctx, r.table, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return zero, false, nil
		}
		return zero, false, fmt.Errorf("%w: find %s/%s: %w", ErrPersistence, r.table, id, err)
	}
	v, ok := e.(T)
	if !ok {
		return zero, false, fmt.Errorf("%w: find %s/%s: unexpected type %T", ErrPersistence, r.table, id, e)
	}
	r.put(v)
	return v, true, nil
}

// Cached 只查缓存
func (r *Repository[T]) Cached(id string) (T, bool) {
	v, ok := r.items[id]
	return v, ok
}

// Save 写入缓存并标记待落库；同 id 覆盖
func (r *Repository[T]) Save(v T) {
	r.put(v)
	r.dirty[v.EntityID()] = struct{}{}
}

// Update 覆盖可变实体；事件类实体返回 ErrImmutableEvent
func (r *Repository[T]) Update(v T) error {
	if r.table.IsEvent() {
		return fmt.Errorf("%w: %s/%s", ErrImmutableEvent, r.table, v.EntityID())
	}
	r.Save(v)
	return nil
}

// All 按插入顺序返回缓存中的全部实体
func (r *Repository[T]) All() []T {
	out := make([]T, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id])
	}
	return out
}

// Dirty 按插入顺序返回待落库的实体
func (r *Repository[T]) Dirty() []model.Entity {
	out := make([]model.Entity, 0, len(r.dirty))
	for _, id := range r.order {
		if _, ok := r.dirty[id]; ok {
			out = append(out, r.items[id])
		}
	}
	return out
}

// Len 缓存条目数
func (r *Repository[T]) Len() int {
	return len(r.order)
}

// MarkClean 落库成功后清除 dirty 标记，缓存保留
func (r *Repository[T]) MarkClean() {
	clear(r.dirty)
}

// Reset 清空缓存与 dirty 标记
func (r *Repository[T]) Reset() {
	clear(r.items)
	clear(r.dirty)
	r.order = r.order[:0]
}

func (r *Repository[T]) put(v T) {
	id := v.EntityID()
	if _, ok := r.items[id]; !ok {
		r.order = append(r.order, id)
	}
	r.items[id] = v
}
