package store

import (
	"context"
	"sync"

	"meteora-indexer-sol/internal/model"
)

// MemoryStore 进程内持久层，用于未配置 Postgres 时的试运行与测试。
// 写入和读取都做拷贝，缓存中的实体被修改不会影响已落库的数据
type MemoryStore struct {
	mu     sync.RWMutex
	tables [model.TableCount]map[string]model.Entity
	saves  int
}

func NewMemoryStore() *MemoryStore {
	m := &MemoryStore{}
	for i := range m.tables {
		m.tables[i] = make(map[string]model.Entity)
	}
	return m
}

func (m *MemoryStore) FindByID(_ context.Context, table model.Table, id string) (model.Entity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if table >= model.TableCount {
		return nil, ErrNotFound
	}
	e, ok := m.tables[table][id]
	if !ok {
		return nil, ErrNotFound
	}
	return model.Clone(e), nil
}

func (m *MemoryStore) SaveAll(_ context.Context, batches []TableBatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range batches {
		for _, row := range b.Rows {
			if b.Table.IsEvent() {
				// 事件重放不覆盖
				if _, ok := m.tables[b.Table][row.EntityID()]; ok {
					continue
				}
			}
			m.tables[b.Table][row.EntityID()] = model.Clone(row)
		}
	}
	m.saves++
	return nil
}

// Count 返回某张表的行数
func (m *MemoryStore) Count(table model.Table) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tables[table])
}

// Saves 返回 SaveAll 调用次数
func (m *MemoryStore) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

var _ DurableStore = (*MemoryStore)(nil)
