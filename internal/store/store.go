package store

import (
	"context"
	"errors"

	"meteora-indexer-sol/internal/model"
)

var (
	// ErrNotFound 持久层中不存在该 id
	ErrNotFound = errors.New("entity not found")
	// ErrImmutableEvent 事件类实体（swap / 流动性变更 / 手续费）写入后不可修改
	ErrImmutableEvent = errors.New("event entity is immutable")
	// ErrPersistence 持久层读写失败，整批处理中止
	ErrPersistence = errors.New("persistence failure")
)

// TableBatch 同一张表待写入的实体
type TableBatch struct {
	Table model.Table
	Rows  []model.Entity
}

// DurableStore 持久层。SaveAll 必须在一个事务内按 batches 的顺序写入。
type DurableStore interface {
	FindByID(ctx context.Context, table model.Table, id string) (model.Entity, error)
	SaveAll(ctx context.Context, batches []TableBatch) error
}
