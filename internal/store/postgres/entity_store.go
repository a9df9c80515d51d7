package postgres

import (
	"context"
	"fmt"

	"meteora-indexer-sol/internal/model"
	"meteora-indexer-sol/internal/store"

	"github.com/jackc/pgx/v5"
)

// EntityStore 以 PostgreSQL 实现 store.DurableStore
type EntityStore struct {
	pool *Pool
}

func NewEntityStore(pool *Pool) *EntityStore {
	return &EntityStore{pool: pool}
}

var _ store.DurableStore = (*EntityStore)(nil)

// FindByID 按主键读取单个实体，不存在返回 store.ErrNotFound
func (s *EntityStore) FindByID(ctx context.Context, table model.Table, id string) (model.Entity, error) {
	if table >= model.TableCount {
		return nil, fmt.Errorf("find by id: unknown table %d", table)
	}
	m := mappers[table]
	e, err := m.scan(s.pool.QueryRow(ctx, m.selectSQL, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("find %s/%s: %w", table, id, err)
	}
	return e, nil
}

// SaveAll 在一个事务内按 batches 顺序写入，任一失败整体回滚
func (s *EntityStore) SaveAll(ctx context.Context, batches []store.TableBatch) error {
	if len(batches) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, b := range batches {
		if err := s.saveBatch(ctx, tx, b); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *EntityStore) saveBatch(ctx context.Context, tx pgx.Tx, b store.TableBatch) error {
	if len(b.Rows) == 0 {
		return nil
	}
	if b.Table >= model.TableCount {
		return fmt.Errorf("save batch: unknown table %d", b.Table)
	}
	m := mappers[b.Table]

	batch := &pgx.Batch{}
	for _, row := range b.Rows {
		batch.Queue(m.upsertSQL, m.args(row)...)
	}

	br := tx.SendBatch(ctx, batch)
	for i := range b.Rows {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			switch {
			case isForeignKeyError(err):
				return fmt.Errorf("upsert %s/%s: foreign key violation: %w", b.Table, b.Rows[i].EntityID(), err)
			case isDuplicateKeyError(err):
				return fmt.Errorf("upsert %s/%s: duplicate key: %w", b.Table, b.Rows[i].EntityID(), err)
			default:
				return fmt.Errorf("upsert %s/%s: %w", b.Table, b.Rows[i].EntityID(), err)
			}
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close batch %s: %w", b.Table, err)
	}
	return nil
}
