package progress

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBProgressStore progress_slot 表，服务重启后用于恢复进度与判重兜底
type DBProgressStore struct {
	pool *pgxpool.Pool
}

func NewDBProgressStore(pool *pgxpool.Pool) *DBProgressStore {
	return &DBProgressStore{pool: pool}
}

// CheckSlotExists 判断 slot 是否已有记录
func (d *DBProgressStore) CheckSlotExists(ctx context.Context, slot uint64) (bool, error) {
	var dummy int
	err := d.pool.QueryRow(ctx, `SELECT 1 FROM progress_slot WHERE slot = $1`, int64(slot)).Scan(&dummy)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check slot %d: %w", slot, err)
	}
	return true, nil
}

// LastProcessedSlot 最大的已处理 slot，无记录时返回 0
func (d *DBProgressStore) LastProcessedSlot(ctx context.Context) (uint64, error) {
	var slot *int64
	err := d.pool.QueryRow(ctx,
		`SELECT MAX(slot) FROM progress_slot WHERE status = $1`, int16(SlotProcessed)).Scan(&slot)
	if err != nil {
		return 0, fmt.Errorf("fetch last processed slot: %w", err)
	}
	if slot == nil {
		return 0, nil
	}
	return uint64(*slot), nil
}

// BatchInsertSlots 在一个 pgx.Batch 中写入全部记录；slot 冲突时只更新状态
func (d *DBProgressStore) BatchInsertSlots(ctx context.Context, slots []*SlotRecord) error {
	if len(slots) == 0 {
		return nil
	}
	const query = `
		INSERT INTO progress_slot (slot, source, block_time, status, updated_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
		ON CONFLICT (slot) DO UPDATE SET
			status = EXCLUDED.status,
			updated_at = CURRENT_TIMESTAMP`

	batch := &pgx.Batch{}
	for _, s := range slots {
		batch.Queue(query, int64(s.Slot), s.Source, s.BlockTime, int16(s.Status))
	}
	if err := d.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert %d progress slots: %w", len(slots), err)
	}
	return nil
}

// DeleteOldSlots 分批删除 slot < before 的记录，返回删除总数
func (d *DBProgressStore) DeleteOldSlots(ctx context.Context, before uint64) (int64, error) {
	const batchSize = 1000
	var total int64
	for {
		tag, err := d.pool.Exec(ctx,
			`DELETE FROM progress_slot WHERE slot IN (
				SELECT slot FROM progress_slot WHERE slot < $1 ORDER BY slot LIMIT $2)`,
			int64(before), batchSize)
		if err != nil {
			return total, fmt.Errorf("delete old slots: %w", err)
		}
		n := tag.RowsAffected()
		total += n
		if n < batchSize {
			return total, nil
		}
	}
}
