package progress

import (
	"context"
	"time"

	"meteora-indexer-sol/internal/pkg/logger"
)

// StatusCache slot 状态缓存（Redis）
type StatusCache interface {
	GetSlotStatus(ctx context.Context, slot uint64) (SlotStatus, error)
	MarkSlotStatus(ctx context.Context, slot uint64, status SlotStatus) error
}

// SlotStore slot 持久记录（Postgres）
type SlotStore interface {
	CheckSlotExists(ctx context.Context, slot uint64) (bool, error)
	LastProcessedSlot(ctx context.Context) (uint64, error)
	BatchInsertSlots(ctx context.Context, slots []*SlotRecord) error
	DeleteOldSlots(ctx context.Context, before uint64) (int64, error)
}

// 保留约 7 天的 slot 记录（每秒约 2.5 个 slot）
const retainSlots = uint64(7 * 24 * 3600 * 5 / 2)

// ProgressManager 统一封装 Redis + DB + 缓冲，控制 slot 判重与进度写入。
// cache / db 均可为 nil（未配置 Redis 或 Postgres 时退化为只判近期）。
type ProgressManager struct {
	cache           StatusCache
	db              SlotStore
	buffer          *slotBuffer
	recentThreshold time.Duration
	now             func() time.Time
}

func NewProgressManager(cache StatusCache, db SlotStore, recentThresholdSec int) *ProgressManager {
	if recentThresholdSec <= 0 {
		recentThresholdSec = 60
	}
	return &ProgressManager{
		cache:           cache,
		db:              db,
		buffer:          newSlotBuffer(),
		recentThreshold: time.Duration(recentThresholdSec) * time.Second,
		now:             time.Now,
	}
}

// ShouldProcessSlot 判断是否需要处理该 slot：
//   - 近期 block 直接处理；
//   - 旧 block（重连补推）先查 Redis，再兜底查 DB，已处理过的跳过。
func (pm *ProgressManager) ShouldProcessSlot(ctx context.Context, slot uint64, blockTime int64) (bool, error) {
	if pm.now().Sub(time.Unix(blockTime, 0)) <= pm.recentThreshold {
		return true, nil
	}

	if pm.cache != nil {
		status, err := pm.cache.GetSlotStatus(ctx, slot)
		if err != nil {
			return false, err
		}
		switch status {
		case SlotProcessed, SlotInvalid:
			return false, nil
		case SlotPending:
			// 上次处理中途退出，需要重做
			return true, nil
		}
	}

	if pm.db == nil {
		return true, nil
	}
	exists, err := pm.db.CheckSlotExists(ctx, slot)
	if err != nil {
		return false, err
	}
	if exists && pm.cache != nil {
		_ = pm.cache.MarkSlotStatus(ctx, slot, SlotProcessed)
	}
	return !exists, nil
}

// MarkSlotStatus 写入 Redis 状态，并把终态记录加入缓冲等待批量落库
func (pm *ProgressManager) MarkSlotStatus(ctx context.Context, slot uint64, source int16, blockTime int64, status SlotStatus) error {
	if pm.cache != nil {
		if err := pm.cache.MarkSlotStatus(ctx, slot, status); err != nil {
			return err
		}
	}
	if status != SlotProcessed && status != SlotInvalid {
		return nil
	}
	pm.buffer.Add(&SlotRecord{
		Slot:      slot,
		Source:    source,
		BlockTime: blockTime,
		Status:    status,
	})
	return nil
}

// LastProcessedSlot 服务启动时读取已落库的最大 slot
func (pm *ProgressManager) LastProcessedSlot(ctx context.Context) (uint64, error) {
	if pm.db == nil {
		return 0, nil
	}
	return pm.db.LastProcessedSlot(ctx)
}

// Flush 把缓冲中的记录写入 DB；失败时放回缓冲
func (pm *ProgressManager) Flush(ctx context.Context) error {
	records := pm.buffer.Flush()
	if len(records) == 0 || pm.db == nil {
		return nil
	}
	if err := pm.db.BatchInsertSlots(ctx, records); err != nil {
		pm.buffer.Requeue(records)
		return err
	}
	return nil
}

// Pending 缓冲中尚未落库的记录数
func (pm *ProgressManager) Pending() int {
	return pm.buffer.Len()
}

// StartFlushLoop 定时 flush，ctx 取消时做最后一次 flush 后返回
func (pm *ProgressManager) StartFlushLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := pm.Flush(context.Background()); err != nil {
				logger.Errorf("[Progress] final flush failed, pending=%d: %v", pm.Pending(), err)
			}
			return
		case <-ticker.C:
			if err := pm.Flush(ctx); err != nil {
				logger.Warnf("[Progress] flush failed, pending=%d: %v", pm.Pending(), err)
			}
		}
	}
}

// GC 删除 latestSlot 之前约 7 天以外的记录
func (pm *ProgressManager) GC(ctx context.Context, latestSlot uint64) {
	if pm.db == nil || latestSlot <= retainSlots {
		return
	}
	n, err := pm.db.DeleteOldSlots(ctx, latestSlot-retainSlots)
	if err != nil {
		logger.Warnf("[Progress] gc failed: %v", err)
		return
	}
	if n > 0 {
		logger.Infof("[Progress] gc deleted %d old progress rows", n)
	}
}
