package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	slotKeyPrefix = "progress:meteora:slot"
	slotTTL       = 7 * 24 * time.Hour
)

// RedisProgressStore Redis 中的 slot 状态（幂等判重）
type RedisProgressStore struct {
	rdb redis.Cmdable
}

func NewRedisProgressStore(rdb redis.Cmdable) *RedisProgressStore {
	return &RedisProgressStore{rdb: rdb}
}

func slotKey(slot uint64) string {
	return fmt.Sprintf("%s:%d", slotKeyPrefix, slot)
}

// GetSlotStatus 获取 slot 状态，key 不存在时返回 SlotUnknown
func (r *RedisProgressStore) GetSlotStatus(ctx context.Context, slot uint64) (SlotStatus, error) {
	val, err := r.rdb.Get(ctx, slotKey(slot)).Int()
	switch {
	case errors.Is(err, redis.Nil):
		return SlotUnknown, nil
	case err != nil:
		return SlotUnknown, fmt.Errorf("redis get slot %d: %w", slot, err)
	}
	switch SlotStatus(val) {
	case SlotProcessed, SlotInvalid, SlotPending:
		return SlotStatus(val), nil
	default:
		return SlotUnknown, nil
	}
}

func (r *RedisProgressStore) MarkSlotStatus(ctx context.Context, slot uint64, status SlotStatus) error {
	if err := r.rdb.Set(ctx, slotKey(slot), int(status), slotTTL).Err(); err != nil {
		return fmt.Errorf("redis set slot %d: %w", slot, err)
	}
	return nil
}
