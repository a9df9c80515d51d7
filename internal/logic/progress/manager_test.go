package progress

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCache struct {
	status map[uint64]SlotStatus
}

func (f *fakeCache) GetSlotStatus(_ context.Context, slot uint64) (SlotStatus, error) {
	return f.status[slot], nil
}

func (f *fakeCache) MarkSlotStatus(_ context.Context, slot uint64, status SlotStatus) error {
	f.status[slot] = status
	return nil
}

type fakeSlotStore struct {
	rows    map[uint64]*SlotRecord
	failing bool
	deleted uint64
}

func newFakeSlotStore() *fakeSlotStore {
	return &fakeSlotStore{rows: make(map[uint64]*SlotRecord)}
}

func (f *fakeSlotStore) CheckSlotExists(_ context.Context, slot uint64) (bool, error) {
	_, ok := f.rows[slot]
	return ok, nil
}

func (f *fakeSlotStore) LastProcessedSlot(_ context.Context) (uint64, error) {
	var last uint64
	for s, r := range f.rows {
		if r.Status == SlotProcessed && s > last {
			last = s
		}
	}
	return last, nil
}

func (f *fakeSlotStore) BatchInsertSlots(_ context.Context, slots []*SlotRecord) error {
	if f.failing {
		return errors.New("db down")
	}
	for _, s := range slots {
		f.rows[s.Slot] = s
	}
	return nil
}

func (f *fakeSlotStore) DeleteOldSlots(_ context.Context, before uint64) (int64, error) {
	f.deleted = before
	return 0, nil
}

func newTestManager(cache StatusCache, db SlotStore) *ProgressManager {
	pm := NewProgressManager(cache, db, 60)
	pm.now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	return pm
}

func TestShouldProcessSlot_Recent(t *testing.T) {
	cache := &fakeCache{status: map[uint64]SlotStatus{10: SlotProcessed}}
	pm := newTestManager(cache, newFakeSlotStore())

	ok, err := pm.ShouldProcessSlot(context.Background(), 10, 1_700_000_000-5)
	require.NoError(t, err)
	assert.True(t, ok, "近期 block 不做判重")
}

func TestShouldProcessSlot_Old(t *testing.T) {
	ctx := context.Background()
	old := int64(1_700_000_000 - 3600)
	cache := &fakeCache{status: map[uint64]SlotStatus{10: SlotProcessed, 11: SlotPending}}
	db := newFakeSlotStore()
	db.rows[12] = &SlotRecord{Slot: 12, Status: SlotProcessed}
	pm := newTestManager(cache, db)

	ok, err := pm.ShouldProcessSlot(ctx, 10, old)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = pm.ShouldProcessSlot(ctx, 11, old)
	require.NoError(t, err)
	assert.True(t, ok)

	// Redis 未命中，DB 命中后回填 Redis
	ok, err = pm.ShouldProcessSlot(ctx, 12, old)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, SlotProcessed, cache.status[12])

	ok, err = pm.ShouldProcessSlot(ctx, 13, old)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestShouldProcessSlot_NoBackends(t *testing.T) {
	pm := newTestManager(nil, nil)
	ok, err := pm.ShouldProcessSlot(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMarkAndFlush(t *testing.T) {
	ctx := context.Background()
	cache := &fakeCache{status: map[uint64]SlotStatus{}}
	db := newFakeSlotStore()
	pm := newTestManager(cache, db)

	require.NoError(t, pm.MarkSlotStatus(ctx, 100, SourceGrpc, 1, SlotPending))
	require.NoError(t, pm.MarkSlotStatus(ctx, 100, SourceGrpc, 1, SlotProcessed))
	require.NoError(t, pm.MarkSlotStatus(ctx, 101, SourceGrpc, 2, SlotInvalid))
	assert.Equal(t, SlotProcessed, cache.status[100])
	assert.Equal(t, 2, pm.Pending(), "pending 状态不落库")

	db.failing = true
	assert.Error(t, pm.Flush(ctx))
	assert.Equal(t, 2, pm.Pending(), "失败后放回缓冲")

	db.failing = false
	require.NoError(t, pm.Flush(ctx))
	assert.Equal(t, 0, pm.Pending())
	assert.Len(t, db.rows, 2)

	last, err := pm.LastProcessedSlot(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), last)
}

func TestGC(t *testing.T) {
	db := newFakeSlotStore()
	pm := newTestManager(nil, db)

	pm.GC(context.Background(), 100)
	assert.Zero(t, db.deleted, "slot 太小时不清理")

	pm.GC(context.Background(), retainSlots+500)
	assert.Equal(t, uint64(500), db.deleted)
}

func TestSlotBuffer(t *testing.T) {
	b := newSlotBuffer()
	b.Add(&SlotRecord{Slot: 1})
	b.Add(&SlotRecord{Slot: 2})
	assert.Equal(t, 2, b.Len())

	flushed := b.Flush()
	assert.Len(t, flushed, 2)
	assert.Equal(t, 0, b.Len())

	b.Add(&SlotRecord{Slot: 3})
	b.Requeue(flushed)
	out := b.Flush()
	require.Len(t, out, 3)
	assert.Equal(t, uint64(1), out[0].Slot)
	assert.Equal(t, uint64(3), out[2].Slot)
}

func TestNames(t *testing.T) {
	assert.Equal(t, "grpc", SourceName(SourceGrpc))
	assert.Equal(t, "unknown", SourceName(9))
	assert.Equal(t, "processed", SlotProcessed.String())
}

func TestService_FlushesOnStop(t *testing.T) {
	db := newFakeSlotStore()
	pm := newTestManager(nil, db)
	require.NoError(t, pm.MarkSlotStatus(context.Background(), 42, SourceGrpc, 1, SlotProcessed))

	s := NewService(pm, time.Hour, time.Hour)
	started := make(chan struct{})
	go func() {
		close(started)
		s.Start()
	}()
	<-started
	s.Stop()

	assert.Contains(t, db.rows, uint64(42))
	assert.Zero(t, pm.Pending())
}
