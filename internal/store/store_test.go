package store

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"meteora-indexer-sol/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingStore 记录 SaveAll 收到的表顺序，可注入失败
type recordingStore struct {
	*MemoryStore
	tables  []model.Table
	findErr error
	saveErr error
	finds   int
}

func newRecordingStore() *recordingStore {
	return &recordingStore{MemoryStore: NewMemoryStore()}
}

func (s *recordingStore) FindByID(ctx context.Context, table model.Table, id string) (model.Entity, error) {
	s.finds++
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.MemoryStore.FindByID(ctx, table, id)
}

func (s *recordingStore) SaveAll(ctx context.Context, batches []TableBatch) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	for _, b := range batches {
		s.tables = append(s.tables, b.Table)
	}
	return s.MemoryStore.SaveAll(ctx, batches)
}

func TestRepository_FindPromotesFromDurable(t *testing.T) {
	ctx := context.Background()
	durable := newRecordingStore()
	require.NoError(t, durable.MemoryStore.SaveAll(ctx, []TableBatch{{
		Table: model.TableBasePool,
		Rows:  []model.Entity{&model.BasePool{ID: "pool-1", ReserveX: big.NewInt(5)}},
	}}))

	repo := NewRepository[*model.BasePool](model.TableBasePool, durable)
	pool, found, err := repo.Find(ctx, "pool-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(5), pool.ReserveX.Int64())
	assert.Equal(t, 1, durable.finds)

	// 第二次命中缓存
	_, found, err = repo.Find(ctx, "pool-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1, durable.finds)

	// 提升到缓存的实体不是 dirty
	assert.Empty(t, repo.Dirty())
	assert.Len(t, repo.All(), 1)

	_, found, err = repo.Find(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRepository_FindDurableError(t *testing.T) {
	durable := newRecordingStore()
	durable.findErr = errors.New("connection reset")

	repo := NewRepository[*model.DammPool](model.TableDammPool, durable)
	_, _, err := repo.Find(context.Background(), "x")
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestRepository_InsertionOrderAndUpdate(t *testing.T) {
	repo := NewRepository[*model.DammPosition](model.TableDammPosition, nil)
	repo.Save(&model.DammPosition{ID: "b"})
	repo.Save(&model.DammPosition{ID: "a"})
	require.NoError(t, repo.Update(&model.DammPosition{ID: "b", Owner: "o"}))

	all := repo.All()
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].ID)
	assert.Equal(t, "o", all[0].Owner)
	assert.Equal(t, "a", all[1].ID)

	repo.Reset()
	assert.Empty(t, repo.All())
	assert.Empty(t, repo.Dirty())
}

func TestRepository_EventsAreImmutable(t *testing.T) {
	repo := NewRepository[*model.DammSwap](model.TableDammSwap, nil)
	swap := &model.DammSwap{ID: "tx-0"}
	repo.Save(swap)

	err := repo.Update(swap)
	assert.ErrorIs(t, err, ErrImmutableEvent)
}

func TestUnitOfWork_FlushOrder(t *testing.T) {
	ctx := context.Background()
	durable := newRecordingStore()
	uow := NewUnitOfWork(durable)

	// 故意按反向顺序写入缓存
	uow.DlmmRewards.Save(&model.DlmmReward{ID: "p-0"})
	uow.DammFees.Save(&model.DammFee{ID: "p:tx"})
	uow.DammLiquidityChanges.Save(&model.DammLiquidityChange{ID: "c"})
	uow.DammSwaps.Save(&model.DammSwap{ID: "tx-0"})
	uow.DammPositions.Save(&model.DammPosition{ID: "p-o"})
	uow.DammPools.Save(&model.DammPool{ID: "p"})
	uow.BasePools.Save(&model.BasePool{ID: "p"})

	batches, err := uow.Flush(ctx)
	require.NoError(t, err)
	require.Len(t, batches, 7)
	assert.Equal(t, []model.Table{
		model.TableBasePool,
		model.TableDammPool,
		model.TableDammPosition,
		model.TableDammSwap,
		model.TableDammLiquidityChange,
		model.TableDammFee,
		model.TableDlmmReward,
	}, durable.tables)

	// 事件缓存清空，实体缓存保留但已 clean
	assert.Empty(t, uow.DammSwaps.All())
	assert.Len(t, uow.BasePools.All(), 1)
	assert.Empty(t, uow.Pending())

	// 空 flush 不触达持久层
	batches, err = uow.Flush(ctx)
	require.NoError(t, err)
	assert.Nil(t, batches)
	assert.Equal(t, 1, durable.Saves())
}

func TestUnitOfWork_FlushFailureDiscardsCache(t *testing.T) {
	durable := newRecordingStore()
	durable.saveErr = errors.New("deadlock detected")
	uow := NewUnitOfWork(durable)
	uow.BasePools.Save(&model.BasePool{ID: "p"})

	_, err := uow.Flush(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Equal(t, 0, uow.CachedCount())
}

func TestUnitOfWork_MaxCached(t *testing.T) {
	uow := NewUnitOfWork(NewMemoryStore())
	uow.SetMaxCached(1)
	uow.BasePools.Save(&model.BasePool{ID: "a"})
	uow.BasePools.Save(&model.BasePool{ID: "b"})

	_, err := uow.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, uow.CachedCount())
}

func TestMemoryStore_EventsNotOverwritten(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	first := &model.DammSwap{ID: "tx-0", AmountIn: big.NewInt(1)}
	second := &model.DammSwap{ID: "tx-0", AmountIn: big.NewInt(2)}
	require.NoError(t, m.SaveAll(ctx, []TableBatch{{Table: model.TableDammSwap, Rows: []model.Entity{first}}}))
	require.NoError(t, m.SaveAll(ctx, []TableBatch{{Table: model.TableDammSwap, Rows: []model.Entity{second}}}))

	e, err := m.FindByID(ctx, model.TableDammSwap, "tx-0")
	require.NoError(t, err)
	assert.Equal(t, int64(1), e.(*model.DammSwap).AmountIn.Int64())
	assert.Equal(t, 1, m.Count(model.TableDammSwap))

	_, err = m.FindByID(ctx, model.TableDammSwap, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_IsolatedFromCache(t *testing.T) {
	ctx := context.Background()
	durable := NewMemoryStore()
	uow := NewUnitOfWork(durable)
	uow.BasePools.Save(&model.BasePool{ID: "p", ReserveX: big.NewInt(5), ReserveY: big.NewInt(6)})
	_, err := uow.Flush(ctx)
	require.NoError(t, err)

	// 批次中途修改缓存实体，尚未 flush
	cached, found, err := uow.BasePools.Find(ctx, "p")
	require.NoError(t, err)
	require.True(t, found)
	cached.ReserveX.SetInt64(900)
	cached.Status = true

	e, err := durable.FindByID(ctx, model.TableBasePool, "p")
	require.NoError(t, err)
	assert.Equal(t, int64(5), e.(*model.BasePool).ReserveX.Int64())
	assert.False(t, e.(*model.BasePool).Status)

	// 读出的实体被修改同样不影响持久层
	e.(*model.BasePool).ReserveY.SetInt64(0)

	// 批次中止后从持久层重新加载
	uow.Reset()
	reloaded, found, err := uow.BasePools.Find(ctx, "p")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(5), reloaded.ReserveX.Int64())
	assert.Equal(t, int64(6), reloaded.ReserveY.Int64())
	assert.False(t, reloaded.Status)
}
