//go:build integration

package postgres

import (
	"context"
	"math/big"
	"testing"
	"time"

	"meteora-indexer-sol/internal/model"
	"meteora-indexer-sol/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityStore_RoundTripAndUpsert(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	s := NewEntityStore(pool)
	ts := time.Unix(1700000000, 0).UTC()

	huge, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	base := &model.BasePool{
		ID: "pool", TokenX: "mx", TokenY: "my", TokenXVault: "vx", TokenYVault: "vy",
		ReserveX: huge, ReserveY: big.NewInt(1000), TotalLiquidity: new(big.Int),
		CreatedAt: ts, UpdatedAt: ts, Status: true,
	}
	damm := &model.DammPool{ID: "pool", LpMint: "lp", CurveType: "constantProduct", BasePoolID: "pool"}
	swap := &model.DammSwap{ID: "tx-0", UserAddress: "u", TokenInMint: "mx", TokenOutMint: "my",
		AmountIn: big.NewInt(10), AmountOut: big.NewInt(9), Timestamp: ts, PoolID: "pool"}

	uow := store.NewUnitOfWork(s)
	uow.DammSwaps.Save(swap)
	uow.DammPools.Save(damm)
	uow.BasePools.Save(base)
	_, err := uow.Flush(ctx)
	require.NoError(t, err)

	e, err := s.FindByID(ctx, model.TableBasePool, "pool")
	require.NoError(t, err)
	got := e.(*model.BasePool)
	assert.Equal(t, 0, huge.Cmp(got.ReserveX))
	assert.Equal(t, int64(1000), got.ReserveY.Int64())
	assert.True(t, got.Status)
	assert.True(t, ts.Equal(got.CreatedAt))

	// 实体覆盖，事件保持首次写入
	base.ReserveY = big.NewInt(2000)
	base.Status = false
	replay := *swap
	replay.AmountIn = big.NewInt(999)
	require.NoError(t, s.SaveAll(ctx, []store.TableBatch{
		{Table: model.TableBasePool, Rows: []model.Entity{base}},
		{Table: model.TableDammSwap, Rows: []model.Entity{&replay}},
	}))

	e, err = s.FindByID(ctx, model.TableBasePool, "pool")
	require.NoError(t, err)
	assert.Equal(t, int64(2000), e.(*model.BasePool).ReserveY.Int64())
	assert.False(t, e.(*model.BasePool).Status)

	e, err = s.FindByID(ctx, model.TableDammSwap, "tx-0")
	require.NoError(t, err)
	assert.Equal(t, int64(10), e.(*model.DammSwap).AmountIn.Int64())

	_, err = s.FindByID(ctx, model.TableDlmmPool, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestEntityStore_ForeignKeyRollsBack(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	s := NewEntityStore(pool)
	ts := time.Unix(1700000000, 0).UTC()

	err := s.SaveAll(ctx, []store.TableBatch{
		{Table: model.TableBasePool, Rows: []model.Entity{&model.BasePool{ID: "p", CreatedAt: ts, UpdatedAt: ts}}},
		{Table: model.TableDlmmPosition, Rows: []model.Entity{&model.DlmmPosition{ID: "pos", PoolID: "no-such-pool",
			CreatedAt: ts, UpdatedAt: ts}}},
	})
	require.Error(t, err)

	// 整个事务回滚，base_pool 也不存在
	_, err = s.FindByID(ctx, model.TableBasePool, "p")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestEntityStore_DlmmNullableColumns(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	s := NewEntityStore(pool)
	ts := time.Unix(1700000000, 0).UTC()
	bps := int32(150)

	require.NoError(t, s.SaveAll(ctx, []store.TableBatch{
		{Table: model.TableBasePool, Rows: []model.Entity{&model.BasePool{ID: "lb", CreatedAt: ts, UpdatedAt: ts, Status: true}}},
		{Table: model.TableDlmmPool, Rows: []model.Entity{&model.DlmmPool{ID: "lb", BinStep: 25, ActiveID: -10, BasePoolID: "lb"}}},
		{Table: model.TableDlmmSwap, Rows: []model.Entity{
			&model.DlmmSwap{ID: "tx-0", AmountIn: big.NewInt(1), AmountOut: big.NewInt(1), Timestamp: ts, PoolID: "lb"},
			&model.DlmmSwap{ID: "tx-1", AmountIn: big.NewInt(1), AmountOut: big.NewInt(1), PriceImpactBps: &bps, Timestamp: ts, PoolID: "lb"},
		}},
	}))

	e, err := s.FindByID(ctx, model.TableDlmmPool, "lb")
	require.NoError(t, err)
	lb := e.(*model.DlmmPool)
	assert.Nil(t, lb.ActivationPoint)
	assert.Equal(t, "", lb.PreActivationSwapAddress)
	assert.Equal(t, int32(-10), lb.ActiveID)

	e, err = s.FindByID(ctx, model.TableDlmmSwap, "tx-0")
	require.NoError(t, err)
	assert.Nil(t, e.(*model.DlmmSwap).PriceImpactBps)

	e, err = s.FindByID(ctx, model.TableDlmmSwap, "tx-1")
	require.NoError(t, err)
	require.NotNil(t, e.(*model.DlmmSwap).PriceImpactBps)
	assert.Equal(t, int32(150), *e.(*model.DlmmSwap).PriceImpactBps)
}
