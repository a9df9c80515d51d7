package service

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

var ts = time.Unix(1700000000, 0).UTC()

// countingStore 统计持久层访问次数
type countingStore struct {
	*store.MemoryStore
	finds int
}

func (c *countingStore) FindByID(ctx context.Context, table model.Table, id string) (model.Entity, error) {
	c.finds++
	return c.MemoryStore.FindByID(ctx, table, id)
}

func newServices() (*Services, *store.UnitOfWork, *countingStore) {
	durable := &countingStore{MemoryStore: store.NewMemoryStore()}
	uow := store.NewUnitOfWork(durable)
	return New(uow), uow, durable
}

func basePoolParams() CreateBasePoolParams {
	return CreateBasePoolParams{
		ID: "pool", TokenX: "mintX", TokenY: "mintY", TokenXVault: "vaultX", TokenYVault: "vaultY",
		ReserveX: big.NewInt(100), ReserveY: big.NewInt(200), Timestamp: ts,
	}
}

func TestGetOrCreateBasePool_Idempotent(t *testing.T) {
	svc, uow, _ := newServices()
	ctx := context.Background()

	first, created, err := svc.Pools.GetOrCreateBasePool(ctx, basePoolParams())
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, first.Status)
	assert.Equal(t, int64(100), first.ReserveX.Int64())
	assert.Equal(t, int64(0), first.TotalLiquidity.Int64())

	p := basePoolParams()
	p.ReserveX = big.NewInt(999)
	second, created, err := svc.Pools.GetOrCreateBasePool(ctx, p)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, first, second)
	assert.Equal(t, int64(100), second.ReserveX.Int64(), "首次调用生效")
	assert.Len(t, uow.BasePools.All(), 1)
}

func TestGetOrCreateBasePool_ValidationBeforeStore(t *testing.T) {
	svc, uow, durable := newServices()
	p := basePoolParams()
	p.TokenYVault = ""

	_, _, err := svc.Pools.GetOrCreateBasePool(context.Background(), p)
	assert.ErrorIs(t, err, ErrInvalidParams)
	assert.Equal(t, 0, durable.finds)
	assert.Equal(t, 0, uow.CachedCount())

	p = basePoolParams()
	p.ReserveX = big.NewInt(-1)
	_, _, err = svc.Pools.GetOrCreateBasePool(context.Background(), p)
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestGetOrCreateBasePool_PromotesFromDurable(t *testing.T) {
	svc, _, durable := newServices()
	ctx := context.Background()
	existing := &model.BasePool{ID: "pool", ReserveX: big.NewInt(7), ReserveY: big.NewInt(8), Status: false}
	require.NoError(t, durable.SaveAll(ctx, []store.TableBatch{{Table: model.TableBasePool, Rows: []model.Entity{existing}}}))

	got, created, err := svc.Pools.GetOrCreateBasePool(ctx, basePoolParams())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(7), got.ReserveX.Int64())
	assert.False(t, got.Status)
}

func TestPoolVariantsRequireBasePool(t *testing.T) {
	svc, _, _ := newServices()
	ctx := context.Background()

	_, _, err := svc.Pools.GetOrCreateDlmmPool(ctx, CreateDlmmPoolParams{ID: "pool", BinStep: 25})
	assert.ErrorIs(t, err, ErrPoolNotFound)

	_, _, err = svc.Pools.GetOrCreateBasePool(ctx, basePoolParams())
	require.NoError(t, err)

	dlmm, created, err := svc.Pools.GetOrCreateDlmmPool(ctx, CreateDlmmPoolParams{ID: "pool", BinStep: 25, ActiveID: -3})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "pool", dlmm.BasePoolID)
	assert.Nil(t, dlmm.ActivationPoint)

	damm, _, err := svc.Pools.GetOrCreateDammPool(ctx, CreateDammPoolParams{
		ID: "pool", LpMint: "lp", AVault: "a", BVault: "b", AVaultLpMint: "alp", BVaultLpMint: "blp",
	})
	require.NoError(t, err)
	assert.Equal(t, "constantProduct", damm.CurveType)

	_, err = svc.Pools.GetDammPool(ctx, "other")
	assert.ErrorIs(t, err, ErrPoolNotFound)
}

func TestGetOrCreateDammPool_FillsLpMintLater(t *testing.T) {
	svc, uow, _ := newServices()
	ctx := context.Background()
	_, _, err := svc.Pools.GetOrCreateBasePool(ctx, basePoolParams())
	require.NoError(t, err)

	params := CreateDammPoolParams{ID: "pool", AVault: "a", BVault: "b", AVaultLpMint: "alp", BVaultLpMint: "blp"}
	damm, created, err := svc.Pools.GetOrCreateDammPool(ctx, params)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Empty(t, damm.LpMint)

	params.LpMint = "lp"
	params.AVault = "other"
	damm, created, err = svc.Pools.GetOrCreateDammPool(ctx, params)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "lp", damm.LpMint)
	assert.Equal(t, "a", damm.AVault, "其余字段不覆盖")
	assert.Len(t, uow.DammPools.Dirty(), 1)
}

func TestUpdateBasePool_BumpsUpdatedAt(t *testing.T) {
	svc, uow, _ := newServices()
	ctx := context.Background()
	pool, _, err := svc.Pools.GetOrCreateBasePool(ctx, basePoolParams())
	require.NoError(t, err)
	_, err = uow.Flush(ctx)
	require.NoError(t, err)

	later := ts.Add(time.Minute)
	pool.ReserveX = big.NewInt(1)
	require.NoError(t, svc.Pools.UpdateBasePool(pool, later))
	assert.Equal(t, later, pool.UpdatedAt)
	assert.Equal(t, ts, pool.CreatedAt)
	assert.Len(t, uow.BasePools.Dirty(), 1)

	assert.ErrorIs(t, svc.Pools.UpdateBasePool(pool, time.Time{}), ErrInvalidParams)
}

func TestDammLiquidity_ChangeIDs(t *testing.T) {
	svc, _, _ := newServices()
	params := RecordDammChangeParams{
		PoolID: "pool", Owner: "alice", TxID: "sig", Type: model.ChangeAdd,
		TokenXAmount: big.NewInt(1), TokenYAmount: big.NewInt(2), LpTokenAmount: big.NewInt(3), Timestamp: ts,
	}
	first, err := svc.DammLiquidity.RecordChange(params)
	require.NoError(t, err)
	assert.Equal(t, "pool-alice-1700000000-sig", first.ID)
	assert.Equal(t, "pool-alice", first.PositionID)

	// 同一交易内再次变更不覆盖前一条
	second, err := svc.DammLiquidity.RecordChange(params)
	require.NoError(t, err)
	assert.Equal(t, "pool-alice-1700000000-sig-1", second.ID)

	params.TokenXAmount = big.NewInt(-1)
	_, err = svc.DammLiquidity.RecordChange(params)
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestDammPositionAndLock(t *testing.T) {
	svc, _, _ := newServices()
	ctx := context.Background()

	pos, created, err := svc.DammLiquidity.GetOrCreatePosition(ctx, "pool", "alice", ts)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "pool-alice", pos.ID)

	again, created, err := svc.DammLiquidity.GetOrCreatePosition(ctx, "pool", "alice", ts.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, pos, again)

	lock, _, err := svc.DammLocks.GetOrCreate(ctx, "pool", "alice", ts)
	require.NoError(t, err)
	lock.Amount.Add(lock.Amount, big.NewInt(50))
	require.NoError(t, svc.DammLocks.Update(lock, ts.Add(time.Second)))
	assert.Equal(t, int64(50), lock.Amount.Int64())
}

func TestSwapRecords(t *testing.T) {
	svc, uow, _ := newServices()

	swap, err := svc.DammSwaps.Record(RecordDammSwapParams{
		PoolID: "pool", TxID: "sig", SwapIndex: 2, User: "u", TokenInMint: "x", TokenOutMint: "y",
		AmountIn: big.NewInt(10), AmountOut: big.NewInt(9), Timestamp: ts,
	})
	require.NoError(t, err)
	assert.Equal(t, "sig-2", swap.ID)
	assert.ErrorIs(t, uow.DammSwaps.Update(swap), store.ErrImmutableEvent)

	_, err = svc.DlmmSwaps.Record(RecordDlmmSwapParams{
		PoolID: "pool", TxID: "sig", User: "u", TokenInMint: "x", TokenOutMint: "y",
		AmountIn: big.NewInt(10), AmountOut: big.NewInt(0), Timestamp: ts,
	})
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestFeeIDs(t *testing.T) {
	svc, _, _ := newServices()

	fee, err := svc.DammFees.Record(RecordDammFeeParams{PoolID: "pool", TxID: "sig", Owner: "o", Timestamp: ts})
	require.NoError(t, err)
	assert.Equal(t, "pool:sig", fee.ID)
	assert.Equal(t, int64(0), fee.TokenXAmount.Int64())

	out, err := svc.DlmmFees.Record(RecordDlmmFeeParams{PoolID: "lb", TxID: "sig", Position: "pos", User: "u",
		Type: model.FeeOut, AmountX: big.NewInt(3), Timestamp: ts})
	require.NoError(t, err)
	assert.Equal(t, "sig-out-pos", out.ID)

	_, err = svc.DlmmFees.Record(RecordDlmmFeeParams{PoolID: "lb", TxID: "sig", Position: "pos", User: "u",
		Type: "sideways", Timestamp: ts})
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestDlmmPositionAndReward(t *testing.T) {
	svc, _, _ := newServices()
	ctx := context.Background()

	pos, created, err := svc.DlmmPositions.GetOrCreate(ctx, CreateDlmmPositionParams{
		Position: "posAddr", Owner: "alice", PoolID: "lb", LowerBinID: -5, UpperBinID: 5, Timestamp: ts,
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "posAddr-alice", pos.ID)
	assert.Equal(t, "alice", pos.FeeOwner)

	_, _, err = svc.DlmmPositions.GetOrCreate(ctx, CreateDlmmPositionParams{
		Position: "p2", Owner: "alice", PoolID: "lb", LowerBinID: 5, UpperBinID: -5, Timestamp: ts,
	})
	assert.ErrorIs(t, err, ErrInvalidParams)

	reward, created, err := svc.DlmmRewards.GetOrCreate(ctx, CreateDlmmRewardParams{
		PoolID: "lb", RewardIndex: 1, RewardDuration: big.NewInt(3600), Funder: "f", Timestamp: ts,
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "lb-1", reward.ID)

	got, found, err := svc.DlmmRewards.Get(ctx, "lb", 1)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Same(t, reward, got)

	_, found, err = svc.DlmmRewards.Get(ctx, "lb", 0)
	require.NoError(t, err)
	assert.False(t, found)
}
