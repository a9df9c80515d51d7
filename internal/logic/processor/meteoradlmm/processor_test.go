package meteoradlmm

import (
	"context"
	"testing"

	"meteora-indexer-sol/internal/consts"
	"meteora-indexer-sol/internal/logic/core"
	"meteora-indexer-sol/internal/logic/layout"
	pt "meteora-indexer-sol/internal/logic/processor/processortest"
	"meteora-indexer-sol/internal/model"
	"meteora-indexer-sol/internal/service"
	"meteora-indexer-sol/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const blockTime = 1710000000

var (
	lbPair      = pt.Key(1)
	mintX       = pt.Key(2)
	mintY       = pt.Key(3)
	reserveX    = pt.Key(4)
	reserveY    = pt.Key(5)
	user        = pt.Key(6)
	userX       = pt.Key(7)
	userY       = pt.Key(8)
	position    = pt.Key(9)
	rewardVault = pt.Key(10)
	funderToken = pt.Key(11)
	userReward  = pt.Key(12)
)

type initPairArgs struct {
	ActiveID int32
	BinStep  uint16
}

type swapArgs struct {
	AmountIn     uint64
	MinAmountOut uint64
}

type swapWithPriceImpactArgs struct {
	AmountIn          uint64
	ActiveID          *int32
	MaxPriceImpactBps uint16
}

type binDistribution struct {
	BinID         int32
	DistributionX uint16
	DistributionY uint16
}

type addLiquidityArgs struct {
	AmountX          uint64
	AmountY          uint64
	BinLiquidityDist []binDistribution
}

type removeByRangeArgs struct {
	FromBinID   int32
	ToBinID     int32
	BpsToRemove uint16
}

func accounts(kind layout.Kind, extra map[string]types.Pubkey) []types.Pubkey {
	named := map[string]types.Pubkey{
		"lbPair":       lbPair,
		"tokenMintX":   mintX,
		"tokenMintY":   mintY,
		"tokenXMint":   mintX,
		"tokenYMint":   mintY,
		"reserveX":     reserveX,
		"reserveY":     reserveY,
		"user":         user,
		"sender":       user,
		"owner":        user,
		"funder":       user,
		"userTokenIn":  userX,
		"userTokenOut": userY,
		"userTokenX":   userX,
		"userTokenY":   userY,
		"position":     position,
		"rewardVault":  rewardVault,
	}
	for k, v := range extra {
		named[k] = v
	}
	return pt.Accounts(kind, named)
}

func process(t *testing.T, env *pt.Env, ix *core.Instruction) {
	t.Helper()
	require.NoError(t, New(env.Ctx).ProcessInstruction(context.Background(), ix))
}

func initPair(t *testing.T, env *pt.Env) {
	t.Helper()
	kind := layout.DlmmInitializeLbPair
	tx := pt.NewTx(0xF0, blockTime)
	process(t, env, pt.Instruction(tx, consts.MeteoraDLMMProgram, accounts(kind, nil),
		pt.Data(kind, initPairArgs{ActiveID: -120, BinStep: 25}),
		pt.CreateAccount(user, reserveX, consts.TokenProgram, 2039280, 165),
		pt.CreateAccount(user, reserveY, consts.TokenProgram, 2039280, 165),
	))
}

// seedReserves 通过一次双边添加流动性给池子注入储备
func seedReserves(t *testing.T, env *pt.Env, x, y uint64) {
	t.Helper()
	kind := layout.DlmmAddLiquidity
	tx := pt.NewTx(0xF1, blockTime+1)
	process(t, env, pt.Instruction(tx, consts.MeteoraDLMMProgram, accounts(kind, nil),
		pt.Data(kind, addLiquidityArgs{AmountX: x, AmountY: y, BinLiquidityDist: []binDistribution{
			{BinID: -125, DistributionX: 0, DistributionY: 5000},
			{BinID: -115, DistributionX: 5000, DistributionY: 0},
		}}),
		pt.TransferChecked(userX, mintX, reserveX, user, x, 6),
		pt.TransferChecked(userY, mintY, reserveY, user, y, 9),
	))
}

func basePool(t *testing.T, env *pt.Env) *model.BasePool {
	t.Helper()
	p, err := env.Services.Pools.GetBasePool(context.Background(), lbPair.String())
	require.NoError(t, err)
	return p
}

func assertReserves(t *testing.T, env *pt.Env, x, y int64) {
	t.Helper()
	p := basePool(t, env)
	assert.Equal(t, x, p.ReserveX.Int64(), "reserveX")
	assert.Equal(t, y, p.ReserveY.Int64(), "reserveY")
}

func swapIx(tx *core.AdaptedTx, kind layout.Kind, args any, inners ...*core.AdaptedInstruction) *core.Instruction {
	return pt.Instruction(tx, consts.MeteoraDLMMProgram, accounts(kind, nil), pt.Data(kind, args), inners...)
}

func TestInitialize(t *testing.T) {
	env := pt.NewEnv()
	initPair(t, env)

	p := basePool(t, env)
	assert.Equal(t, mintX.String(), p.TokenX)
	assert.Equal(t, reserveY.String(), p.TokenYVault)
	assertReserves(t, env, 0, 0)

	dp, err := env.Services.Pools.GetDlmmPool(context.Background(), lbPair.String())
	require.NoError(t, err)
	assert.Equal(t, int32(25), dp.BinStep)
	assert.Equal(t, int32(-120), dp.ActiveID)
	assert.Nil(t, dp.ActivationPoint)
}

func TestInitialize_WithoutCreateAccountStillCreatesPool(t *testing.T) {
	env := pt.NewEnv()
	kind := layout.DlmmInitializeLbPair2
	tx := pt.NewTx(0xF2, blockTime)
	process(t, env, pt.Instruction(tx, consts.MeteoraDLMMProgram, accounts(kind, nil), pt.Data(kind, int32(7))))

	dp, err := env.Services.Pools.GetDlmmPool(context.Background(), lbPair.String())
	require.NoError(t, err)
	assert.Equal(t, int32(0), dp.BinStep)
	assert.Equal(t, int32(7), dp.ActiveID)
}

func TestSwap_Simple(t *testing.T) {
	env := pt.NewEnv()
	initPair(t, env)
	seedReserves(t, env, 1000, 5000)

	tx := pt.NewTx(0x01, blockTime+2)
	process(t, env, swapIx(tx, layout.DlmmSwap2, swapArgs{AmountIn: 100, MinAmountOut: 1},
		pt.TransferChecked(userX, mintX, reserveX, user, 100, 6),
		pt.TransferChecked(reserveY, mintY, userY, lbPair, 480, 9),
	))

	assertReserves(t, env, 1100, 4520)
	swaps := env.UOW.DlmmSwaps.All()
	require.Len(t, swaps, 1)
	s := swaps[0]
	assert.Equal(t, service.SwapID(tx.TxID(), 0), s.ID)
	assert.Equal(t, mintX.String(), s.TokenInMint)
	assert.Equal(t, mintY.String(), s.TokenOutMint)
	assert.Equal(t, userX.String(), s.TokenInAddress)
	assert.Equal(t, int64(100), s.AmountIn.Int64())
	assert.Equal(t, int64(480), s.AmountOut.Int64())
	assert.Nil(t, s.PriceImpactBps)
}

func TestSwap_YToXWithPriceImpact(t *testing.T) {
	env := pt.NewEnv()
	initPair(t, env)
	seedReserves(t, env, 1000, 5000)

	tx := pt.NewTx(0x02, blockTime+2)
	process(t, env, swapIx(tx, layout.DlmmSwapWithPriceImpact2,
		swapWithPriceImpactArgs{AmountIn: 500, MaxPriceImpactBps: 150},
		pt.TransferChecked(userY, mintY, reserveY, user, 500, 9),
		pt.TransferChecked(reserveX, mintX, userX, lbPair, 90, 6),
	))

	swaps := env.UOW.DlmmSwaps.All()
	require.Len(t, swaps, 1)
	assert.Equal(t, mintY.String(), swaps[0].TokenInMint)
	assert.Equal(t, int64(500), swaps[0].AmountIn.Int64())
	require.NotNil(t, swaps[0].PriceImpactBps)
	assert.Equal(t, int32(150), *swaps[0].PriceImpactBps)
	assertReserves(t, env, 910, 5500)
}

func TestSwap_RejectsDoublePositive(t *testing.T) {
	env := pt.NewEnv()
	initPair(t, env)
	seedReserves(t, env, 1000, 5000)

	tx := pt.NewTx(0x03, blockTime+2)
	process(t, env, swapIx(tx, layout.DlmmSwap, swapArgs{AmountIn: 1},
		pt.TransferChecked(userX, mintX, reserveX, user, 10, 6),
		pt.TransferChecked(userY, mintY, reserveY, user, 10, 9),
	))

	assert.Empty(t, env.UOW.DlmmSwaps.All())
	assertReserves(t, env, 1000, 5000)
}

func TestSwap_PerTxIndex(t *testing.T) {
	env := pt.NewEnv()
	initPair(t, env)
	seedReserves(t, env, 1000, 5000)

	tx := pt.NewTx(0x04, blockTime+2)
	for i := 0; i < 3; i++ {
		process(t, env, swapIx(tx, layout.DlmmSwapExactOut, swapArgs{AmountIn: 20, MinAmountOut: 10},
			pt.Transfer(userX, reserveX, user, 20),
			pt.Transfer(reserveY, userY, lbPair, 10),
		))
	}
	swaps := env.UOW.DlmmSwaps.All()
	require.Len(t, swaps, 3)
	for i, s := range swaps {
		assert.Equal(t, service.SwapID(tx.TxID(), i), s.ID)
	}
}

func TestLiquidity_AddAndRemove(t *testing.T) {
	env := pt.NewEnv()
	initPair(t, env)
	seedReserves(t, env, 1000, 5000)

	posID := service.DlmmPositionID(position.String(), user.String())
	pos, found, err := env.UOW.DlmmPositions.Find(context.Background(), posID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int32(-125), pos.LowerBinID)
	assert.Equal(t, int32(-115), pos.UpperBinID)
	assert.Equal(t, int64(1000), pos.TokenXAmount.Int64())

	kind := layout.DlmmRemoveLiquidityByRange2
	tx := pt.NewTx(0x10, blockTime+3)
	process(t, env, pt.Instruction(tx, consts.MeteoraDLMMProgram, accounts(kind, nil),
		pt.Data(kind, removeByRangeArgs{FromBinID: -125, ToBinID: -115, BpsToRemove: 5000}),
		pt.TransferChecked(reserveX, mintX, userX, lbPair, 400, 6),
		pt.TransferChecked(reserveY, mintY, userY, lbPair, 2000, 9),
	))

	assertReserves(t, env, 600, 3000)
	assert.Equal(t, int64(600), pos.TokenXAmount.Int64())
	assert.Equal(t, int64(3000), pos.TokenYAmount.Int64())
	// bin 流动性不计入 totalLiquidity
	assert.Zero(t, basePool(t, env).TotalLiquidity.Sign())

	changes := env.UOW.DlmmLiquidityChanges.All()
	require.Len(t, changes, 2)
	assert.Equal(t, model.ChangeAdd, changes[0].Type)
	assert.Equal(t, model.ChangeRemove, changes[1].Type)
	assert.Equal(t, int64(400), changes[1].TokenXAmount.Int64())
	assert.Equal(t, posID, changes[1].PositionID)
}

func TestLiquidity_OneSideUsesPoolVaults(t *testing.T) {
	env := pt.NewEnv()
	initPair(t, env)

	kind := layout.DlmmAddLiquidityOneSidePrecise2
	tx := pt.NewTx(0x11, blockTime+2)
	process(t, env, pt.Instruction(tx, consts.MeteoraDLMMProgram,
		accounts(kind, map[string]types.Pubkey{"userToken": userY, "reserve": reserveY, "tokenMint": mintY}),
		pt.Data(kind, []byte{0, 0, 0, 0}, uint64(1)),
		pt.TransferChecked(userY, mintY, reserveY, user, 777, 9),
	))

	assertReserves(t, env, 0, 777)
	changes := env.UOW.DlmmLiquidityChanges.All()
	require.Len(t, changes, 1)
	assert.Equal(t, int64(0), changes[0].TokenXAmount.Int64())
	assert.Equal(t, int64(777), changes[0].TokenYAmount.Int64())
}

func TestLiquidity_RemoveRejectedWithoutWithdrawal(t *testing.T) {
	env := pt.NewEnv()
	initPair(t, env)
	seedReserves(t, env, 1000, 5000)

	kind := layout.DlmmRemoveAllLiquidity
	tx := pt.NewTx(0x12, blockTime+3)
	process(t, env, pt.Instruction(tx, consts.MeteoraDLMMProgram, accounts(kind, nil), pt.Data(kind)))

	assert.Len(t, env.UOW.DlmmLiquidityChanges.All(), 1)
	assertReserves(t, env, 1000, 5000)
}

func TestInitializePosition(t *testing.T) {
	env := pt.NewEnv()
	initPair(t, env)

	kind := layout.DlmmInitializePosition
	other := pt.Key(40)
	tx := pt.NewTx(0x20, blockTime+1)
	process(t, env, pt.Instruction(tx, consts.MeteoraDLMMProgram,
		accounts(kind, map[string]types.Pubkey{"position": other}),
		pt.Data(kind, layout.DlmmInitializePositionArgs{LowerBinID: -10, Width: 70})))

	pos, found, err := env.UOW.DlmmPositions.Find(context.Background(), service.DlmmPositionID(other.String(), user.String()))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int32(-10), pos.LowerBinID)
	assert.Equal(t, int32(59), pos.UpperBinID)
	assert.Equal(t, lbPair.String(), pos.PoolID)
}

func TestClaimFee(t *testing.T) {
	env := pt.NewEnv()
	initPair(t, env)
	seedReserves(t, env, 1000, 5000)

	kind := layout.DlmmClaimFee2
	tx := pt.NewTx(0x30, blockTime+3)
	process(t, env, pt.Instruction(tx, consts.MeteoraDLMMProgram, accounts(kind, nil), pt.Data(kind),
		pt.TransferChecked(reserveX, mintX, userX, lbPair, 12, 6),
		pt.TransferChecked(reserveY, mintY, userY, lbPair, 30, 9),
	))

	fees := env.UOW.DlmmFees.All()
	require.Len(t, fees, 2)
	out, in := fees[0], fees[1]
	assert.Equal(t, model.FeeOut, out.Type)
	assert.Equal(t, tx.TxID()+"-out-"+position.String(), out.ID)
	assert.Equal(t, int64(12), out.AmountX.Int64())
	assert.Equal(t, int64(30), out.AmountY.Int64())
	assert.Equal(t, model.FeeIn, in.Type)
	assert.Equal(t, int64(12), in.AmountX.Int64())
	assert.Equal(t, user.String(), in.User)
	assertReserves(t, env, 988, 4970)
}

func TestClaimFee_WithoutReserveWithdrawal(t *testing.T) {
	env := pt.NewEnv()
	initPair(t, env)
	seedReserves(t, env, 1000, 5000)

	kind := layout.DlmmClaimFee2
	claim := func(seq byte, inners ...*core.AdaptedInstruction) {
		tx := pt.NewTx(seq, blockTime+3)
		process(t, env, pt.Instruction(tx, consts.MeteoraDLMMProgram, accounts(kind, nil), pt.Data(kind), inners...))
	}
	claim(0x31)
	claim(0x32, pt.TransferChecked(userX, mintX, reserveX, user, 7, 6))

	assert.Empty(t, env.UOW.DlmmFees.All())
	assertReserves(t, env, 1000, 5000)
}

func TestRewards(t *testing.T) {
	env := pt.NewEnv()
	initPair(t, env)
	ctx := context.Background()

	kind := layout.DlmmInitializeReward
	process(t, env, pt.Instruction(pt.NewTx(0x40, blockTime+1), consts.MeteoraDLMMProgram, accounts(kind, nil),
		pt.Data(kind, layout.DlmmInitializeRewardArgs{RewardIndex: 1, RewardDuration: 86400, Funder: user})))

	kind = layout.DlmmFundReward
	process(t, env, pt.Instruction(pt.NewTx(0x41, blockTime+2), consts.MeteoraDLMMProgram,
		accounts(kind, map[string]types.Pubkey{"funderTokenAccount": funderToken}),
		pt.Data(kind, layout.DlmmFundRewardArgs{RewardIndex: 1, Amount: 1}),
		pt.Transfer(funderToken, rewardVault, user, 1000),
	))
	// 无转账证据时按参数金额
	process(t, env, pt.Instruction(pt.NewTx(0x42, blockTime+3), consts.MeteoraDLMMProgram, accounts(kind, nil),
		pt.Data(kind, layout.DlmmFundRewardArgs{RewardIndex: 1, Amount: 50})))

	kind = layout.DlmmClaimReward2
	process(t, env, pt.Instruction(pt.NewTx(0x43, blockTime+4), consts.MeteoraDLMMProgram,
		accounts(kind, map[string]types.Pubkey{"userTokenAccount": userReward}),
		pt.Data(kind, layout.DlmmClaimRewardArgs{RewardIndex: 1}),
		pt.Transfer(rewardVault, userReward, lbPair, 300),
	))

	r, found, err := env.Services.DlmmRewards.Get(ctx, lbPair.String(), 1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(750), r.Amount.Int64())
	assert.Equal(t, int64(86400), r.RewardDuration.Int64())
	assert.Equal(t, int64(blockTime+4), r.LastUpdateTime.Unix())

	// 未初始化的槽位注资被跳过
	process(t, env, pt.Instruction(pt.NewTx(0x44, blockTime+5), consts.MeteoraDLMMProgram, accounts(layout.DlmmFundReward, nil),
		pt.Data(layout.DlmmFundReward, layout.DlmmFundRewardArgs{RewardIndex: 2, Amount: 50})))
	_, found, err = env.Services.DlmmRewards.Get(ctx, lbPair.String(), 2)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPairStatus(t *testing.T) {
	env := pt.NewEnv()
	initPair(t, env)

	kind := layout.DlmmTogglePairStatus
	process(t, env, pt.Instruction(pt.NewTx(0x50, blockTime+1), consts.MeteoraDLMMProgram, accounts(kind, nil), pt.Data(kind)))
	assert.False(t, basePool(t, env).Status)
	process(t, env, pt.Instruction(pt.NewTx(0x51, blockTime+2), consts.MeteoraDLMMProgram, accounts(kind, nil), pt.Data(kind)))
	assert.True(t, basePool(t, env).Status)

	kind = layout.DlmmSetPairStatus
	process(t, env, pt.Instruction(pt.NewTx(0x52, blockTime+3), consts.MeteoraDLMMProgram, accounts(kind, nil),
		pt.Data(kind, layout.DlmmSetPairStatusArgs{Status: 1})))
	assert.False(t, basePool(t, env).Status)
}

func TestSwap_PoolNotFoundSkipped(t *testing.T) {
	env := pt.NewEnv()
	tx := pt.NewTx(0x60, blockTime)
	err := New(env.Ctx).ProcessInstruction(context.Background(), swapIx(tx, layout.DlmmSwap, swapArgs{AmountIn: 1},
		pt.Transfer(userX, reserveX, user, 1), pt.Transfer(reserveY, userY, lbPair, 1)))
	assert.NoError(t, err)
	assert.Zero(t, env.UOW.CachedCount())
}
