package meteoradlmm

import (
	"context"
	"strings"

	"meteora-indexer-sol/internal/consts"
	"meteora-indexer-sol/internal/logic/core"
	"meteora-indexer-sol/internal/logic/layout"
	"meteora-indexer-sol/internal/logic/netflow"
	"meteora-indexer-sol/internal/logic/processor/common"
	"meteora-indexer-sol/internal/model"
	"meteora-indexer-sol/internal/types"
)

const programLabel = "dlmm"

var (
	swapPolicy     = common.Policy{Effect: netflow.EffectSwap}
	addPolicy      = common.Policy{Effect: netflow.EffectImbalancedAdd, ChangeType: model.ChangeAdd, LpSign: 1}
	removePolicy   = common.Policy{Effect: netflow.EffectRemove, ChangeType: model.ChangeRemove, LpSign: -1}
	claimFeePolicy = common.Policy{Effect: netflow.EffectClaimFee}
)

// policies DLMM 各类资金流指令的策略；bin 流动性不计入 totalLiquidity
var policies = map[layout.Kind]common.Policy{
	layout.DlmmSwap:                 swapPolicy,
	layout.DlmmSwap2:                swapPolicy,
	layout.DlmmSwapExactOut:         swapPolicy,
	layout.DlmmSwapExactOut2:        swapPolicy,
	layout.DlmmSwapWithPriceImpact:  swapPolicy,
	layout.DlmmSwapWithPriceImpact2: swapPolicy,

	layout.DlmmAddLiquidity:                  addPolicy,
	layout.DlmmAddLiquidity2:                 addPolicy,
	layout.DlmmAddLiquidityByWeight:          addPolicy,
	layout.DlmmAddLiquidityByStrategy:        addPolicy,
	layout.DlmmAddLiquidityByStrategy2:       addPolicy,
	layout.DlmmAddLiquidityByStrategyOneSide: addPolicy,
	layout.DlmmAddLiquidityOneSide:           addPolicy,
	layout.DlmmAddLiquidityOneSidePrecise:    addPolicy,
	layout.DlmmAddLiquidityOneSidePrecise2:   addPolicy,

	layout.DlmmRemoveLiquidity:         removePolicy,
	layout.DlmmRemoveLiquidity2:        removePolicy,
	layout.DlmmRemoveLiquidityByRange:  removePolicy,
	layout.DlmmRemoveLiquidityByRange2: removePolicy,
	layout.DlmmRemoveAllLiquidity:      removePolicy,

	layout.DlmmClaimFee:  claimFeePolicy,
	layout.DlmmClaimFee2: claimFeePolicy,
}

// Processor Meteora DLMM 指令处理器
type Processor struct {
	ctx *common.Context
}

func New(ctx *common.Context) *Processor {
	return &Processor{ctx: ctx}
}

func (p *Processor) ProgramID() types.Pubkey {
	return consts.MeteoraDLMMProgram
}

// ProcessInstruction 处理一条 DLMM 外层指令（含 inner），仅持久化失败向上返回
func (p *Processor) ProcessInstruction(ctx context.Context, ix *core.Instruction) (err error) {
	if ix.ProgramID != consts.MeteoraDLMMProgram {
		return nil
	}
	kind := layout.ResolveDLMM(ix.Data)
	if kind == layout.KindUnhandled {
		return nil
	}

	tag := tagOf(kind)
	defer func() {
		p.ctx.Metrics.ObserveInstruction(programLabel, kind.String(), common.Outcome(err))
		err = common.HandleError(tag, ix, err)
	}()
	defer common.Recover(tag, ix, &err)

	d, err := layout.Decode(kind, ix.Accounts, ix.Data)
	if err != nil {
		return err
	}

	switch kind {
	case layout.DlmmInitializeLbPair,
		layout.DlmmInitializeLbPair2,
		layout.DlmmInitializePermissionLbPair,
		layout.DlmmInitializeCustomizablePermissionlessLbPair,
		layout.DlmmInitializeCustomizablePermissionlessLbPair2:
		return p.handleInitialize(ctx, ix, d)

	case layout.DlmmSwap, layout.DlmmSwap2,
		layout.DlmmSwapExactOut, layout.DlmmSwapExactOut2,
		layout.DlmmSwapWithPriceImpact, layout.DlmmSwapWithPriceImpact2:
		return p.handleSwap(ctx, ix, d)

	case layout.DlmmAddLiquidity,
		layout.DlmmAddLiquidity2,
		layout.DlmmAddLiquidityByWeight,
		layout.DlmmAddLiquidityByStrategy,
		layout.DlmmAddLiquidityByStrategy2,
		layout.DlmmAddLiquidityByStrategyOneSide,
		layout.DlmmAddLiquidityOneSide,
		layout.DlmmAddLiquidityOneSidePrecise,
		layout.DlmmAddLiquidityOneSidePrecise2,
		layout.DlmmRemoveLiquidity,
		layout.DlmmRemoveLiquidity2,
		layout.DlmmRemoveLiquidityByRange,
		layout.DlmmRemoveLiquidityByRange2,
		layout.DlmmRemoveAllLiquidity:
		return p.handleLiquidity(ctx, ix, d)

	case layout.DlmmInitializePosition:
		return p.handleInitializePosition(ctx, ix, d)

	case layout.DlmmClaimFee, layout.DlmmClaimFee2:
		return p.handleClaimFee(ctx, ix, d)

	case layout.DlmmInitializeReward:
		return p.handleInitializeReward(ctx, ix, d)
	case layout.DlmmFundReward:
		return p.handleFundReward(ctx, ix, d)
	case layout.DlmmClaimReward, layout.DlmmClaimReward2:
		return p.handleClaimReward(ctx, ix, d)

	case layout.DlmmTogglePairStatus, layout.DlmmSetPairStatus:
		return p.handlePairStatus(ctx, ix, d)
	}
	return common.ErrUnknownInstruction
}

// tagOf dlmm.addLiquidity2 → MeteoraDLMM:addLiquidity2
func tagOf(kind layout.Kind) string {
	return "MeteoraDLMM:" + strings.TrimPrefix(kind.String(), "dlmm.")
}
