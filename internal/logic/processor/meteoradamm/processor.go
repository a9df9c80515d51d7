package meteoradamm

import (
	"context"
	"strings"

	"meteora-indexer-sol/internal/consts"
	"meteora-indexer-sol/internal/logic/core"
	"meteora-indexer-sol/internal/logic/layout"
	"meteora-indexer-sol/internal/logic/netflow"
	"meteora-indexer-sol/internal/logic/processor/common"
	"meteora-indexer-sol/internal/model"
	"meteora-indexer-sol/internal/service"
	"meteora-indexer-sol/internal/types"
)

const programLabel = "damm"

// policies 各流动性类指令的资金流策略
var policies = map[layout.Kind]common.Policy{
	layout.DammSwap:                      {Effect: netflow.EffectSwap},
	layout.DammAddBalanceLiquidity:       {Effect: netflow.EffectBalancedAdd, ChangeType: model.ChangeAdd, LpSign: 1},
	layout.DammRemoveBalanceLiquidity:    {Effect: netflow.EffectBalancedRemove, ChangeType: model.ChangeRemove, LpSign: -1},
	layout.DammAddImbalanceLiquidity:     {Effect: netflow.EffectImbalancedAdd, ChangeType: model.ChangeAdd, LpSign: 1},
	layout.DammRemoveLiquiditySingleSide: {Effect: netflow.EffectSingleSidedRemove, ChangeType: model.ChangeSingleSide, LpSign: -1},
	// bootstrap 不改变 LP 与 totalLiquidity
	layout.DammBootstrapLiquidity: {Effect: netflow.EffectBootstrap, ChangeType: model.ChangeBootstrap},
	layout.DammClaimFee:           {Effect: netflow.EffectClaimFee},
}

// Processor Meteora DAMM v1 指令处理器
type Processor struct {
	ctx *common.Context
}

func New(ctx *common.Context) *Processor {
	return &Processor{ctx: ctx}
}

func (p *Processor) ProgramID() types.Pubkey {
	return consts.MeteoraDAMMProgram
}

// ProcessInstruction 处理一条 DAMM 外层指令（含 inner）。
// 仅持久化失败会返回 error，其余错误按分类记录日志后跳过。
func (p *Processor) ProcessInstruction(ctx context.Context, ix *core.Instruction) (err error) {
	if ix.ProgramID != consts.MeteoraDAMMProgram {
		return nil
	}
	kind := layout.ResolveDAMM(ix.Data)
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
	case layout.DammInitializePermissionedPool,
		layout.DammInitializePermissionlessPool,
		layout.DammInitializePermissionlessPoolWithFeeTier,
		layout.DammInitializePermissionlessConstantProductPoolWithConfig,
		layout.DammInitializePermissionlessConstantProductPoolWithConfig2,
		layout.DammInitializeCustomizablePermissionlessConstantProductPool:
		return p.handleInitialize(ctx, ix, d)

	case layout.DammSwap:
		return p.handleSwap(ctx, ix, d)

	case layout.DammAddBalanceLiquidity,
		layout.DammRemoveBalanceLiquidity,
		layout.DammAddImbalanceLiquidity,
		layout.DammRemoveLiquiditySingleSide,
		layout.DammBootstrapLiquidity:
		return p.handleLiquidity(ctx, ix, d)

	case layout.DammClaimFee:
		return p.handleClaimFee(ctx, ix, d)
	case layout.DammEnableOrDisablePool:
		return p.handleEnableOrDisable(ctx, ix, d)
	case layout.DammOverrideCurveParam:
		return p.handleOverrideCurve(ctx, ix, d)
	case layout.DammLock:
		return p.handleLock(ctx, ix, d)
	case layout.DammCreateLockEscrow:
		return p.handleCreateLockEscrow(ctx, ix, d)
	}
	return common.ErrUnknownInstruction
}

// tagOf damm.addBalanceLiquidity → MeteoraDAMM:addBalanceLiquidity
func tagOf(kind layout.Kind) string {
	return "MeteoraDAMM:" + strings.TrimPrefix(kind.String(), "damm.")
}

// dammPoolParams 从具名账户构造 DammPool 参数，curve 为空时按常数乘积处理。
// 指令没有 lpMint 账户时（swap）留空
func dammPoolParams(acc layout.NamedAccounts, curve string) service.CreateDammPoolParams {
	var lpMint string
	if pk := acc.Get("lpMint"); !pk.IsZero() {
		lpMint = pk.String()
	}
	return service.CreateDammPoolParams{
		ID:           acc.Get("pool").String(),
		LpMint:       lpMint,
		AVault:       acc.Get("aVault").String(),
		BVault:       acc.Get("bVault").String(),
		AVaultLpMint: acc.Get("aVaultLpMint").String(),
		BVaultLpMint: acc.Get("bVaultLpMint").String(),
		CurveType:    curve,
	}
}

// dammPoolAccounts 创建 DammPool 所需的账户
var dammPoolAccounts = []string{"pool", "lpMint", "aVault", "bVault", "aVaultLpMint", "bVaultLpMint"}
