package meteoradamm

import (
	"context"

	"meteora-indexer-sol/internal/logic/core"
	"meteora-indexer-sol/internal/logic/layout"
	"meteora-indexer-sol/internal/logic/processor/common"
	"meteora-indexer-sol/internal/service"
)

// handleLiquidity 处理 add/remove balance、imbalance、single side 与 bootstrap。
// 五种指令共用账户布局（removeLiquiditySingleSide 仅一个用户 token 账户）：
//
// 0  - pool
// 1  - lpMint
// 2  - userPoolLp（用户 LP TokenAccount）
// 5  - aVault
// 6  - bVault
// 9  - aTokenVault
// 10 - bTokenVault
// 13 - user（single side 为 12）
//
// 记录金额以 vault 净流量为准；LP 变动取指令参数（poolTokenAmount / minimumPoolTokenAmount）。
func (p *Processor) handleLiquidity(ctx context.Context, ix *core.Instruction, d *layout.Decoded) error {
	acc := d.Accounts
	if err := acc.Require(dammPoolAccounts...); err != nil {
		return err
	}
	if err := acc.Require("aTokenVault", "bTokenVault", "user"); err != nil {
		return err
	}
	policy := policies[d.Kind]
	lp := lpAmountOf(d)

	svc := p.ctx.Services
	poolID := acc.Get("pool").String()
	owner := acc.Get("user").String()
	ts := ix.Timestamp()

	base, err := svc.Pools.GetBasePool(ctx, poolID)
	if err != nil {
		return err
	}
	if _, _, err := svc.Pools.GetOrCreateDammPool(ctx, dammPoolParams(acc, "")); err != nil {
		return err
	}

	_, flow := common.VaultFlow(ix, acc.Get("aTokenVault"), acc.Get("bTokenVault"))
	outcome, err := common.ApplyFlow(base, policy, flow)
	if err != nil {
		return err
	}
	// 资金流校验通过后再建立持仓
	pos, _, err := svc.DammLiquidity.GetOrCreatePosition(ctx, poolID, owner, ts)
	if err != nil {
		return err
	}

	if _, err := svc.DammLiquidity.RecordChange(service.RecordDammChangeParams{
		PoolID:        poolID,
		Owner:         owner,
		TxID:          ix.TxID(),
		Type:          policy.ChangeType,
		TokenXAmount:  outcome.AmountX,
		TokenYAmount:  outcome.AmountY,
		LpTokenAmount: common.U64(lp),
		Timestamp:     ts,
	}); err != nil {
		return err
	}

	delta := common.SignedLp(policy, lp)
	pos.LpTokenAmount = common.AddClamped(pos.LpTokenAmount, delta)
	if err := svc.DammLiquidity.UpdatePosition(pos, ts); err != nil {
		return err
	}
	base.TotalLiquidity = common.AddClamped(base.TotalLiquidity, delta)
	return svc.Pools.UpdateBasePool(base, ts)
}

// lpAmountOf 指令参数中的 LP 数量，bootstrap 无 LP 参数
func lpAmountOf(d *layout.Decoded) uint64 {
	switch args := d.Data.(type) {
	case *layout.DammAddBalanceLiquidityArgs:
		return args.PoolTokenAmount
	case *layout.DammRemoveBalanceLiquidityArgs:
		return args.PoolTokenAmount
	case *layout.DammAddImbalanceLiquidityArgs:
		return args.MinimumPoolTokenAmount
	case *layout.DammRemoveLiquiditySingleSideArgs:
		return args.PoolTokenAmount
	default:
		return 0
	}
}

// handleClaimFee 锁仓 LP 的手续费领取，金额为两个 vault 的转出量。
//
// 0  - pool
// 1  - lpMint
// 2  - lockEscrow
// 3  - owner
// 7  - aTokenVault
// 8  - bTokenVault
// 9  - aVault
// 10 - bVault
func (p *Processor) handleClaimFee(ctx context.Context, ix *core.Instruction, d *layout.Decoded) error {
	acc := d.Accounts
	if err := acc.Require(dammPoolAccounts...); err != nil {
		return err
	}
	if err := acc.Require("aTokenVault", "bTokenVault", "owner"); err != nil {
		return err
	}

	svc := p.ctx.Services
	poolID := acc.Get("pool").String()
	base, err := svc.Pools.GetBasePool(ctx, poolID)
	if err != nil {
		return err
	}
	if _, _, err := svc.Pools.GetOrCreateDammPool(ctx, dammPoolParams(acc, "")); err != nil {
		return err
	}

	_, flow := common.VaultFlow(ix, acc.Get("aTokenVault"), acc.Get("bTokenVault"))
	outcome, err := common.ApplyFlow(base, policies[d.Kind], flow)
	if err != nil {
		return err
	}

	ts := ix.Timestamp()
	if _, err := svc.DammFees.Record(service.RecordDammFeeParams{
		PoolID:       poolID,
		TxID:         ix.TxID(),
		Owner:        acc.Get("owner").String(),
		TokenXAmount: outcome.AmountX,
		TokenYAmount: outcome.AmountY,
		Timestamp:    ts,
	}); err != nil {
		return err
	}
	return svc.Pools.UpdateBasePool(base, ts)
}
