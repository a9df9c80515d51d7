package meteoradlmm

import (
	"context"
	"math/big"

	"meteora-indexer-sol/internal/logic/core"
	"meteora-indexer-sol/internal/logic/layout"
	"meteora-indexer-sol/internal/logic/processor/common"
	"meteora-indexer-sol/internal/service"
)

// handleLiquidity 处理添加 / 移除流动性的全部变体。
// 双边版本：position, lbPair, binArrayBitmapExtension, userTokenX, userTokenY, reserveX, reserveY, ... sender
// 单边版本：position, lbPair, binArrayBitmapExtension, userToken, reserve, tokenMint, ... sender
//
// 单边版本只给出一个 reserve，因此统一使用 BasePool 记录的两个 vault 统计净流量。
// 仓位 id 为 positionAddress-sender，bin 区间取指令参数。
func (p *Processor) handleLiquidity(ctx context.Context, ix *core.Instruction, d *layout.Decoded) error {
	acc := d.Accounts
	if err := acc.Require("position", "lbPair", "sender"); err != nil {
		return err
	}
	args := d.Data.(*layout.DlmmLiquidityArgs)
	policy := policies[d.Kind]

	svc := p.ctx.Services
	poolID := acc.Get("lbPair").String()
	if _, err := svc.Pools.GetDlmmPool(ctx, poolID); err != nil {
		return err
	}
	base, err := svc.Pools.GetBasePool(ctx, poolID)
	if err != nil {
		return err
	}
	vaultX, vaultY, err := common.PoolVaults(base.TokenXVault, base.TokenYVault)
	if err != nil {
		return err
	}

	_, flow := common.VaultFlow(ix, vaultX, vaultY)
	outcome, err := common.ApplyFlow(base, policy, flow)
	if err != nil {
		return err
	}

	ts := ix.Timestamp()
	owner := acc.Get("sender").String()
	var lower, upper int32
	if args.HasBinRange {
		lower, upper = args.MinBinID, args.MaxBinID
	}
	pos, _, err := svc.DlmmPositions.GetOrCreate(ctx, service.CreateDlmmPositionParams{
		Position:   acc.Get("position").String(),
		Owner:      owner,
		PoolID:     poolID,
		LowerBinID: lower,
		UpperBinID: upper,
		Timestamp:  ts,
	})
	if err != nil {
		return err
	}

	if _, err := svc.DlmmLiquidity.RecordChange(service.RecordDlmmChangeParams{
		PoolID:       poolID,
		Owner:        owner,
		PositionID:   pos.ID,
		TxID:         ix.TxID(),
		Type:         policy.ChangeType,
		TokenXAmount: outcome.AmountX,
		TokenYAmount: outcome.AmountY,
		Timestamp:    ts,
	}); err != nil {
		return err
	}

	dx, dy := outcome.AmountX, outcome.AmountY
	if policy.LpSign < 0 {
		dx, dy = new(big.Int).Neg(dx), new(big.Int).Neg(dy)
	}
	pos.TokenXAmount = common.AddClamped(pos.TokenXAmount, dx)
	pos.TokenYAmount = common.AddClamped(pos.TokenYAmount, dy)
	if err := svc.DlmmPositions.Update(pos, ts); err != nil {
		return err
	}
	return svc.Pools.UpdateBasePool(base, ts)
}

// handleInitializePosition 创建空仓位，bin 区间为 [lowerBinId, lowerBinId+width-1]
//
// 0 - payer
// 1 - position
// 2 - lbPair
// 3 - owner
func (p *Processor) handleInitializePosition(ctx context.Context, ix *core.Instruction, d *layout.Decoded) error {
	acc := d.Accounts
	if err := acc.Require("position", "lbPair", "owner"); err != nil {
		return err
	}
	args := d.Data.(*layout.DlmmInitializePositionArgs)

	svc := p.ctx.Services
	poolID := acc.Get("lbPair").String()
	if _, err := svc.Pools.GetDlmmPool(ctx, poolID); err != nil {
		return err
	}
	upper := args.LowerBinID
	if args.Width > 0 {
		upper = args.LowerBinID + args.Width - 1
	}
	_, _, err := svc.DlmmPositions.GetOrCreate(ctx, service.CreateDlmmPositionParams{
		Position:   acc.Get("position").String(),
		Owner:      acc.Get("owner").String(),
		PoolID:     poolID,
		LowerBinID: args.LowerBinID,
		UpperBinID: upper,
		Timestamp:  ix.Timestamp(),
	})
	return err
}
