package meteoradlmm

import (
	"context"

	"meteora-indexer-sol/internal/logic/core"
	"meteora-indexer-sol/internal/logic/layout"
	"meteora-indexer-sol/internal/logic/processor/common"
	"meteora-indexer-sol/internal/service"
)

// handleSwap 解析 Meteora DLMM 各类 Swap。几种 swap 的账户顺序一致：
//
// 0  - Lb Pair（池子地址）
// 1  - Bin Array Bitmap Extension
// 2  - Reserve X（池子 Token X 的 TokenAccount）
// 3  - Reserve Y（池子 Token Y 的 TokenAccount）
// 4  - User Token In（用户输入的 TokenAccount）
// 5  - User Token Out（用户输出的 TokenAccount）
// 6  - Token X Mint
// 7  - Token Y Mint
// 10 - User（签名者）
//
// swap2 系列使用 TransferChecked，净流量为正的一侧视为输入。
func (p *Processor) handleSwap(ctx context.Context, ix *core.Instruction, d *layout.Decoded) error {
	acc := d.Accounts
	if err := acc.Require("lbPair", "reserveX", "reserveY", "userTokenIn", "userTokenOut", "user"); err != nil {
		return err
	}
	args := d.Data.(*layout.DlmmSwapArgs)

	svc := p.ctx.Services
	poolID := acc.Get("lbPair").String()
	if _, err := svc.Pools.GetDlmmPool(ctx, poolID); err != nil {
		return err
	}
	base, err := svc.Pools.GetBasePool(ctx, poolID)
	if err != nil {
		return err
	}

	_, flow := common.VaultFlow(ix, acc.Get("reserveX"), acc.Get("reserveY"))
	outcome, err := common.ApplyFlow(base, policies[d.Kind], flow)
	if err != nil {
		return err
	}

	tokenIn, tokenOut := base.TokenY, base.TokenX
	if outcome.XToY {
		tokenIn, tokenOut = base.TokenX, base.TokenY
	}
	var priceImpact *int32
	if args.MaxPriceImpactBps != nil {
		bps := int32(*args.MaxPriceImpactBps)
		priceImpact = &bps
	}

	txID := ix.TxID()
	ts := ix.Timestamp()
	if _, err := svc.DlmmSwaps.Record(service.RecordDlmmSwapParams{
		PoolID:          poolID,
		TxID:            txID,
		SwapIndex:       p.ctx.Swaps.Next(txID),
		User:            acc.Get("user").String(),
		TokenInMint:     tokenIn,
		TokenOutMint:    tokenOut,
		TokenInAddress:  acc.Get("userTokenIn").String(),
		TokenOutAddress: acc.Get("userTokenOut").String(),
		AmountIn:        outcome.AmountIn,
		AmountOut:       outcome.AmountOut,
		PriceImpactBps:  priceImpact,
		Timestamp:       ts,
	}); err != nil {
		return err
	}
	return svc.Pools.UpdateBasePool(base, ts)
}
