package meteoradamm

import (
	"context"

	"meteora-indexer-sol/internal/logic/core"
	"meteora-indexer-sol/internal/logic/layout"
	"meteora-indexer-sol/internal/logic/processor/common"
	"meteora-indexer-sol/internal/service"
)

// handleSwap 解析 DAMM v1 swap。
//
// 0  - pool
// 1  - userSourceToken（用户输入 TokenAccount）
// 2  - userDestinationToken（用户输出 TokenAccount）
// 3  - aVault
// 4  - bVault
// 5  - aTokenVault（池子 Token A 托管账户）
// 6  - bTokenVault（池子 Token B 托管账户）
// ...
// 12 - user（签名者）
//
// 输入输出金额来自两个 token vault 的净流量，指令参数中的 inAmount 仅作参考。
func (p *Processor) handleSwap(ctx context.Context, ix *core.Instruction, d *layout.Decoded) error {
	acc := d.Accounts
	if err := acc.Require("pool", "userSourceToken", "userDestinationToken", "aTokenVault", "bTokenVault", "user"); err != nil {
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

	tokenIn, tokenOut := base.TokenY, base.TokenX
	if outcome.XToY {
		tokenIn, tokenOut = base.TokenX, base.TokenY
	}
	txID := ix.TxID()
	ts := ix.Timestamp()
	if _, err := svc.DammSwaps.Record(service.RecordDammSwapParams{
		PoolID:       poolID,
		TxID:         txID,
		SwapIndex:    p.ctx.Swaps.Next(txID),
		User:         acc.Get("user").String(),
		TokenInMint:  tokenIn,
		TokenOutMint: tokenOut,
		AmountIn:     outcome.AmountIn,
		AmountOut:    outcome.AmountOut,
		Timestamp:    ts,
	}); err != nil {
		return err
	}
	return svc.Pools.UpdateBasePool(base, ts)
}
