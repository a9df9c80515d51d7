package meteoradamm

import (
	"context"

	"meteora-indexer-sol/internal/logic/core"
	"meteora-indexer-sol/internal/logic/layout"
	"meteora-indexer-sol/internal/logic/processor/common"
	"meteora-indexer-sol/internal/logic/transfer"
)

// handleLock LP 锁仓：累加转入 escrowVault 的 LP，无转账证据时取参数 maxAmount。
//
// 0 - pool
// 1 - lpMint
// 2 - lockEscrow
// 3 - owner
// 4 - sourceTokens（用户 LP TokenAccount）
// 5 - escrowVault
func (p *Processor) handleLock(ctx context.Context, ix *core.Instruction, d *layout.Decoded) error {
	acc := d.Accounts
	if err := acc.Require(dammPoolAccounts...); err != nil {
		return err
	}
	if err := acc.Require("owner", "escrowVault"); err != nil {
		return err
	}
	args := d.Data.(*layout.DammMaxAmountArgs)

	svc := p.ctx.Services
	poolID := acc.Get("pool").String()
	if _, err := svc.Pools.GetBasePool(ctx, poolID); err != nil {
		return err
	}
	if _, _, err := svc.Pools.GetOrCreateDammPool(ctx, dammPoolParams(acc, "")); err != nil {
		return err
	}

	amount := transfer.SumInto(transfer.ExtractAll(ix), acc.Get("escrowVault"))
	if amount == 0 {
		amount = args.MaxAmount
	}

	ts := ix.Timestamp()
	lock, _, err := svc.DammLocks.GetOrCreate(ctx, poolID, acc.Get("owner").String(), ts)
	if err != nil {
		return err
	}
	lock.Amount = common.AddClamped(lock.Amount, common.U64(amount))
	return svc.DammLocks.Update(lock, ts)
}

// handleCreateLockEscrow 为 owner 建立空的锁仓记录
//
// 0 - pool
// 1 - lockEscrow
// 2 - owner
// 3 - lpMint
func (p *Processor) handleCreateLockEscrow(ctx context.Context, ix *core.Instruction, d *layout.Decoded) error {
	acc := d.Accounts
	if err := acc.Require("pool", "owner"); err != nil {
		return err
	}
	svc := p.ctx.Services
	poolID := acc.Get("pool").String()
	if _, err := svc.Pools.GetDammPool(ctx, poolID); err != nil {
		return err
	}
	_, _, err := svc.DammLocks.GetOrCreate(ctx, poolID, acc.Get("owner").String(), ix.Timestamp())
	return err
}
