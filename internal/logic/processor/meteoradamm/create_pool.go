package meteoradamm

import (
	"context"
	"math/big"

	"meteora-indexer-sol/internal/logic/core"
	"meteora-indexer-sol/internal/logic/layout"
	"meteora-indexer-sol/internal/logic/processor/common"
	"meteora-indexer-sol/internal/pkg/logger"
	"meteora-indexer-sol/internal/service"
)

// handleInitialize 处理 DAMM v1 的六种建池指令。
// 各版本账户顺序不同，统一按具名账户读取：
//
//	pool          池子地址（BasePool / DammPool 的 id）
//	lpMint        LP Mint
//	tokenAMint    Token A Mint（记为 tokenX）
//	tokenBMint    Token B Mint（记为 tokenY）
//	aVault/bVault 动态 vault 账户
//	aTokenVault   Token A 实际托管账户（记为 tokenXVault）
//	bTokenVault   Token B 实际托管账户（记为 tokenYVault）
//	aVaultLpMint/bVaultLpMint  动态 vault 的 LP Mint
//
// 初始储备以转入 vault 的转账为准，没有转账证据时才退回指令参数中的 token 数量。
func (p *Processor) handleInitialize(ctx context.Context, ix *core.Instruction, d *layout.Decoded) error {
	acc := d.Accounts
	if err := acc.Require("pool", "lpMint", "tokenAMint", "tokenBMint", "aTokenVault", "bTokenVault",
		"aVault", "bVault", "aVaultLpMint", "bVaultLpMint"); err != nil {
		return err
	}
	args := d.Data.(*layout.DammInitializeArgs)

	_, flow := common.VaultFlow(ix, acc.Get("aTokenVault"), acc.Get("bTokenVault"))
	var reserveX, reserveY *big.Int
	if flow.HasEvidence() {
		reserveX, reserveY = common.NonNegative(flow.NetX), common.NonNegative(flow.NetY)
	} else {
		reserveX, reserveY = common.U64(args.TokenAAmount), common.U64(args.TokenBAmount)
	}

	ts := ix.Timestamp()
	svc := p.ctx.Services
	base, created, err := svc.Pools.GetOrCreateBasePool(ctx, service.CreateBasePoolParams{
		ID:          acc.Get("pool").String(),
		TokenX:      acc.Get("tokenAMint").String(),
		TokenY:      acc.Get("tokenBMint").String(),
		TokenXVault: acc.Get("aTokenVault").String(),
		TokenYVault: acc.Get("bTokenVault").String(),
		ReserveX:    reserveX,
		ReserveY:    reserveY,
		Timestamp:   ts,
	})
	if err != nil {
		return err
	}
	if !created {
		logger.Debugf("[%s] 池子已存在: pool=%s, tx=%s", tagOf(d.Kind), base.ID, ix.TxID())
	}

	if _, _, err := svc.Pools.GetOrCreateDammPool(ctx, dammPoolParams(acc, args.Curve.Name())); err != nil {
		return err
	}
	return nil
}
