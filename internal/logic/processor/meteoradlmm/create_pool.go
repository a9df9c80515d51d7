package meteoradlmm

import (
	"context"
	"math/big"

	"meteora-indexer-sol/internal/logic/core"
	"meteora-indexer-sol/internal/logic/layout"
	"meteora-indexer-sol/internal/logic/processor/common"
	"meteora-indexer-sol/internal/logic/transfer"
	"meteora-indexer-sol/internal/pkg/logger"
	"meteora-indexer-sol/internal/service"
)

// handleInitialize 处理 initializeLbPair / initializeLbPair2 / initializePermissionLbPair /
// initializeCustomizablePermissionlessLbPair(2)。
//
//	lbPair      池子地址
//	tokenMintX  Token X Mint
//	tokenMintY  Token Y Mint
//	reserveX    池子 Token X 的 TokenAccount
//	reserveY    池子 Token Y 的 TokenAccount
//
// reserveX / reserveY 应由本指令通过 System CreateAccount 创建，缺失时只记录警告。
// 初始储备取转入 reserve 的净流量（通常为 0），createAccount 的 lamports 是租金，不计入储备。
func (p *Processor) handleInitialize(ctx context.Context, ix *core.Instruction, d *layout.Decoded) error {
	acc := d.Accounts
	if err := acc.Require("lbPair", "tokenMintX", "tokenMintY", "reserveX", "reserveY"); err != nil {
		return err
	}
	args := d.Data.(*layout.DlmmInitializePairArgs)
	tag := tagOf(d.Kind)

	reserveX, reserveY := acc.Get("reserveX"), acc.Get("reserveY")
	created := transfer.ExtractCreateAccounts(ix)
	if !transfer.Created(created, reserveX) || !transfer.Created(created, reserveY) {
		logger.Warnf("[%s] reserve 账户未在本指令中创建: lbPair=%s, createAccounts=%d, tx=%s",
			tag, acc.Get("lbPair"), len(created), ix.TxID())
	}

	_, flow := common.VaultFlow(ix, reserveX, reserveY)
	ts := ix.Timestamp()
	svc := p.ctx.Services
	poolID := acc.Get("lbPair").String()
	if _, _, err := svc.Pools.GetOrCreateBasePool(ctx, service.CreateBasePoolParams{
		ID:          poolID,
		TokenX:      acc.Get("tokenMintX").String(),
		TokenY:      acc.Get("tokenMintY").String(),
		TokenXVault: reserveX.String(),
		TokenYVault: reserveY.String(),
		ReserveX:    common.NonNegative(flow.NetX),
		ReserveY:    common.NonNegative(flow.NetY),
		Timestamp:   ts,
	}); err != nil {
		return err
	}

	var activation *big.Int
	if args.ActivationPoint != nil {
		activation = common.U64(*args.ActivationPoint)
	}
	_, _, err := svc.Pools.GetOrCreateDlmmPool(ctx, service.CreateDlmmPoolParams{
		ID:              poolID,
		BinStep:         int32(args.BinStep),
		ActiveID:        args.ActiveID,
		ActivationPoint: activation,
	})
	return err
}
