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

// handleInitializeReward 初始化奖励槽位 pool-rewardIndex
//
// 0 - lbPair
// 1 - rewardVault
// 2 - rewardMint
// 3 - admin
func (p *Processor) handleInitializeReward(ctx context.Context, ix *core.Instruction, d *layout.Decoded) error {
	acc := d.Accounts
	if err := acc.Require("lbPair"); err != nil {
		return err
	}
	args := d.Data.(*layout.DlmmInitializeRewardArgs)

	svc := p.ctx.Services
	poolID := acc.Get("lbPair").String()
	if _, err := svc.Pools.GetDlmmPool(ctx, poolID); err != nil {
		return err
	}
	_, _, err := svc.DlmmRewards.GetOrCreate(ctx, service.CreateDlmmRewardParams{
		PoolID:         poolID,
		RewardIndex:    args.RewardIndex,
		RewardDuration: common.U64(args.RewardDuration),
		Funder:         args.Funder.String(),
		Timestamp:      ix.Timestamp(),
	})
	return err
}

// handleFundReward 注资：累加转入 rewardVault 的金额，无转账证据时取参数 amount
//
// 0 - lbPair
// 1 - rewardVault
// 2 - rewardMint
// 3 - funderTokenAccount
// 4 - funder
func (p *Processor) handleFundReward(ctx context.Context, ix *core.Instruction, d *layout.Decoded) error {
	acc := d.Accounts
	if err := acc.Require("lbPair", "rewardVault"); err != nil {
		return err
	}
	args := d.Data.(*layout.DlmmFundRewardArgs)

	svc := p.ctx.Services
	poolID := acc.Get("lbPair").String()
	reward, found, err := svc.DlmmRewards.Get(ctx, poolID, args.RewardIndex)
	if err != nil {
		return err
	}
	if !found {
		logger.Warnf("[%s] 奖励槽位不存在: lbPair=%s, index=%d, tx=%s", tagOf(d.Kind), poolID, args.RewardIndex, ix.TxID())
		return nil
	}

	amount := transfer.SumInto(transfer.ExtractAll(ix), acc.Get("rewardVault"))
	if amount == 0 {
		amount = args.Amount
	}
	reward.Amount = common.AddClamped(reward.Amount, common.U64(amount))
	return svc.DlmmRewards.Update(reward, ix.Timestamp())
}

// handleClaimReward 领取奖励：扣减从 rewardVault 转出的金额
//
// claimReward:  lbPair, position, binArrayLower, binArrayUpper, sender, rewardVault, ...
// claimReward2: lbPair, position, sender, rewardVault, ...
func (p *Processor) handleClaimReward(ctx context.Context, ix *core.Instruction, d *layout.Decoded) error {
	acc := d.Accounts
	if err := acc.Require("lbPair", "rewardVault"); err != nil {
		return err
	}
	args := d.Data.(*layout.DlmmClaimRewardArgs)

	svc := p.ctx.Services
	reward, found, err := svc.DlmmRewards.Get(ctx, acc.Get("lbPair").String(), args.RewardIndex)
	if err != nil || !found {
		return err
	}
	claimed := transfer.SumOutOf(transfer.ExtractAll(ix), acc.Get("rewardVault"))
	if claimed == 0 {
		return nil
	}
	reward.Amount = common.AddClamped(reward.Amount, new(big.Int).Neg(common.U64(claimed)))
	return svc.DlmmRewards.Update(reward, ix.Timestamp())
}
