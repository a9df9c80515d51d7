package meteoradlmm

import (
	"context"

	"meteora-indexer-sol/internal/logic/core"
	"meteora-indexer-sol/internal/logic/layout"
	"meteora-indexer-sol/internal/logic/processor/common"
	"meteora-indexer-sol/internal/logic/transfer"
	"meteora-indexer-sol/internal/model"
	"meteora-indexer-sol/internal/service"
)

// handleClaimFee 手续费领取，记录两条：
//   - out：两个 reserve 的转出量
//   - in：用户 userTokenX / userTokenY 的实际到账量
//
// claimFee:  lbPair, position, binArrayLower, binArrayUpper, sender, reserveX, reserveY, userTokenX, userTokenY, ...
// claimFee2: lbPair, position, sender, reserveX, reserveY, userTokenX, userTokenY, ...
func (p *Processor) handleClaimFee(ctx context.Context, ix *core.Instruction, d *layout.Decoded) error {
	acc := d.Accounts
	if err := acc.Require("lbPair", "position", "sender", "reserveX", "reserveY", "userTokenX", "userTokenY"); err != nil {
		return err
	}

	svc := p.ctx.Services
	poolID := acc.Get("lbPair").String()
	if _, err := svc.Pools.GetDlmmPool(ctx, poolID); err != nil {
		return err
	}
	base, err := svc.Pools.GetBasePool(ctx, poolID)
	if err != nil {
		return err
	}

	transfers, flow := common.VaultFlow(ix, acc.Get("reserveX"), acc.Get("reserveY"))
	if !flow.HasEvidence() {
		return nil
	}
	outcome, err := common.ApplyFlow(base, policies[d.Kind], flow)
	if err != nil {
		return err
	}

	params := service.RecordDlmmFeeParams{
		PoolID:    poolID,
		TxID:      ix.TxID(),
		Position:  acc.Get("position").String(),
		User:      acc.Get("sender").String(),
		Type:      model.FeeOut,
		AmountX:   outcome.AmountX,
		AmountY:   outcome.AmountY,
		Timestamp: ix.Timestamp(),
	}
	if _, err := svc.DlmmFees.Record(params); err != nil {
		return err
	}

	params.Type = model.FeeIn
	params.AmountX = common.U64(transfer.SumInto(transfers, acc.Get("userTokenX")))
	params.AmountY = common.U64(transfer.SumInto(transfers, acc.Get("userTokenY")))
	if _, err := svc.DlmmFees.Record(params); err != nil {
		return err
	}
	return svc.Pools.UpdateBasePool(base, params.Timestamp)
}
