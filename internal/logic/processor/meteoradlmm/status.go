package meteoradlmm

import (
	"context"

	"meteora-indexer-sol/internal/logic/core"
	"meteora-indexer-sol/internal/logic/layout"
	"meteora-indexer-sol/internal/pkg/logger"
)

// handlePairStatus togglePairStatus 翻转状态；setPairStatus 按参数设置（0 = Enabled）。
// 状态只做记录，不影响后续指令处理。
func (p *Processor) handlePairStatus(ctx context.Context, ix *core.Instruction, d *layout.Decoded) error {
	if err := d.Accounts.Require("lbPair"); err != nil {
		return err
	}
	svc := p.ctx.Services
	base, err := svc.Pools.GetBasePool(ctx, d.Accounts.Get("lbPair").String())
	if err != nil {
		return err
	}

	if args, ok := d.Data.(*layout.DlmmSetPairStatusArgs); ok {
		base.Status = args.Status == 0
	} else {
		base.Status = !base.Status
	}
	logger.Infof("[%s] 池子状态变更: lbPair=%s, enabled=%v, tx=%s", tagOf(d.Kind), base.ID, base.Status, ix.TxID())
	return svc.Pools.UpdateBasePool(base, ix.Timestamp())
}
