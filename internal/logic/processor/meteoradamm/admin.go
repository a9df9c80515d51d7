package meteoradamm

import (
	"context"

	"meteora-indexer-sol/internal/logic/core"
	"meteora-indexer-sol/internal/logic/layout"
	"meteora-indexer-sol/internal/pkg/logger"
)

// handleEnableOrDisable 按参数设置池子状态。状态不影响后续指令处理。
//
// 0 - pool
// 1 - admin
func (p *Processor) handleEnableOrDisable(ctx context.Context, ix *core.Instruction, d *layout.Decoded) error {
	if err := d.Accounts.Require("pool"); err != nil {
		return err
	}
	args := d.Data.(*layout.DammEnableOrDisablePoolArgs)

	base, err := p.ctx.Services.Pools.GetBasePool(ctx, d.Accounts.Get("pool").String())
	if err != nil {
		return err
	}
	base.Status = args.Enable
	logger.Infof("[%s] 池子状态变更: pool=%s, enable=%v, tx=%s", tagOf(d.Kind), base.ID, args.Enable, ix.TxID())
	return p.ctx.Services.Pools.UpdateBasePool(base, ix.Timestamp())
}

// handleOverrideCurve 更新曲线类型并刷新 BasePool.updatedAt
//
// 0 - pool
// 1 - admin
func (p *Processor) handleOverrideCurve(ctx context.Context, ix *core.Instruction, d *layout.Decoded) error {
	if err := d.Accounts.Require("pool"); err != nil {
		return err
	}
	args := d.Data.(*layout.DammOverrideCurveParamArgs)

	svc := p.ctx.Services
	poolID := d.Accounts.Get("pool").String()
	dp, err := svc.Pools.GetDammPool(ctx, poolID)
	if err != nil {
		return err
	}
	base, err := svc.Pools.GetBasePool(ctx, poolID)
	if err != nil {
		return err
	}
	dp.CurveType = args.Curve.Name()
	if err := svc.Pools.UpdateDammPool(dp); err != nil {
		return err
	}
	return svc.Pools.UpdateBasePool(base, ix.Timestamp())
}
