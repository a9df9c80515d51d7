package model

import "math/big"

// Clone 深拷贝实体，big.Int 字段不共享底层数据。未知类型原样返回
func Clone(e Entity) Entity {
	switch v := e.(type) {
	case *BasePool:
		c := *v
		c.ReserveX, c.ReserveY, c.TotalLiquidity = copyInt(v.ReserveX), copyInt(v.ReserveY), copyInt(v.TotalLiquidity)
		return &c
	case *DammPool:
		c := *v
		return &c
	case *DlmmPool:
		c := *v
		c.ActivationPoint, c.PreActivationDuration = copyInt(v.ActivationPoint), copyInt(v.PreActivationDuration)
		return &c
	case *DammPosition:
		c := *v
		c.LpTokenAmount = copyInt(v.LpTokenAmount)
		return &c
	case *DlmmPosition:
		c := *v
		c.Liquidity, c.TokenXAmount, c.TokenYAmount = copyInt(v.Liquidity), copyInt(v.TokenXAmount), copyInt(v.TokenYAmount)
		c.LockReleasePoint = copyInt(v.LockReleasePoint)
		return &c
	case *DammLock:
		c := *v
		c.Amount = copyInt(v.Amount)
		return &c
	case *DlmmReward:
		c := *v
		c.RewardDuration, c.Amount = copyInt(v.RewardDuration), copyInt(v.Amount)
		return &c
	case *DammSwap:
		c := *v
		c.AmountIn, c.AmountOut = copyInt(v.AmountIn), copyInt(v.AmountOut)
		return &c
	case *DlmmSwap:
		c := *v
		c.AmountIn, c.AmountOut = copyInt(v.AmountIn), copyInt(v.AmountOut)
		if v.PriceImpactBps != nil {
			bps := *v.PriceImpactBps
			c.PriceImpactBps = &bps
		}
		return &c
	case *DammLiquidityChange:
		c := *v
		c.TokenXAmount, c.TokenYAmount, c.LpTokenAmount = copyInt(v.TokenXAmount), copyInt(v.TokenYAmount), copyInt(v.LpTokenAmount)
		return &c
	case *DlmmLiquidityChange:
		c := *v
		c.TokenXAmount, c.TokenYAmount = copyInt(v.TokenXAmount), copyInt(v.TokenYAmount)
		return &c
	case *DammFee:
		c := *v
		c.TokenXAmount, c.TokenYAmount = copyInt(v.TokenXAmount), copyInt(v.TokenYAmount)
		return &c
	case *DlmmFee:
		c := *v
		c.AmountX, c.AmountY = copyInt(v.AmountX), copyInt(v.AmountY)
		return &c
	}
	return e
}

func copyInt(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
