package common

import (
	"math/big"

	"meteora-indexer-sol/internal/logic/netflow"
	"meteora-indexer-sol/internal/model"
)

// Policy 每类指令的资金流策略
type Policy struct {
	Effect     netflow.Effect
	ChangeType model.LiquidityChangeType
	LpSign     int // +1 增加 LP，-1 减少 LP，0 不变
}

// ApplyFlow 按策略分类资金流，通过后更新池子储备
func ApplyFlow(pool *model.BasePool, policy Policy, flow netflow.Flow) (netflow.Outcome, error) {
	reserves := netflow.Reserves{X: pool.ReserveX, Y: pool.ReserveY}
	outcome, err := netflow.Classify(policy.Effect, flow, reserves)
	if err != nil {
		return netflow.Outcome{}, err
	}
	next := outcome.Apply(reserves)
	pool.ReserveX, pool.ReserveY = next.X, next.Y
	return outcome, nil
}

// SignedLp 按策略符号返回 LP 变动量
func SignedLp(policy Policy, amount uint64) *big.Int {
	v := new(big.Int).SetUint64(amount)
	if policy.LpSign < 0 {
		v.Neg(v)
	} else if policy.LpSign == 0 {
		v.SetInt64(0)
	}
	return v
}

// AddClamped dst += delta，结果小于 0 时置 0
func AddClamped(dst *big.Int, delta *big.Int) *big.Int {
	if dst == nil {
		dst = new(big.Int)
	}
	dst.Add(dst, delta)
	if dst.Sign() < 0 {
		dst.SetInt64(0)
	}
	return dst
}

// NonNegative 返回 v 的副本，负数置 0
func NonNegative(v *big.Int) *big.Int {
	if v == nil || v.Sign() < 0 {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}

// U64 uint64 → *big.Int
func U64(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}
