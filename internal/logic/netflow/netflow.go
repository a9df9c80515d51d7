package netflow

import (
	"errors"
	"math/big"

	"meteora-indexer-sol/internal/logic/transfer"
	"meteora-indexer-sol/internal/types"
)

// ErrInvalidFlowPattern 资金流向与指令语义不符，调用方静默跳过
var ErrInvalidFlowPattern = errors.New("invalid flow pattern")

// Flow 是一条指令对池子两个 vault 的资金影响（以池子视角：流入为正）
type Flow struct {
	DepositX  *big.Int
	DepositY  *big.Int
	WithdrawX *big.Int
	WithdrawY *big.Int
	NetX      *big.Int // DepositX - WithdrawX
	NetY      *big.Int
}

// HasEvidence 是否观察到任何进出 vault 的转账
func (f Flow) HasEvidence() bool {
	return f.DepositX.Sign() != 0 || f.DepositY.Sign() != 0 ||
		f.WithdrawX.Sign() != 0 || f.WithdrawY.Sign() != 0
}

// Compute 统计转入/转出两个 vault 的金额。vault 自转不计入。
func Compute(vaultX, vaultY types.Pubkey, transfers []transfer.Transfer) Flow {
	f := Flow{
		DepositX:  new(big.Int),
		DepositY:  new(big.Int),
		WithdrawX: new(big.Int),
		WithdrawY: new(big.Int),
	}
	amount := new(big.Int)
	for _, t := range transfers {
		if t.Source == t.Destination {
			continue
		}
		amount.SetUint64(t.Amount)
		switch t.Destination {
		case vaultX:
			f.DepositX.Add(f.DepositX, amount)
		case vaultY:
			f.DepositY.Add(f.DepositY, amount)
		}
		switch t.Source {
		case vaultX:
			f.WithdrawX.Add(f.WithdrawX, amount)
		case vaultY:
			f.WithdrawY.Add(f.WithdrawY, amount)
		}
	}
	f.NetX = new(big.Int).Sub(f.DepositX, f.WithdrawX)
	f.NetY = new(big.Int).Sub(f.DepositY, f.WithdrawY)
	return f
}

// Effect 指令对池子的预期资金效果
type Effect uint8

const (
	EffectSwap Effect = iota + 1
	EffectBalancedAdd
	EffectBalancedRemove
	EffectImbalancedAdd
	EffectSingleSidedRemove
	EffectRemove
	EffectBootstrap
	EffectClaimFee
)

var effectNames = map[Effect]string{
	EffectSwap:              "swap",
	EffectBalancedAdd:       "balancedAdd",
	EffectBalancedRemove:    "balancedRemove",
	EffectImbalancedAdd:     "imbalancedAdd",
	EffectSingleSidedRemove: "singleSidedRemove",
	EffectRemove:            "remove",
	EffectBootstrap:         "bootstrap",
	EffectClaimFee:          "claimFee",
}

func (e Effect) String() string {
	if name, ok := effectNames[e]; ok {
		return name
	}
	return "unknown"
}

// Reserves 池子当前储备
type Reserves struct {
	X *big.Int
	Y *big.Int
}

// Outcome 分类结果：记录用的正数金额与用于更新储备的净流量
type Outcome struct {
	Effect  Effect
	AmountX *big.Int
	AmountY *big.Int

	// 仅 swap：XToY 表示 X 为输入侧
	XToY      bool
	AmountIn  *big.Int
	AmountOut *big.Int

	NetX *big.Int
	NetY *big.Int
}

// Apply 按净流量更新储备：reserve' = reserve + net
func (o Outcome) Apply(r Reserves) Reserves {
	return Reserves{
		X: new(big.Int).Add(orZero(r.X), o.NetX),
		Y: new(big.Int).Add(orZero(r.Y), o.NetY),
	}
}

// Classify 校验净流量是否符合 effect 并计算记录金额
func Classify(effect Effect, flow Flow, reserves Reserves) (Outcome, error) {
	x, y := flow.NetX, flow.NetY
	out := Outcome{Effect: effect, NetX: new(big.Int).Set(x), NetY: new(big.Int).Set(y)}

	switch effect {
	case EffectSwap:
		switch {
		case x.Sign() > 0 && y.Sign() < 0:
			out.XToY = true
			out.AmountIn = new(big.Int).Set(x)
			out.AmountOut = new(big.Int).Neg(y)
			out.AmountX, out.AmountY = out.AmountIn, out.AmountOut
		case y.Sign() > 0 && x.Sign() < 0:
			out.AmountIn = new(big.Int).Set(y)
			out.AmountOut = new(big.Int).Neg(x)
			out.AmountX, out.AmountY = out.AmountOut, out.AmountIn
		default:
			return Outcome{}, ErrInvalidFlowPattern
		}

	case EffectBalancedAdd:
		if x.Sign() <= 0 || y.Sign() <= 0 {
			return Outcome{}, ErrInvalidFlowPattern
		}
		out.AmountX, out.AmountY = new(big.Int).Set(x), new(big.Int).Set(y)

	case EffectBalancedRemove:
		if x.Sign() >= 0 || y.Sign() >= 0 {
			return Outcome{}, ErrInvalidFlowPattern
		}
		out.AmountX, out.AmountY = new(big.Int).Neg(x), new(big.Int).Neg(y)

	case EffectImbalancedAdd:
		if x.Sign() <= 0 && y.Sign() <= 0 {
			return Outcome{}, ErrInvalidFlowPattern
		}
		out.AmountX, out.AmountY = clampPositive(x), clampPositive(y)

	case EffectSingleSidedRemove:
		out.AmountX, out.AmountY = negatedNegative(x), negatedNegative(y)

	case EffectRemove:
		if x.Sign() >= 0 && y.Sign() >= 0 {
			return Outcome{}, ErrInvalidFlowPattern
		}
		out.AmountX, out.AmountY = negatedNegative(x), negatedNegative(y)

	case EffectBootstrap:
		if orZero(reserves.X).Sign() != 0 || orZero(reserves.Y).Sign() != 0 {
			return Outcome{}, ErrInvalidFlowPattern
		}
		out.AmountX, out.AmountY = clampPositive(x), clampPositive(y)

	case EffectClaimFee:
		// 领取手续费必须有金库流出
		if flow.WithdrawX.Sign() == 0 && flow.WithdrawY.Sign() == 0 {
			return Outcome{}, ErrInvalidFlowPattern
		}
		out.AmountX, out.AmountY = new(big.Int).Set(flow.WithdrawX), new(big.Int).Set(flow.WithdrawY)

	default:
		return Outcome{}, ErrInvalidFlowPattern
	}
	return out, nil
}

func clampPositive(v *big.Int) *big.Int {
	if v.Sign() > 0 {
		return new(big.Int).Set(v)
	}
	return new(big.Int)
}

func negatedNegative(v *big.Int) *big.Int {
	if v.Sign() < 0 {
		return new(big.Int).Neg(v)
	}
	return new(big.Int)
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
