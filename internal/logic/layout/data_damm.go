package layout

import (
	"fmt"

	"github.com/near/borsh-go"
)

// CurveKind DAMM 曲线类型枚举 tag
type CurveKind uint8

const (
	CurveConstantProduct CurveKind = 0
	CurveStable          CurveKind = 1
)

// stableCurveSize = amp(8) + tokenMultiplier(8+8+1) + depeg(8+8+1) + lastAmpUpdatedTimestamp(8)
const stableCurveSize = 50

// StableCurve 稳定币曲线参数
type StableCurve struct {
	Amp                     uint64
	TokenAMultiplier        uint64
	TokenBMultiplier        uint64
	PrecisionFactor         uint8
	BaseVirtualPrice        uint64
	BaseCachePrice          uint64
	DepegType               uint8
	LastAmpUpdatedTimestamp uint64
}

// CurveType 是带数据的 Rust 枚举，borsh-go 无法直接解码，手动按 tag 解析
type CurveType struct {
	Kind   CurveKind
	Stable *StableCurve
}

// Name 写入 damm_pool.curve_type 的取值
func (c CurveType) Name() string {
	if c.Kind == CurveStable {
		return "stable"
	}
	return "constantProduct"
}

// parseCurveType 返回曲线与消耗的字节数
func parseCurveType(kind Kind, b []byte) (CurveType, int, error) {
	if len(b) < 1 {
		return CurveType{}, 0, &DecodeError{Kind: kind, Reason: "curve type tag missing"}
	}
	switch CurveKind(b[0]) {
	case CurveConstantProduct:
		return CurveType{Kind: CurveConstantProduct}, 1, nil
	case CurveStable:
		if len(b) < 1+stableCurveSize {
			return CurveType{}, 0, &DecodeError{Kind: kind, Reason: "stable curve payload truncated"}
		}
		var stable StableCurve
		if err := unmarshal(kind, b[1:1+stableCurveSize], &stable); err != nil {
			return CurveType{}, 0, err
		}
		return CurveType{Kind: CurveStable, Stable: &stable}, 1 + stableCurveSize, nil
	default:
		return CurveType{}, 0, &DecodeError{Kind: kind, Reason: fmt.Sprintf("unknown curve type tag %d", b[0])}
	}
}

// DammInitializeArgs 六种建池指令归一化后的参数
type DammInitializeArgs struct {
	Curve           CurveType
	TradeFeeBps     uint64 // 仅 fee tier 版本
	TokenAAmount    uint64
	TokenBAmount    uint64
	ActivationPoint *uint64 // 仅 config2 / customizable 版本
}

type dammAmountsRaw struct {
	TokenAAmount uint64
	TokenBAmount uint64
}

type dammFeeTierRaw struct {
	TradeFeeBps  uint64
	TokenAAmount uint64
	TokenBAmount uint64
}

type dammConfig2Raw struct {
	TokenAAmount    uint64
	TokenBAmount    uint64
	ActivationPoint *uint64
}

type dammCustomizableRaw struct {
	TokenAAmount      uint64
	TokenBAmount      uint64
	TradeFeeNumerator uint32
	ActivationPoint   *uint64
	HasAlphaVault     bool
	ActivationType    uint8
}

type DammSwapArgs struct {
	InAmount         uint64
	MinimumOutAmount uint64
}

type DammAddBalanceLiquidityArgs struct {
	PoolTokenAmount     uint64
	MaximumTokenAAmount uint64
	MaximumTokenBAmount uint64
}

type DammRemoveBalanceLiquidityArgs struct {
	PoolTokenAmount     uint64
	MinimumATokenOut    uint64
	MinimumBTokenOut    uint64
}

type DammAddImbalanceLiquidityArgs struct {
	MinimumPoolTokenAmount uint64
	TokenAAmount           uint64
	TokenBAmount           uint64
}

type DammRemoveLiquiditySingleSideArgs struct {
	PoolTokenAmount  uint64
	MinimumOutAmount uint64
}

type DammBootstrapLiquidityArgs struct {
	TokenAAmount uint64
	TokenBAmount uint64
}

type DammEnableOrDisablePoolArgs struct {
	Enable bool
}

type DammOverrideCurveParamArgs struct {
	Curve CurveType
}

// DammClaimFeeArgs / DammLockArgs 共用：max_amount
type DammMaxAmountArgs struct {
	MaxAmount uint64
}

// NoArgs 无参数指令
type NoArgs struct{}

func decodeDammArgs(kind Kind, payload []byte) (any, error) {
	switch kind {
	case DammInitializePermissionedPool:
		curve, _, err := parseCurveType(kind, payload)
		if err != nil {
			return nil, err
		}
		return &DammInitializeArgs{Curve: curve}, nil

	case DammInitializePermissionlessPool:
		curve, n, err := parseCurveType(kind, payload)
		if err != nil {
			return nil, err
		}
		var raw dammAmountsRaw
		if err := unmarshal(kind, payload[n:], &raw); err != nil {
			return nil, err
		}
		return &DammInitializeArgs{Curve: curve, TokenAAmount: raw.TokenAAmount, TokenBAmount: raw.TokenBAmount}, nil

	case DammInitializePermissionlessPoolWithFeeTier:
		curve, n, err := parseCurveType(kind, payload)
		if err != nil {
			return nil, err
		}
		var raw dammFeeTierRaw
		if err := unmarshal(kind, payload[n:], &raw); err != nil {
			return nil, err
		}
		return &DammInitializeArgs{
			Curve:        curve,
			TradeFeeBps:  raw.TradeFeeBps,
			TokenAAmount: raw.TokenAAmount,
			TokenBAmount: raw.TokenBAmount,
		}, nil

	case DammInitializePermissionlessConstantProductPoolWithConfig:
		var raw dammAmountsRaw
		if err := unmarshal(kind, payload, &raw); err != nil {
			return nil, err
		}
		return &DammInitializeArgs{TokenAAmount: raw.TokenAAmount, TokenBAmount: raw.TokenBAmount}, nil

	case DammInitializePermissionlessConstantProductPoolWithConfig2:
		var raw dammConfig2Raw
		if err := unmarshal(kind, payload, &raw); err != nil {
			return nil, err
		}
		return &DammInitializeArgs{
			TokenAAmount:    raw.TokenAAmount,
			TokenBAmount:    raw.TokenBAmount,
			ActivationPoint: optionalU64(raw.ActivationPoint),
		}, nil

	case DammInitializeCustomizablePermissionlessConstantProductPool:
		var raw dammCustomizableRaw
		if err := unmarshal(kind, payload, &raw); err != nil {
			return nil, err
		}
		return &DammInitializeArgs{
			TokenAAmount:    raw.TokenAAmount,
			TokenBAmount:    raw.TokenBAmount,
			ActivationPoint: optionalU64(raw.ActivationPoint),
		}, nil

	case DammSwap:
		return decodeInto(kind, payload, &DammSwapArgs{})
	case DammAddBalanceLiquidity:
		return decodeInto(kind, payload, &DammAddBalanceLiquidityArgs{})
	case DammRemoveBalanceLiquidity:
		return decodeInto(kind, payload, &DammRemoveBalanceLiquidityArgs{})
	case DammAddImbalanceLiquidity:
		return decodeInto(kind, payload, &DammAddImbalanceLiquidityArgs{})
	case DammRemoveLiquiditySingleSide:
		return decodeInto(kind, payload, &DammRemoveLiquiditySingleSideArgs{})
	case DammBootstrapLiquidity:
		return decodeInto(kind, payload, &DammBootstrapLiquidityArgs{})
	case DammEnableOrDisablePool:
		return decodeInto(kind, payload, &DammEnableOrDisablePoolArgs{})
	case DammOverrideCurveParam:
		curve, _, err := parseCurveType(kind, payload)
		if err != nil {
			return nil, err
		}
		return &DammOverrideCurveParamArgs{Curve: curve}, nil
	case DammClaimFee, DammLock:
		return decodeInto(kind, payload, &DammMaxAmountArgs{})
	case DammCreateLockEscrow:
		return &NoArgs{}, nil
	}
	return nil, ErrUnknownInstruction
}

func unmarshal(kind Kind, payload []byte, v any) error {
	if err := borsh.Deserialize(v, payload); err != nil {
		return &DecodeError{Kind: kind, Reason: err.Error()}
	}
	return nil
}

func decodeInto[T any](kind Kind, payload []byte, v *T) (any, error) {
	if err := unmarshal(kind, payload, v); err != nil {
		return nil, err
	}
	return v, nil
}

// optionalU64 borsh-go 把 Option::None 解码为指向零值的指针，这里还原为 nil
func optionalU64(v *uint64) *uint64 {
	if v == nil || *v == 0 {
		return nil
	}
	return v
}
