package layout

import "encoding/binary"

// Anchor 指令 discriminator（sha256("global:<name>") 前 8 字节，按大端读为 uint64）
const (
	// DAMM: 建池
	dammInitializePermissionedPool                              uint64 = 0x4d55b29d3230d47e
	dammInitializePermissionlessPool                            uint64 = 0x76ad299dad486167
	dammInitializePermissionlessPoolWithFeeTier                 uint64 = 0x06874493e552a971
	dammInitializePermissionlessConstantProductPoolWithConfig   uint64 = 0x07a68aabceabecf4
	dammInitializePermissionlessConstantProductPoolWithConfig2  uint64 = 0x3095dc823d0b09b2
	dammInitializeCustomizablePermissionlessConstantProductPool uint64 = 0x9118acc2db7d03be

	// DAMM: 交易与流动性
	dammSwap                      uint64 = 0xf8c69e91e17587c8
	dammAddBalanceLiquidity       uint64 = 0xa8e3323ebdab54b0
	dammRemoveBalanceLiquidity    uint64 = 0x856d2cb338ee7221
	dammAddImbalanceLiquidity     uint64 = 0x4f237a54ad0f5dbf
	dammRemoveLiquiditySingleSide uint64 = 0x5454b142feb90afb
	dammBootstrapLiquidity        uint64 = 0x04e4d747e1fd77ce

	// DAMM: 管理、手续费、锁仓
	dammEnableOrDisablePool uint64 = 0x8006e48337a134a9
	dammOverrideCurveParam  uint64 = 0x6256cc335e4745bb
	dammClaimFee            uint64 = 0xa9204f8988e84689
	dammLock                uint64 = 0x1513d02bed3eff57
	dammCreateLockEscrow    uint64 = 0x3657a51345e3dae0
)

const (
	// DLMM: Swap 系列
	dlmmSwap                 uint64 = 0xf8c69e91e17587c8
	dlmmSwap2                uint64 = 0x414b3f4ceb5b5b88
	dlmmSwapExactOut         uint64 = 0xfa49652126cf4bb8
	dlmmSwapExactOut2        uint64 = 0x2bd7f784893cf351
	dlmmSwapWithPriceImpact  uint64 = 0x38ade6d0ade49ccd
	dlmmSwapWithPriceImpact2 uint64 = 0x4a62c0d6b1334b33

	// DLMM: Create Pool
	dlmmInitializeLbPair                            uint64 = 0x2d9aedd2dd0fa65c
	dlmmInitializeLbPair2                           uint64 = 0x493b2478ed536cc6
	dlmmInitializeCustomizablePermissionlessLbPair  uint64 = 0x2e2729876fb7c840
	dlmmInitializeCustomizablePermissionlessLbPair2 uint64 = 0xf349817e3313f16b
	dlmmInitializePermissionLbPair                  uint64 = 0x6c66d555fb033515

	// DLMM: 添加流动性
	dlmmAddLiquidity                  uint64 = 0xb59d59438fb63448
	dlmmAddLiquidity2                 uint64 = 0xe4a24e1c46db7473
	dlmmAddLiquidityByWeight          uint64 = 0x1c8cee63e7a21595
	dlmmAddLiquidityByStrategy        uint64 = 0x0703967f94283dc8
	dlmmAddLiquidityByStrategy2       uint64 = 0x03dd95da6f8d76d5
	dlmmAddLiquidityByStrategyOneSide uint64 = 0x2905eeaf64e106cd
	dlmmAddLiquidityOneSide           uint64 = 0x5e9b6797465fdca5
	dlmmAddLiquidityOneSidePrecise    uint64 = 0xa1c26754ab47fa9a
	dlmmAddLiquidityOneSidePrecise2   uint64 = 0x2133a3c975627de7

	// DLMM: 移除流动性
	dlmmRemoveLiquidity         uint64 = 0x5055d14818ceb16c
	dlmmRemoveLiquidity2        uint64 = 0xe6d7527ff165e392
	dlmmRemoveLiquidityByRange  uint64 = 0x1a526698f04a691a
	dlmmRemoveLiquidityByRange2 uint64 = 0xcc02c391359191cd
	dlmmRemoveAllLiquidity      uint64 = 0x0a333d2370691855

	// DLMM: 手续费、奖励、仓位、管理
	dlmmClaimFee           uint64 = 0xa9204f8988e84689
	dlmmClaimFee2          uint64 = 0x70bf65ab1c907fbb
	dlmmClaimReward        uint64 = 0x955fb5f25e5a9ea2
	dlmmClaimReward2       uint64 = 0xbe037f77b2579db7
	dlmmInitializeReward   uint64 = 0x5f87c0c4f281e644
	dlmmFundReward         uint64 = 0xbc32f9a55d97263f
	dlmmTogglePairStatus   uint64 = 0x3d7334172e0d1f90
	dlmmSetPairStatus      uint64 = 0x43f8e7899a95d9ae
	dlmmInitializePosition uint64 = 0xdbc0ea47bebf6650
)

// Resolve 按程序分发到对应的 discriminator 表
func Resolve(program Program, data []byte) Kind {
	switch program {
	case ProgramDAMM:
		return ResolveDAMM(data)
	case ProgramDLMM:
		return ResolveDLMM(data)
	default:
		return KindUnhandled
	}
}

// ResolveDAMM 根据前 8 字节识别 DAMM 指令，未知或长度不足返回 KindUnhandled
func ResolveDAMM(data []byte) Kind {
	if len(data) < 8 {
		return KindUnhandled
	}
	switch binary.BigEndian.Uint64(data[:8]) {
	case dammInitializePermissionedPool:
		return DammInitializePermissionedPool
	case dammInitializePermissionlessPool:
		return DammInitializePermissionlessPool
	case dammInitializePermissionlessPoolWithFeeTier:
		return DammInitializePermissionlessPoolWithFeeTier
	case dammInitializePermissionlessConstantProductPoolWithConfig:
		return DammInitializePermissionlessConstantProductPoolWithConfig
	case dammInitializePermissionlessConstantProductPoolWithConfig2:
		return DammInitializePermissionlessConstantProductPoolWithConfig2
	case dammInitializeCustomizablePermissionlessConstantProductPool:
		return DammInitializeCustomizablePermissionlessConstantProductPool
	case dammSwap:
		return DammSwap
	case dammAddBalanceLiquidity:
		return DammAddBalanceLiquidity
	case dammRemoveBalanceLiquidity:
		return DammRemoveBalanceLiquidity
	case dammAddImbalanceLiquidity:
		return DammAddImbalanceLiquidity
	case dammRemoveLiquiditySingleSide:
		return DammRemoveLiquiditySingleSide
	case dammBootstrapLiquidity:
		return DammBootstrapLiquidity
	case dammEnableOrDisablePool:
		return DammEnableOrDisablePool
	case dammOverrideCurveParam:
		return DammOverrideCurveParam
	case dammClaimFee:
		return DammClaimFee
	case dammLock:
		return DammLock
	case dammCreateLockEscrow:
		return DammCreateLockEscrow
	default:
		return KindUnhandled
	}
}

// ResolveDLMM 根据前 8 字节识别 DLMM 指令，未知或长度不足返回 KindUnhandled
func ResolveDLMM(data []byte) Kind {
	if len(data) < 8 {
		return KindUnhandled
	}
	switch binary.BigEndian.Uint64(data[:8]) {
	case dlmmSwap:
		return DlmmSwap
	case dlmmSwap2:
		return DlmmSwap2
	case dlmmSwapExactOut:
		return DlmmSwapExactOut
	case dlmmSwapExactOut2:
		return DlmmSwapExactOut2
	case dlmmSwapWithPriceImpact:
		return DlmmSwapWithPriceImpact
	case dlmmSwapWithPriceImpact2:
		return DlmmSwapWithPriceImpact2

	case dlmmInitializeLbPair:
		return DlmmInitializeLbPair
	case dlmmInitializeLbPair2:
		return DlmmInitializeLbPair2
	case dlmmInitializeCustomizablePermissionlessLbPair:
		return DlmmInitializeCustomizablePermissionlessLbPair
	case dlmmInitializeCustomizablePermissionlessLbPair2:
		return DlmmInitializeCustomizablePermissionlessLbPair2
	case dlmmInitializePermissionLbPair:
		return DlmmInitializePermissionLbPair

	case dlmmAddLiquidity:
		return DlmmAddLiquidity
	case dlmmAddLiquidity2:
		return DlmmAddLiquidity2
	case dlmmAddLiquidityByWeight:
		return DlmmAddLiquidityByWeight
	case dlmmAddLiquidityByStrategy:
		return DlmmAddLiquidityByStrategy
	case dlmmAddLiquidityByStrategy2:
		return DlmmAddLiquidityByStrategy2
	case dlmmAddLiquidityByStrategyOneSide:
		return DlmmAddLiquidityByStrategyOneSide
	case dlmmAddLiquidityOneSide:
		return DlmmAddLiquidityOneSide
	case dlmmAddLiquidityOneSidePrecise:
		return DlmmAddLiquidityOneSidePrecise
	case dlmmAddLiquidityOneSidePrecise2:
		return DlmmAddLiquidityOneSidePrecise2

	case dlmmRemoveLiquidity:
		return DlmmRemoveLiquidity
	case dlmmRemoveLiquidity2:
		return DlmmRemoveLiquidity2
	case dlmmRemoveLiquidityByRange:
		return DlmmRemoveLiquidityByRange
	case dlmmRemoveLiquidityByRange2:
		return DlmmRemoveLiquidityByRange2
	case dlmmRemoveAllLiquidity:
		return DlmmRemoveAllLiquidity

	case dlmmClaimFee:
		return DlmmClaimFee
	case dlmmClaimFee2:
		return DlmmClaimFee2
	case dlmmClaimReward:
		return DlmmClaimReward
	case dlmmClaimReward2:
		return DlmmClaimReward2
	case dlmmInitializeReward:
		return DlmmInitializeReward
	case dlmmFundReward:
		return DlmmFundReward
	case dlmmTogglePairStatus:
		return DlmmTogglePairStatus
	case dlmmSetPairStatus:
		return DlmmSetPairStatus
	case dlmmInitializePosition:
		return DlmmInitializePosition

	default:
		return KindUnhandled
	}
}
