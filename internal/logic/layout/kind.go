package layout

import "fmt"

// Program 标识指令所属的 Meteora 程序
type Program uint8

const (
	ProgramUnknown Program = iota
	ProgramDAMM
	ProgramDLMM
)

// Kind 是两个程序全部已支持指令的封闭枚举，KindUnhandled 表示未识别（静默跳过）
type Kind uint16

const (
	KindUnhandled Kind = iota

	// DAMM v1（常数乘积池）
	DammInitializePermissionedPool
	DammInitializePermissionlessPool
	DammInitializePermissionlessPoolWithFeeTier
	DammInitializePermissionlessConstantProductPoolWithConfig
	DammInitializePermissionlessConstantProductPoolWithConfig2
	DammInitializeCustomizablePermissionlessConstantProductPool
	DammSwap
	DammAddBalanceLiquidity
	DammRemoveBalanceLiquidity
	DammAddImbalanceLiquidity
	DammRemoveLiquiditySingleSide
	DammBootstrapLiquidity
	DammEnableOrDisablePool
	DammOverrideCurveParam
	DammClaimFee
	DammLock
	DammCreateLockEscrow

	// DLMM（bin 流动性池）
	DlmmInitializeLbPair
	DlmmInitializeLbPair2
	DlmmInitializePermissionLbPair
	DlmmInitializeCustomizablePermissionlessLbPair
	DlmmInitializeCustomizablePermissionlessLbPair2
	DlmmSwap
	DlmmSwap2
	DlmmSwapExactOut
	DlmmSwapExactOut2
	DlmmSwapWithPriceImpact
	DlmmSwapWithPriceImpact2
	DlmmAddLiquidity
	DlmmAddLiquidity2
	DlmmAddLiquidityByWeight
	DlmmAddLiquidityByStrategy
	DlmmAddLiquidityByStrategy2
	DlmmAddLiquidityByStrategyOneSide
	DlmmAddLiquidityOneSide
	DlmmAddLiquidityOneSidePrecise
	DlmmAddLiquidityOneSidePrecise2
	DlmmRemoveLiquidity
	DlmmRemoveLiquidity2
	DlmmRemoveLiquidityByRange
	DlmmRemoveLiquidityByRange2
	DlmmRemoveAllLiquidity
	DlmmClaimFee
	DlmmClaimFee2
	DlmmClaimReward
	DlmmClaimReward2
	DlmmInitializeReward
	DlmmFundReward
	DlmmTogglePairStatus
	DlmmSetPairStatus
	DlmmInitializePosition

	kindCount
)

// kindNames 同时作为日志标签与账户表（tables/*.yaml）的 key
var kindNames = [kindCount]string{
	KindUnhandled: "unhandled",

	DammInitializePermissionedPool:                              "damm.initializePermissionedPool",
	DammInitializePermissionlessPool:                            "damm.initializePermissionlessPool",
	DammInitializePermissionlessPoolWithFeeTier:                 "damm.initializePermissionlessPoolWithFeeTier",
	DammInitializePermissionlessConstantProductPoolWithConfig:   "damm.initializePermissionlessConstantProductPoolWithConfig",
	DammInitializePermissionlessConstantProductPoolWithConfig2:  "damm.initializePermissionlessConstantProductPoolWithConfig2",
	DammInitializeCustomizablePermissionlessConstantProductPool: "damm.initializeCustomizablePermissionlessConstantProductPool",
	DammSwap:                      "damm.swap",
	DammAddBalanceLiquidity:       "damm.addBalanceLiquidity",
	DammRemoveBalanceLiquidity:    "damm.removeBalanceLiquidity",
	DammAddImbalanceLiquidity:     "damm.addImbalanceLiquidity",
	DammRemoveLiquiditySingleSide: "damm.removeLiquiditySingleSide",
	DammBootstrapLiquidity:        "damm.bootstrapLiquidity",
	DammEnableOrDisablePool:       "damm.enableOrDisablePool",
	DammOverrideCurveParam:        "damm.overrideCurveParam",
	DammClaimFee:                  "damm.claimFee",
	DammLock:                      "damm.lock",
	DammCreateLockEscrow:          "damm.createLockEscrow",

	DlmmInitializeLbPair:                            "dlmm.initializeLbPair",
	DlmmInitializeLbPair2:                           "dlmm.initializeLbPair2",
	DlmmInitializePermissionLbPair:                  "dlmm.initializePermissionLbPair",
	DlmmInitializeCustomizablePermissionlessLbPair:  "dlmm.initializeCustomizablePermissionlessLbPair",
	DlmmInitializeCustomizablePermissionlessLbPair2: "dlmm.initializeCustomizablePermissionlessLbPair2",
	DlmmSwap:                          "dlmm.swap",
	DlmmSwap2:                         "dlmm.swap2",
	DlmmSwapExactOut:                  "dlmm.swapExactOut",
	DlmmSwapExactOut2:                 "dlmm.swapExactOut2",
	DlmmSwapWithPriceImpact:           "dlmm.swapWithPriceImpact",
	DlmmSwapWithPriceImpact2:          "dlmm.swapWithPriceImpact2",
	DlmmAddLiquidity:                  "dlmm.addLiquidity",
	DlmmAddLiquidity2:                 "dlmm.addLiquidity2",
	DlmmAddLiquidityByWeight:          "dlmm.addLiquidityByWeight",
	DlmmAddLiquidityByStrategy:        "dlmm.addLiquidityByStrategy",
	DlmmAddLiquidityByStrategy2:       "dlmm.addLiquidityByStrategy2",
	DlmmAddLiquidityByStrategyOneSide: "dlmm.addLiquidityByStrategyOneSide",
	DlmmAddLiquidityOneSide:           "dlmm.addLiquidityOneSide",
	DlmmAddLiquidityOneSidePrecise:    "dlmm.addLiquidityOneSidePrecise",
	DlmmAddLiquidityOneSidePrecise2:   "dlmm.addLiquidityOneSidePrecise2",
	DlmmRemoveLiquidity:               "dlmm.removeLiquidity",
	DlmmRemoveLiquidity2:              "dlmm.removeLiquidity2",
	DlmmRemoveLiquidityByRange:        "dlmm.removeLiquidityByRange",
	DlmmRemoveLiquidityByRange2:       "dlmm.removeLiquidityByRange2",
	DlmmRemoveAllLiquidity:            "dlmm.removeAllLiquidity",
	DlmmClaimFee:                      "dlmm.claimFee",
	DlmmClaimFee2:                     "dlmm.claimFee2",
	DlmmClaimReward:                   "dlmm.claimReward",
	DlmmClaimReward2:                  "dlmm.claimReward2",
	DlmmInitializeReward:              "dlmm.initializeReward",
	DlmmFundReward:                    "dlmm.fundReward",
	DlmmTogglePairStatus:              "dlmm.togglePairStatus",
	DlmmSetPairStatus:                 "dlmm.setPairStatus",
	DlmmInitializePosition:            "dlmm.initializePosition",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint16(k))
}

// Program 返回指令所属程序
func (k Kind) Program() Program {
	switch {
	case k >= DammInitializePermissionedPool && k <= DammCreateLockEscrow:
		return ProgramDAMM
	case k >= DlmmInitializeLbPair && k < kindCount:
		return ProgramDLMM
	default:
		return ProgramUnknown
	}
}
