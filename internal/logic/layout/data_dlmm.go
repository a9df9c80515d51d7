package layout

import "meteora-indexer-sol/internal/types"

// DlmmInitializePairArgs 各建池指令归一化后的参数
type DlmmInitializePairArgs struct {
	ActiveID        int32
	BinStep         uint16 // initializeLbPair2 的 binStep 来自 preset parameter 账户，此处为 0
	ActivationPoint *uint64
}

type dlmmInitPairRaw struct {
	ActiveID int32
	BinStep  uint16
}

type dlmmInitPair2Raw struct {
	ActiveID int32
}

type dlmmCustomizableRaw struct {
	ActiveID        int32
	BinStep         uint16
	BaseFactor      uint16
	ActivationType  uint8
	HasAlphaVault   bool
	ActivationPoint *uint64
}

// DlmmSwapArgs 各 swap 指令归一化后的参数（数值仅作参考，记录以转账为准）
type DlmmSwapArgs struct {
	AmountIn          uint64 // exact-out 时为 maxInAmount
	AmountOut         uint64 // exact-in 时为 minAmountOut
	ExactOut          bool
	MaxPriceImpactBps *uint16
}

type dlmmSwapRaw struct {
	AmountIn     uint64
	MinAmountOut uint64
}

type dlmmSwapExactOutRaw struct {
	MaxInAmount uint64
	OutAmount   uint64
}

type dlmmSwapWithPriceImpactRaw struct {
	AmountIn          uint64
	ActiveID          *int32
	MaxPriceImpactBps uint16
}

// DlmmLiquidityArgs 添加/移除流动性指令归一化后的参数
type DlmmLiquidityArgs struct {
	AmountX     uint64
	AmountY     uint64
	HasBinRange bool
	MinBinID    int32
	MaxBinID    int32
	BpsToRemove uint16
}

func (a *DlmmLiquidityArgs) includeBin(binID int32) {
	if !a.HasBinRange {
		a.HasBinRange = true
		a.MinBinID, a.MaxBinID = binID, binID
		return
	}
	a.MinBinID = min(a.MinBinID, binID)
	a.MaxBinID = max(a.MaxBinID, binID)
}

type binLiquidityDistribution struct {
	BinID         int32
	DistributionX uint16
	DistributionY uint16
}

type binLiquidityDistributionByWeight struct {
	BinID  int32
	Weight uint16
}

type strategyParameters struct {
	MinBinID     int32
	MaxBinID     int32
	StrategyType uint8
	Parameters   [64]uint8
}

type dlmmLiquidityParameterRaw struct {
	AmountX          uint64
	AmountY          uint64
	BinLiquidityDist []binLiquidityDistribution
}

type dlmmLiquidityByWeightRaw struct {
	AmountX              uint64
	AmountY              uint64
	ActiveID             int32
	MaxActiveBinSlippage int32
	BinLiquidityDist     []binLiquidityDistributionByWeight
}

type dlmmLiquidityByStrategyRaw struct {
	AmountX              uint64
	AmountY              uint64
	ActiveID             int32
	MaxActiveBinSlippage int32
	StrategyParameters   strategyParameters
}

type dlmmLiquidityByStrategyOneSideRaw struct {
	Amount               uint64
	ActiveID             int32
	MaxActiveBinSlippage int32
	StrategyParameters   strategyParameters
}

type dlmmLiquidityOneSideRaw struct {
	Amount               uint64
	ActiveID             int32
	MaxActiveBinSlippage int32
	BinLiquidityDist     []binLiquidityDistributionByWeight
}

type compressedBinDeposit struct {
	BinID  int32
	Amount uint64
}

type dlmmLiquidityOneSidePreciseRaw struct {
	Bins                 []compressedBinDeposit
	DecompressMultiplier uint64
}

type binLiquidityReduction struct {
	BinID       int32
	BpsToRemove uint16
}

type dlmmRemoveLiquidityRaw struct {
	BinLiquidityRemoval []binLiquidityReduction
}

type dlmmRemoveLiquidityByRangeRaw struct {
	FromBinID   int32
	ToBinID     int32
	BpsToRemove uint16
}

type DlmmClaimRewardArgs struct {
	RewardIndex uint64
}

type DlmmInitializeRewardArgs struct {
	RewardIndex    uint64
	RewardDuration uint64
	Funder         types.Pubkey
}

type DlmmFundRewardArgs struct {
	RewardIndex  uint64
	Amount       uint64
	CarryForward bool
}

// DlmmSetPairStatusArgs status: 0 = Enabled, 1 = Disabled
type DlmmSetPairStatusArgs struct {
	Status uint8
}

type DlmmInitializePositionArgs struct {
	LowerBinID int32
	Width      int32
}

func decodeDlmmArgs(kind Kind, payload []byte) (any, error) {
	switch kind {
	case DlmmInitializeLbPair, DlmmInitializePermissionLbPair:
		var raw dlmmInitPairRaw
		if err := unmarshal(kind, payload, &raw); err != nil {
			return nil, err
		}
		return &DlmmInitializePairArgs{ActiveID: raw.ActiveID, BinStep: raw.BinStep}, nil
	case DlmmInitializeLbPair2:
		var raw dlmmInitPair2Raw
		if err := unmarshal(kind, payload, &raw); err != nil {
			return nil, err
		}
		return &DlmmInitializePairArgs{ActiveID: raw.ActiveID}, nil
	case DlmmInitializeCustomizablePermissionlessLbPair, DlmmInitializeCustomizablePermissionlessLbPair2:
		var raw dlmmCustomizableRaw
		if err := unmarshal(kind, payload, &raw); err != nil {
			return nil, err
		}
		return &DlmmInitializePairArgs{ActiveID: raw.ActiveID, BinStep: raw.BinStep, ActivationPoint: optionalU64(raw.ActivationPoint)}, nil

	case DlmmSwap, DlmmSwap2:
		var raw dlmmSwapRaw
		if err := unmarshal(kind, payload, &raw); err != nil {
			return nil, err
		}
		return &DlmmSwapArgs{AmountIn: raw.AmountIn, AmountOut: raw.MinAmountOut}, nil
	case DlmmSwapExactOut, DlmmSwapExactOut2:
		var raw dlmmSwapExactOutRaw
		if err := unmarshal(kind, payload, &raw); err != nil {
			return nil, err
		}
		return &DlmmSwapArgs{AmountIn: raw.MaxInAmount, AmountOut: raw.OutAmount, ExactOut: true}, nil
	case DlmmSwapWithPriceImpact, DlmmSwapWithPriceImpact2:
		var raw dlmmSwapWithPriceImpactRaw
		if err := unmarshal(kind, payload, &raw); err != nil {
			return nil, err
		}
		bps := raw.MaxPriceImpactBps
		return &DlmmSwapArgs{AmountIn: raw.AmountIn, MaxPriceImpactBps: &bps}, nil

	case DlmmAddLiquidity, DlmmAddLiquidity2:
		var raw dlmmLiquidityParameterRaw
		if err := unmarshal(kind, payload, &raw); err != nil {
			return nil, err
		}
		args := &DlmmLiquidityArgs{AmountX: raw.AmountX, AmountY: raw.AmountY}
		for _, d := range raw.BinLiquidityDist {
			args.includeBin(d.BinID)
		}
		return args, nil
	case DlmmAddLiquidityByWeight:
		var raw dlmmLiquidityByWeightRaw
		if err := unmarshal(kind, payload, &raw); err != nil {
			return nil, err
		}
		args := &DlmmLiquidityArgs{AmountX: raw.AmountX, AmountY: raw.AmountY}
		for _, d := range raw.BinLiquidityDist {
			args.includeBin(d.BinID)
		}
		return args, nil
	case DlmmAddLiquidityByStrategy, DlmmAddLiquidityByStrategy2:
		var raw dlmmLiquidityByStrategyRaw
		if err := unmarshal(kind, payload, &raw); err != nil {
			return nil, err
		}
		return &DlmmLiquidityArgs{
			AmountX:     raw.AmountX,
			AmountY:     raw.AmountY,
			HasBinRange: true,
			MinBinID:    raw.StrategyParameters.MinBinID,
			MaxBinID:    raw.StrategyParameters.MaxBinID,
		}, nil
	case DlmmAddLiquidityByStrategyOneSide:
		var raw dlmmLiquidityByStrategyOneSideRaw
		if err := unmarshal(kind, payload, &raw); err != nil {
			return nil, err
		}
		return &DlmmLiquidityArgs{
			AmountX:     raw.Amount,
			HasBinRange: true,
			MinBinID:    raw.StrategyParameters.MinBinID,
			MaxBinID:    raw.StrategyParameters.MaxBinID,
		}, nil
	case DlmmAddLiquidityOneSide:
		var raw dlmmLiquidityOneSideRaw
		if err := unmarshal(kind, payload, &raw); err != nil {
			return nil, err
		}
		args := &DlmmLiquidityArgs{AmountX: raw.Amount}
		for _, d := range raw.BinLiquidityDist {
			args.includeBin(d.BinID)
		}
		return args, nil
	case DlmmAddLiquidityOneSidePrecise, DlmmAddLiquidityOneSidePrecise2:
		var raw dlmmLiquidityOneSidePreciseRaw
		if err := unmarshal(kind, payload, &raw); err != nil {
			return nil, err
		}
		args := &DlmmLiquidityArgs{}
		for _, b := range raw.Bins {
			args.includeBin(b.BinID)
			args.AmountX += b.Amount * raw.DecompressMultiplier
		}
		return args, nil

	case DlmmRemoveLiquidity, DlmmRemoveLiquidity2:
		var raw dlmmRemoveLiquidityRaw
		if err := unmarshal(kind, payload, &raw); err != nil {
			return nil, err
		}
		args := &DlmmLiquidityArgs{}
		for _, r := range raw.BinLiquidityRemoval {
			args.includeBin(r.BinID)
			args.BpsToRemove = max(args.BpsToRemove, r.BpsToRemove)
		}
		return args, nil
	case DlmmRemoveLiquidityByRange, DlmmRemoveLiquidityByRange2:
		var raw dlmmRemoveLiquidityByRangeRaw
		if err := unmarshal(kind, payload, &raw); err != nil {
			return nil, err
		}
		return &DlmmLiquidityArgs{
			HasBinRange: true,
			MinBinID:    min(raw.FromBinID, raw.ToBinID),
			MaxBinID:    max(raw.FromBinID, raw.ToBinID),
			BpsToRemove: raw.BpsToRemove,
		}, nil
	case DlmmRemoveAllLiquidity:
		return &DlmmLiquidityArgs{BpsToRemove: 10000}, nil

	case DlmmClaimFee, DlmmClaimFee2, DlmmTogglePairStatus:
		return &NoArgs{}, nil
	case DlmmClaimReward, DlmmClaimReward2:
		return decodeInto(kind, payload, &DlmmClaimRewardArgs{})
	case DlmmInitializeReward:
		return decodeInto(kind, payload, &DlmmInitializeRewardArgs{})
	case DlmmFundReward:
		return decodeInto(kind, payload, &DlmmFundRewardArgs{})
	case DlmmSetPairStatus:
		return decodeInto(kind, payload, &DlmmSetPairStatusArgs{})
	case DlmmInitializePosition:
		return decodeInto(kind, payload, &DlmmInitializePositionArgs{})
	}
	return nil, ErrUnknownInstruction
}
