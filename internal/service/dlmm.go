package service

import (
	"context"
	"math/big"
	"strconv"
	"time"

	"meteora-indexer-sol/internal/model"
	"meteora-indexer-sol/internal/store"
)

// DlmmPositionService 管理 DLMM 仓位
type DlmmPositionService struct {
	uow *store.UnitOfWork
}

// DlmmPositionID positionAddress-owner
func DlmmPositionID(position, owner string) string {
	return position + "-" + owner
}

type CreateDlmmPositionParams struct {
	Position   string // 仓位账户地址
	Owner      string
	PoolID     string
	LowerBinID int32
	UpperBinID int32
	Timestamp  time.Time
}

func (s *DlmmPositionService) GetOrCreate(ctx context.Context, p CreateDlmmPositionParams) (*model.DlmmPosition, bool, error) {
	if err := requireFields("position", p.Position, "owner", p.Owner, "poolId", p.PoolID); err != nil {
		return nil, false, err
	}
	if err := requireTime(p.Timestamp); err != nil {
		return nil, false, err
	}
	if p.UpperBinID < p.LowerBinID {
		return nil, false, invalid("bin range [%d, %d] is inverted", p.LowerBinID, p.UpperBinID)
	}
	id := DlmmPositionID(p.Position, p.Owner)
	if pos, found, err := s.uow.DlmmPositions.Find(ctx, id); err != nil || found {
		return pos, false, err
	}

	pos := &model.DlmmPosition{
		ID:               id,
		Owner:            p.Owner,
		Operator:         p.Owner,
		LowerBinID:       p.LowerBinID,
		UpperBinID:       p.UpperBinID,
		Liquidity:        new(big.Int),
		TokenXAmount:     new(big.Int),
		TokenYAmount:     new(big.Int),
		FeeOwner:         p.Owner,
		LockReleasePoint: new(big.Int),
		CreatedAt:        p.Timestamp,
		UpdatedAt:        p.Timestamp,
		PoolID:           p.PoolID,
	}
	s.uow.DlmmPositions.Save(pos)
	return pos, true, nil
}

func (s *DlmmPositionService) Update(pos *model.DlmmPosition, ts time.Time) error {
	if pos == nil || pos.ID == "" {
		return invalid("dlmm position is empty")
	}
	if err := requireTime(ts); err != nil {
		return err
	}
	pos.UpdatedAt = ts
	return s.uow.DlmmPositions.Update(pos)
}

// DlmmLiquidityService 记录 DLMM 流动性变更
type DlmmLiquidityService struct {
	uow *store.UnitOfWork
}

type RecordDlmmChangeParams struct {
	PoolID       string
	Owner        string
	PositionID   string
	TxID         string
	Type         model.LiquidityChangeType
	TokenXAmount *big.Int
	TokenYAmount *big.Int
	Timestamp    time.Time
}

func (s *DlmmLiquidityService) RecordChange(p RecordDlmmChangeParams) (*model.DlmmLiquidityChange, error) {
	if err := requireFields("poolId", p.PoolID, "owner", p.Owner, "positionId", p.PositionID,
		"txId", p.TxID, "type", string(p.Type)); err != nil {
		return nil, err
	}
	if err := requireTime(p.Timestamp); err != nil {
		return nil, err
	}
	if err := requireNonNegative("tokenX", p.TokenXAmount); err != nil {
		return nil, err
	}
	if err := requireNonNegative("tokenY", p.TokenYAmount); err != nil {
		return nil, err
	}

	id := uniqueEventID(LiquidityChangeID(p.PoolID, p.Owner, p.Timestamp, p.TxID), func(id string) bool {
		_, ok := s.uow.DlmmLiquidityChanges.Cached(id)
		return ok
	})
	change := &model.DlmmLiquidityChange{
		ID:           id,
		Type:         p.Type,
		TokenXAmount: cloneOrZero(p.TokenXAmount),
		TokenYAmount: cloneOrZero(p.TokenYAmount),
		Timestamp:    p.Timestamp,
		PoolID:       p.PoolID,
		PositionID:   p.PositionID,
	}
	s.uow.DlmmLiquidityChanges.Save(change)
	return change, nil
}

// DlmmSwapService 记录 DLMM swap
type DlmmSwapService struct {
	uow *store.UnitOfWork
}

type RecordDlmmSwapParams struct {
	PoolID          string
	TxID            string
	SwapIndex       int
	User            string
	TokenInMint     string
	TokenOutMint    string
	TokenInAddress  string // 用户侧输入 token account
	TokenOutAddress string
	AmountIn        *big.Int
	AmountOut       *big.Int
	PriceImpactBps  *int32
	Timestamp       time.Time
}

func (s *DlmmSwapService) Record(p RecordDlmmSwapParams) (*model.DlmmSwap, error) {
	if err := requireFields("poolId", p.PoolID, "txId", p.TxID, "user", p.User,
		"tokenInMint", p.TokenInMint, "tokenOutMint", p.TokenOutMint); err != nil {
		return nil, err
	}
	if err := requireTime(p.Timestamp); err != nil {
		return nil, err
	}
	if p.AmountIn == nil || p.AmountIn.Sign() <= 0 || p.AmountOut == nil || p.AmountOut.Sign() <= 0 {
		return nil, invalid("swap amounts must be positive")
	}

	swap := &model.DlmmSwap{
		ID:              SwapID(p.TxID, p.SwapIndex),
		UserAddress:     p.User,
		TokenInMint:     p.TokenInMint,
		TokenOutMint:    p.TokenOutMint,
		TokenInAddress:  p.TokenInAddress,
		TokenOutAddress: p.TokenOutAddress,
		AmountIn:        new(big.Int).Set(p.AmountIn),
		AmountOut:       new(big.Int).Set(p.AmountOut),
		PriceImpactBps:  p.PriceImpactBps,
		Timestamp:       p.Timestamp,
		PoolID:          p.PoolID,
	}
	s.uow.DlmmSwaps.Save(swap)
	return swap, nil
}

// DlmmFeeService 记录 DLMM 手续费领取
type DlmmFeeService struct {
	uow *store.UnitOfWork
}

type RecordDlmmFeeParams struct {
	PoolID    string
	TxID      string
	Position  string
	User      string
	Type      model.FeeType
	AmountX   *big.Int
	AmountY   *big.Int
	Timestamp time.Time
}

// Record id = txId-type-position
func (s *DlmmFeeService) Record(p RecordDlmmFeeParams) (*model.DlmmFee, error) {
	if err := requireFields("poolId", p.PoolID, "txId", p.TxID, "position", p.Position,
		"user", p.User, "type", string(p.Type)); err != nil {
		return nil, err
	}
	if p.Type != model.FeeIn && p.Type != model.FeeOut {
		return nil, invalid("unknown fee type %q", p.Type)
	}
	if err := requireTime(p.Timestamp); err != nil {
		return nil, err
	}

	fee := &model.DlmmFee{
		ID:        p.TxID + "-" + string(p.Type) + "-" + p.Position,
		PoolID:    p.PoolID,
		Position:  p.Position,
		User:      p.User,
		AmountX:   cloneOrZero(p.AmountX),
		AmountY:   cloneOrZero(p.AmountY),
		Type:      p.Type,
		Timestamp: p.Timestamp,
	}
	s.uow.DlmmFees.Save(fee)
	return fee, nil
}

// DlmmRewardService 管理 DLMM 奖励槽位
type DlmmRewardService struct {
	uow *store.UnitOfWork
}

// RewardID pool-rewardIndex
func RewardID(poolID string, index uint64) string {
	return poolID + "-" + strconv.FormatUint(index, 10)
}

type CreateDlmmRewardParams struct {
	PoolID         string
	RewardIndex    uint64
	RewardDuration *big.Int
	Funder         string
	Timestamp      time.Time
}

func (s *DlmmRewardService) GetOrCreate(ctx context.Context, p CreateDlmmRewardParams) (*model.DlmmReward, bool, error) {
	if err := requireFields("poolId", p.PoolID, "funder", p.Funder); err != nil {
		return nil, false, err
	}
	if err := requireTime(p.Timestamp); err != nil {
		return nil, false, err
	}
	id := RewardID(p.PoolID, p.RewardIndex)
	if r, found, err := s.uow.DlmmRewards.Find(ctx, id); err != nil || found {
		return r, false, err
	}

	r := &model.DlmmReward{
		ID:             id,
		RewardIndex:    int64(p.RewardIndex),
		RewardDuration: cloneOrZero(p.RewardDuration),
		Funder:         p.Funder,
		Amount:         new(big.Int),
		LastUpdateTime: p.Timestamp,
		CreatedAt:      p.Timestamp,
		PoolID:         p.PoolID,
	}
	s.uow.DlmmRewards.Save(r)
	return r, true, nil
}

// Get 不存在时 found=false
func (s *DlmmRewardService) Get(ctx context.Context, poolID string, index uint64) (*model.DlmmReward, bool, error) {
	return s.uow.DlmmRewards.Find(ctx, RewardID(poolID, index))
}

func (s *DlmmRewardService) Update(r *model.DlmmReward, ts time.Time) error {
	if r == nil || r.ID == "" {
		return invalid("dlmm reward is empty")
	}
	if err := requireTime(ts); err != nil {
		return err
	}
	r.LastUpdateTime = ts
	return s.uow.DlmmRewards.Update(r)
}
