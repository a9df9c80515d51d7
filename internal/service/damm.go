package service

import (
	"context"
	"math/big"
	"time"

	"meteora-indexer-sol/internal/model"
	"meteora-indexer-sol/internal/store"
)

// DammLiquidityService 管理 DAMM LP 持仓与流动性变更
type DammLiquidityService struct {
	uow *store.UnitOfWork
}

// GetOrCreatePosition 按 pool-owner 获取或创建持仓
func (s *DammLiquidityService) GetOrCreatePosition(ctx context.Context, poolID, owner string, ts time.Time) (*model.DammPosition, bool, error) {
	if err := requireFields("poolId", poolID, "owner", owner); err != nil {
		return nil, false, err
	}
	if err := requireTime(ts); err != nil {
		return nil, false, err
	}
	id := PositionID(poolID, owner)
	if pos, found, err := s.uow.DammPositions.Find(ctx, id); err != nil || found {
		return pos, false, err
	}

	pos := &model.DammPosition{
		ID:            id,
		Owner:         owner,
		LpTokenAmount: new(big.Int),
		CreatedAt:     ts,
		UpdatedAt:     ts,
		PoolID:        poolID,
	}
	s.uow.DammPositions.Save(pos)
	return pos, true, nil
}

func (s *DammLiquidityService) UpdatePosition(pos *model.DammPosition, ts time.Time) error {
	if pos == nil || pos.ID == "" {
		return invalid("damm position is empty")
	}
	if err := requireTime(ts); err != nil {
		return err
	}
	pos.UpdatedAt = ts
	return s.uow.DammPositions.Update(pos)
}

type RecordDammChangeParams struct {
	PoolID        string
	Owner         string
	TxID          string
	Type          model.LiquidityChangeType
	TokenXAmount  *big.Int
	TokenYAmount  *big.Int
	LpTokenAmount *big.Int
	Timestamp     time.Time
}

// RecordChange 追加一条流动性变更，id = pool-owner-timestamp-txId
func (s *DammLiquidityService) RecordChange(p RecordDammChangeParams) (*model.DammLiquidityChange, error) {
	if err := requireFields("poolId", p.PoolID, "owner", p.Owner, "txId", p.TxID, "type", string(p.Type)); err != nil {
		return nil, err
	}
	if err := requireTime(p.Timestamp); err != nil {
		return nil, err
	}
	for name, v := range map[string]*big.Int{"tokenX": p.TokenXAmount, "tokenY": p.TokenYAmount, "lp": p.LpTokenAmount} {
		if err := requireNonNegative(name, v); err != nil {
			return nil, err
		}
	}

	id := uniqueEventID(LiquidityChangeID(p.PoolID, p.Owner, p.Timestamp, p.TxID), func(id string) bool {
		_, ok := s.uow.DammLiquidityChanges.Cached(id)
		return ok
	})
	change := &model.DammLiquidityChange{
		ID:            id,
		Type:          p.Type,
		TokenXAmount:  cloneOrZero(p.TokenXAmount),
		TokenYAmount:  cloneOrZero(p.TokenYAmount),
		LpTokenAmount: cloneOrZero(p.LpTokenAmount),
		Timestamp:     p.Timestamp,
		PoolID:        p.PoolID,
		PositionID:    PositionID(p.PoolID, p.Owner),
	}
	s.uow.DammLiquidityChanges.Save(change)
	return change, nil
}

// DammSwapService 记录 DAMM swap
type DammSwapService struct {
	uow *store.UnitOfWork
}

type RecordDammSwapParams struct {
	PoolID       string
	TxID         string
	SwapIndex    int
	User         string
	TokenInMint  string
	TokenOutMint string
	AmountIn     *big.Int
	AmountOut    *big.Int
	Timestamp    time.Time
}

func (s *DammSwapService) Record(p RecordDammSwapParams) (*model.DammSwap, error) {
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

	swap := &model.DammSwap{
		ID:           SwapID(p.TxID, p.SwapIndex),
		UserAddress:  p.User,
		TokenInMint:  p.TokenInMint,
		TokenOutMint: p.TokenOutMint,
		AmountIn:     new(big.Int).Set(p.AmountIn),
		AmountOut:    new(big.Int).Set(p.AmountOut),
		Timestamp:    p.Timestamp,
		PoolID:       p.PoolID,
	}
	s.uow.DammSwaps.Save(swap)
	return swap, nil
}

// DammFeeService 记录 DAMM 锁仓手续费领取
type DammFeeService struct {
	uow *store.UnitOfWork
}

type RecordDammFeeParams struct {
	PoolID       string
	TxID         string
	Owner        string
	TokenXAmount *big.Int
	TokenYAmount *big.Int
	Timestamp    time.Time
}

// Record id = pool:txId
func (s *DammFeeService) Record(p RecordDammFeeParams) (*model.DammFee, error) {
	if err := requireFields("poolId", p.PoolID, "txId", p.TxID, "owner", p.Owner); err != nil {
		return nil, err
	}
	if err := requireTime(p.Timestamp); err != nil {
		return nil, err
	}

	id := uniqueEventID(p.PoolID+":"+p.TxID, func(id string) bool {
		_, ok := s.uow.DammFees.Cached(id)
		return ok
	})
	fee := &model.DammFee{
		ID:           id,
		Owner:        p.Owner,
		TokenXAmount: cloneOrZero(p.TokenXAmount),
		TokenYAmount: cloneOrZero(p.TokenYAmount),
		Timestamp:    p.Timestamp,
		PoolID:       p.PoolID,
	}
	s.uow.DammFees.Save(fee)
	return fee, nil
}

// DammLockService 管理 LP 锁仓
type DammLockService struct {
	uow *store.UnitOfWork
}

// GetOrCreate 按 pool-owner 获取或创建锁仓记录
func (s *DammLockService) GetOrCreate(ctx context.Context, poolID, owner string, ts time.Time) (*model.DammLock, bool, error) {
	if err := requireFields("poolId", poolID, "owner", owner); err != nil {
		return nil, false, err
	}
	if err := requireTime(ts); err != nil {
		return nil, false, err
	}
	id := PositionID(poolID, owner)
	if lock, found, err := s.uow.DammLocks.Find(ctx, id); err != nil || found {
		return lock, false, err
	}

	lock := &model.DammLock{
		ID:        id,
		Owner:     owner,
		Amount:    new(big.Int),
		CreatedAt: ts,
		UpdatedAt: ts,
		PoolID:    poolID,
	}
	s.uow.DammLocks.Save(lock)
	return lock, true, nil
}

func (s *DammLockService) Update(lock *model.DammLock, ts time.Time) error {
	if lock == nil || lock.ID == "" {
		return invalid("damm lock is empty")
	}
	if err := requireTime(ts); err != nil {
		return err
	}
	lock.UpdatedAt = ts
	return s.uow.DammLocks.Update(lock)
}
