package service

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"meteora-indexer-sol/internal/model"
	"meteora-indexer-sol/internal/store"
)

// PoolService 管理 BasePool 及两类池子扩展
type PoolService struct {
	uow *store.UnitOfWork
}

type CreateBasePoolParams struct {
	ID          string
	TokenX      string
	TokenY      string
	TokenXVault string
	TokenYVault string
	ReserveX    *big.Int
	ReserveY    *big.Int
	Timestamp   time.Time
}

func (p CreateBasePoolParams) validate() error {
	if err := requireFields("id", p.ID, "tokenX", p.TokenX, "tokenY", p.TokenY,
		"tokenXVault", p.TokenXVault, "tokenYVault", p.TokenYVault); err != nil {
		return err
	}
	if err := requireNonNegative("reserveX", p.ReserveX); err != nil {
		return err
	}
	if err := requireNonNegative("reserveY", p.ReserveY); err != nil {
		return err
	}
	return requireTime(p.Timestamp)
}

// GetOrCreateBasePool 首次调用生效，之后返回已有实体（created=false）
func (s *PoolService) GetOrCreateBasePool(ctx context.Context, p CreateBasePoolParams) (*model.BasePool, bool, error) {
	if err := p.validate(); err != nil {
		return nil, false, err
	}
	if pool, found, err := s.uow.BasePools.Find(ctx, p.ID); err != nil || found {
		return pool, false, err
	}

	pool := &model.BasePool{
		ID:             p.ID,
		TokenX:         p.TokenX,
		TokenY:         p.TokenY,
		TokenXVault:    p.TokenXVault,
		TokenYVault:    p.TokenYVault,
		ReserveX:       cloneOrZero(p.ReserveX),
		ReserveY:       cloneOrZero(p.ReserveY),
		TotalLiquidity: new(big.Int),
		CreatedAt:      p.Timestamp,
		UpdatedAt:      p.Timestamp,
		Status:         true,
	}
	s.uow.BasePools.Save(pool)
	return pool, true, nil
}

// GetBasePool 不存在返回 ErrPoolNotFound
func (s *PoolService) GetBasePool(ctx context.Context, id string) (*model.BasePool, error) {
	pool, found, err := s.uow.BasePools.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: base_pool %s", ErrPoolNotFound, id)
	}
	return pool, nil
}

// UpdateBasePool 写回可变字段并刷新 updatedAt
func (s *PoolService) UpdateBasePool(pool *model.BasePool, ts time.Time) error {
	if pool == nil || pool.ID == "" {
		return invalid("base pool is empty")
	}
	if err := requireTime(ts); err != nil {
		return err
	}
	pool.UpdatedAt = ts
	return s.uow.BasePools.Update(pool)
}

type CreateDammPoolParams struct {
	ID           string
	LpMint       string
	AVault       string
	BVault       string
	AVaultLpMint string
	BVaultLpMint string
	CurveType    string
}

func (s *PoolService) GetOrCreateDammPool(ctx context.Context, p CreateDammPoolParams) (*model.DammPool, bool, error) {
	if err := requireFields("id", p.ID, "aVault", p.AVault, "bVault", p.BVault,
		"aVaultLpMint", p.AVaultLpMint, "bVaultLpMint", p.BVaultLpMint); err != nil {
		return nil, false, err
	}
	pool, found, err := s.uow.DammPools.Find(ctx, p.ID)
	if err != nil {
		return nil, false, err
	}
	if found {
		// swap 指令不带 lpMint，由后续带 lpMint 的指令补齐
		if pool.LpMint == "" && p.LpMint != "" {
			pool.LpMint = p.LpMint
			if err := s.uow.DammPools.Update(pool); err != nil {
				return nil, false, err
			}
		}
		return pool, false, nil
	}
	if _, err := s.GetBasePool(ctx, p.ID); err != nil {
		return nil, false, err
	}

	curve := p.CurveType
	if curve == "" {
		curve = "constantProduct"
	}
	pool = &model.DammPool{
		ID:           p.ID,
		LpMint:       p.LpMint,
		AVault:       p.AVault,
		BVault:       p.BVault,
		AVaultLpMint: p.AVaultLpMint,
		BVaultLpMint: p.BVaultLpMint,
		CurveType:    curve,
		BasePoolID:   p.ID,
	}
	s.uow.DammPools.Save(pool)
	return pool, true, nil
}

func (s *PoolService) GetDammPool(ctx context.Context, id string) (*model.DammPool, error) {
	pool, found, err := s.uow.DammPools.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: damm_pool %s", ErrPoolNotFound, id)
	}
	return pool, nil
}

func (s *PoolService) UpdateDammPool(pool *model.DammPool) error {
	if pool == nil || pool.ID == "" {
		return invalid("damm pool is empty")
	}
	return s.uow.DammPools.Update(pool)
}

type CreateDlmmPoolParams struct {
	ID              string
	BinStep         int32
	ActiveID        int32
	ActivationPoint *big.Int
}

func (s *PoolService) GetOrCreateDlmmPool(ctx context.Context, p CreateDlmmPoolParams) (*model.DlmmPool, bool, error) {
	if err := requireFields("id", p.ID); err != nil {
		return nil, false, err
	}
	if p.BinStep < 0 {
		return nil, false, invalid("binStep is negative: %d", p.BinStep)
	}
	if pool, found, err := s.uow.DlmmPools.Find(ctx, p.ID); err != nil || found {
		return pool, false, err
	}
	if _, err := s.GetBasePool(ctx, p.ID); err != nil {
		return nil, false, err
	}

	pool := &model.DlmmPool{
		ID:         p.ID,
		BinStep:    p.BinStep,
		ActiveID:   p.ActiveID,
		BasePoolID: p.ID,
	}
	if p.ActivationPoint != nil {
		pool.ActivationPoint = new(big.Int).Set(p.ActivationPoint)
	}
	s.uow.DlmmPools.Save(pool)
	return pool, true, nil
}

func (s *PoolService) GetDlmmPool(ctx context.Context, id string) (*model.DlmmPool, error) {
	pool, found, err := s.uow.DlmmPools.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: dlmm_pool %s", ErrPoolNotFound, id)
	}
	return pool, nil
}

func (s *PoolService) UpdateDlmmPool(pool *model.DlmmPool) error {
	if pool == nil || pool.ID == "" {
		return invalid("dlmm pool is empty")
	}
	return s.uow.DlmmPools.Update(pool)
}
