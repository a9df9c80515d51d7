package model

import (
	"math/big"
	"time"
)

// LiquidityChangeType 流动性变更类型
type LiquidityChangeType string

const (
	ChangeAdd        LiquidityChangeType = "add"
	ChangeRemove     LiquidityChangeType = "remove"
	ChangeBootstrap  LiquidityChangeType = "bootstrap"
	ChangeSingleSide LiquidityChangeType = "singleSide"
)

// FeeType DLMM 手续费方向：out 为流出 vault，in 为用户实际到账
type FeeType string

const (
	FeeIn  FeeType = "in"
	FeeOut FeeType = "out"
)

type DammSwap struct {
	ID           string // txId-swapIndex
	UserAddress  string
	TokenInMint  string
	TokenOutMint string
	AmountIn     *big.Int
	AmountOut    *big.Int
	Timestamp    time.Time
	PoolID       string
}

func (s *DammSwap) EntityID() string   { return s.ID }
func (s *DammSwap) EntityTable() Table { return TableDammSwap }

type DlmmSwap struct {
	ID              string // txId-swapIndex
	UserAddress     string
	TokenInMint     string
	TokenOutMint    string
	TokenInAddress  string
	TokenOutAddress string
	AmountIn        *big.Int
	AmountOut       *big.Int
	PriceImpactBps  *int32 // 仅 swapWithPriceImpact 系列
	Timestamp       time.Time
	PoolID          string
}

func (s *DlmmSwap) EntityID() string   { return s.ID }
func (s *DlmmSwap) EntityTable() Table { return TableDlmmSwap }

type DammLiquidityChange struct {
	ID            string
	Type          LiquidityChangeType
	TokenXAmount  *big.Int
	TokenYAmount  *big.Int
	LpTokenAmount *big.Int
	Timestamp     time.Time
	PoolID        string
	PositionID    string
}

func (c *DammLiquidityChange) EntityID() string   { return c.ID }
func (c *DammLiquidityChange) EntityTable() Table { return TableDammLiquidityChange }

type DlmmLiquidityChange struct {
	ID           string
	Type         LiquidityChangeType
	TokenXAmount *big.Int
	TokenYAmount *big.Int
	Timestamp    time.Time
	PoolID       string
	PositionID   string
}

func (c *DlmmLiquidityChange) EntityID() string   { return c.ID }
func (c *DlmmLiquidityChange) EntityTable() Table { return TableDlmmLiquidityChange }

type DammFee struct {
	ID           string // pool:txId
	Owner        string
	TokenXAmount *big.Int
	TokenYAmount *big.Int
	Timestamp    time.Time
	PoolID       string
}

func (f *DammFee) EntityID() string   { return f.ID }
func (f *DammFee) EntityTable() Table { return TableDammFee }

type DlmmFee struct {
	ID        string // txId-type-position
	PoolID    string
	Position  string
	User      string
	AmountX   *big.Int
	AmountY   *big.Int
	Type      FeeType
	Timestamp time.Time
}

func (f *DlmmFee) EntityID() string   { return f.ID }
func (f *DlmmFee) EntityTable() Table { return TableDlmmFee }
