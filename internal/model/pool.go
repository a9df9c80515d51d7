package model

import (
	"math/big"
	"time"
)

// BasePool 两类池子共享的基础信息，储备量只由它持有
type BasePool struct {
	ID             string // 池子地址
	TokenX         string
	TokenY         string
	TokenXVault    string
	TokenYVault    string
	ReserveX       *big.Int
	ReserveY       *big.Int
	TotalLiquidity *big.Int
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Status         bool // true = 启用
}

func (p *BasePool) EntityID() string   { return p.ID }
func (p *BasePool) EntityTable() Table { return TableBasePool }

// DammPool DAMM v1 池子的扩展信息
type DammPool struct {
	ID           string
	LpMint       string
	AVault       string
	BVault       string
	AVaultLpMint string
	BVaultLpMint string
	CurveType    string // constantProduct | stable
	BasePoolID   string
}

func (p *DammPool) EntityID() string   { return p.ID }
func (p *DammPool) EntityTable() Table { return TableDammPool }

// DlmmPool DLMM lb pair 的扩展信息
type DlmmPool struct {
	ID                       string
	BinStep                  int32
	ActiveID                 int32
	ActivationPoint          *big.Int // 可空
	PreActivationDuration    *big.Int // 可空
	PreActivationSwapAddress string   // 空串写入 NULL
	BasePoolID               string
}

func (p *DlmmPool) EntityID() string   { return p.ID }
func (p *DlmmPool) EntityTable() Table { return TableDlmmPool }
