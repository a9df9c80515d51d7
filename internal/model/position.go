package model

import (
	"math/big"
	"time"
)

// DammPosition 用户在 DAMM 池子中的 LP 持仓，id = pool-owner
type DammPosition struct {
	ID            string
	Owner         string
	LpTokenAmount *big.Int
	CreatedAt     time.Time
	UpdatedAt     time.Time
	PoolID        string
}

func (p *DammPosition) EntityID() string   { return p.ID }
func (p *DammPosition) EntityTable() Table { return TableDammPosition }

// DlmmPosition DLMM 仓位，id = positionAddress-owner
type DlmmPosition struct {
	ID               string
	Owner            string
	Operator         string
	LowerBinID       int32
	UpperBinID       int32
	Liquidity        *big.Int
	TokenXAmount     *big.Int
	TokenYAmount     *big.Int
	FeeOwner         string
	LockReleasePoint *big.Int
	CreatedAt        time.Time
	UpdatedAt        time.Time
	PoolID           string
}

func (p *DlmmPosition) EntityID() string   { return p.ID }
func (p *DlmmPosition) EntityTable() Table { return TableDlmmPosition }

// DammLock 锁仓累计量，id = pool-owner
type DammLock struct {
	ID        string
	Owner     string
	Amount    *big.Int
	CreatedAt time.Time
	UpdatedAt time.Time
	PoolID    string
}

func (l *DammLock) EntityID() string   { return l.ID }
func (l *DammLock) EntityTable() Table { return TableDammLock }

// DlmmReward 奖励槽位，id = pool-rewardIndex
type DlmmReward struct {
	ID             string
	RewardIndex    int64
	RewardDuration *big.Int
	Funder         string
	Amount         *big.Int
	LastUpdateTime time.Time
	CreatedAt      time.Time
	PoolID         string
}

func (r *DlmmReward) EntityID() string   { return r.ID }
func (r *DlmmReward) EntityTable() Table { return TableDlmmReward }
