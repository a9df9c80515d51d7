package store

import (
	"context"
	"fmt"

	"meteora-indexer-sol/internal/model"
)

type flushable interface {
	Table() model.Table
	Dirty() []model.Entity
	Len() int
	MarkClean()
	Reset()
}

// UnitOfWork 持有每张表的仓库，批次结束时按外键顺序在一个事务内落库
type UnitOfWork struct {
	durable   DurableStore
	maxCached int // 0 表示不限制

	BasePools            *Repository[*model.BasePool]
	DammPools            *Repository[*model.DammPool]
	DlmmPools            *Repository[*model.DlmmPool]
	DammPositions        *Repository[*model.DammPosition]
	DlmmPositions        *Repository[*model.DlmmPosition]
	DammSwaps            *Repository[*model.DammSwap]
	DlmmSwaps            *Repository[*model.DlmmSwap]
	DammLiquidityChanges *Repository[*model.DammLiquidityChange]
	DlmmLiquidityChanges *Repository[*model.DlmmLiquidityChange]
	DammFees             *Repository[*model.DammFee]
	DlmmFees             *Repository[*model.DlmmFee]
	DammLocks            *Repository[*model.DammLock]
	DlmmRewards          *Repository[*model.DlmmReward]

	repos [model.TableCount]flushable
}

func NewUnitOfWork(durable DurableStore) *UnitOfWork {
	u := &UnitOfWork{
		durable:              durable,
		BasePools:            NewRepository[*model.BasePool](model.TableBasePool, durable),
		DammPools:            NewRepository[*model.DammPool](model.TableDammPool, durable),
		DlmmPools:            NewRepository[*model.DlmmPool](model.TableDlmmPool, durable),
		DammPositions:        NewRepository[*model.DammPosition](model.TableDammPosition, durable),
		DlmmPositions:        NewRepository[*model.DlmmPosition](model.TableDlmmPosition, durable),
		DammSwaps:            NewRepository[*model.DammSwap](model.TableDammSwap, durable),
		DlmmSwaps:            NewRepository[*model.DlmmSwap](model.TableDlmmSwap, durable),
		DammLiquidityChanges: NewRepository[*model.DammLiquidityChange](model.TableDammLiquidityChange, durable),
		DlmmLiquidityChanges: NewRepository[*model.DlmmLiquidityChange](model.TableDlmmLiquidityChange, durable),
		DammFees:             NewRepository[*model.DammFee](model.TableDammFee, durable),
		DlmmFees:             NewRepository[*model.DlmmFee](model.TableDlmmFee, durable),
		DammLocks:            NewRepository[*model.DammLock](model.TableDammLock, durable),
		DlmmRewards:          NewRepository[*model.DlmmReward](model.TableDlmmReward, durable),
	}
	for _, r := range []flushable{
		u.BasePools, u.DammPools, u.DlmmPools,
		u.DammPositions, u.DlmmPositions,
		u.DammSwaps, u.DlmmSwaps,
		u.DammLiquidityChanges, u.DlmmLiquidityChanges,
		u.DammFees, u.DlmmFees,
		u.DammLocks, u.DlmmRewards,
	} {
		u.repos[r.Table()] = r
	}
	return u
}

// Pending 按外键顺序收集待落库的实体
func (u *UnitOfWork) Pending() []TableBatch {
	var batches []TableBatch
	for _, r := range u.repos {
		rows := r.Dirty()
		if len(rows) == 0 {
			continue
		}
		batches = append(batches, TableBatch{Table: r.Table(), Rows: rows})
	}
	return batches
}

// Flush 在一个事务内落库全部 dirty 实体，返回已写入的批次。
// 成功后事件缓存被清空（只追加，不会再被读取），可变实体保留在缓存中。
// 失败时整个缓存被丢弃，下一批次从持久层重新加载。
func (u *UnitOfWork) Flush(ctx context.Context) ([]TableBatch, error) {
	batches := u.Pending()
	if len(batches) == 0 {
		return nil, nil
	}
	if u.durable != nil {
		if err := u.durable.SaveAll(ctx, batches); err != nil {
			u.Reset()
			return nil, fmt.Errorf("%w: flush: %w", ErrPersistence, err)
		}
	}

	for _, r := range u.repos {
		if r.Table().IsEvent() {
			r.Reset()
		} else {
			r.MarkClean()
		}
	}
	if u.maxCached > 0 && u.CachedCount() > u.maxCached {
		u.Reset()
	}
	return batches, nil
}

// SetMaxCached 设置 flush 后保留的缓存条目上限，超过则整体丢弃
func (u *UnitOfWork) SetMaxCached(n int) {
	u.maxCached = n
}

// Reset 丢弃全部缓存
func (u *UnitOfWork) Reset() {
	for _, r := range u.repos {
		r.Reset()
	}
}

// CachedCount 各表缓存条目数之和
func (u *UnitOfWork) CachedCount() int {
	n := 0
	for _, r := range u.repos {
		n += r.Len()
	}
	return n
}
