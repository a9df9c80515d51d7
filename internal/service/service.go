package service

import (
	"fmt"
	"math/big"
	"strconv"
	"time"

	"meteora-indexer-sol/internal/store"
)

// Services 汇总全部实体服务，共享一个 UnitOfWork
type Services struct {
	Pools         *PoolService
	DammLiquidity *DammLiquidityService
	DammSwaps     *DammSwapService
	DammFees      *DammFeeService
	DammLocks     *DammLockService
	DlmmPositions *DlmmPositionService
	DlmmLiquidity *DlmmLiquidityService
	DlmmSwaps     *DlmmSwapService
	DlmmFees      *DlmmFeeService
	DlmmRewards   *DlmmRewardService
}

func New(uow *store.UnitOfWork) *Services {
	return &Services{
		Pools:         &PoolService{uow: uow},
		DammLiquidity: &DammLiquidityService{uow: uow},
		DammSwaps:     &DammSwapService{uow: uow},
		DammFees:      &DammFeeService{uow: uow},
		DammLocks:     &DammLockService{uow: uow},
		DlmmPositions: &DlmmPositionService{uow: uow},
		DlmmLiquidity: &DlmmLiquidityService{uow: uow},
		DlmmSwaps:     &DlmmSwapService{uow: uow},
		DlmmFees:      &DlmmFeeService{uow: uow},
		DlmmRewards:   &DlmmRewardService{uow: uow},
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidParams, fmt.Sprintf(format, args...))
}

func requireFields(kv ...string) error {
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] == "" {
			return invalid("%s is empty", kv[i])
		}
	}
	return nil
}

func requireTime(ts time.Time) error {
	if ts.IsZero() {
		return invalid("timestamp is zero")
	}
	return nil
}

// cloneOrZero 复制金额，nil 视为 0
func cloneOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}

func requireNonNegative(name string, v *big.Int) error {
	if v != nil && v.Sign() < 0 {
		return invalid("%s is negative: %s", name, v)
	}
	return nil
}

// PositionID DAMM 仓位 / 锁仓 id：pool-owner
func PositionID(pool, owner string) string {
	return pool + "-" + owner
}

// LiquidityChangeID pool-owner-timestamp-txId
func LiquidityChangeID(pool, owner string, ts time.Time, txID string) string {
	return pool + "-" + owner + "-" + strconv.FormatInt(ts.Unix(), 10) + "-" + txID
}

// SwapID txId-swapIndex
func SwapID(txID string, index int) string {
	return txID + "-" + strconv.Itoa(index)
}

// uniqueEventID 同一交易内出现重复 id 时追加序号；同一交易总在同一批次内处理，序号可重放
func uniqueEventID(base string, exists func(string) bool) string {
	if !exists(base) {
		return base
	}
	for n := 1; ; n++ {
		id := base + "-" + strconv.Itoa(n)
		if !exists(id) {
			return id
		}
	}
}
