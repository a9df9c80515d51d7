package model

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableOrderAndNames(t *testing.T) {
	assert.Equal(t, "base_pool", TableBasePool.String())
	assert.Equal(t, "dlmm_reward", TableDlmmReward.String())
	assert.Equal(t, "unknown", TableCount.String())

	// 父表必须排在子表之前
	assert.Less(t, int(TableBasePool), int(TableDammPool))
	assert.Less(t, int(TableDlmmPool), int(TableDlmmPosition))
	assert.Less(t, int(TableDammPosition), int(TableDammLiquidityChange))
	assert.Less(t, int(TableDlmmPosition), int(TableDlmmLiquidityChange))
}

func TestIsEvent(t *testing.T) {
	events := map[Table]bool{
		TableDammSwap: true, TableDlmmSwap: true,
		TableDammLiquidityChange: true, TableDlmmLiquidityChange: true,
		TableDammFee: true, TableDlmmFee: true,
	}
	for tb := Table(0); tb < TableCount; tb++ {
		assert.Equal(t, events[tb], tb.IsEvent(), tb.String())
	}
}

func TestEntityTables(t *testing.T) {
	entities := []Entity{
		&BasePool{ID: "a"}, &DammPool{ID: "a"}, &DlmmPool{ID: "a"},
		&DammPosition{ID: "a"}, &DlmmPosition{ID: "a"},
		&DammSwap{ID: "a"}, &DlmmSwap{ID: "a"},
		&DammLiquidityChange{ID: "a"}, &DlmmLiquidityChange{ID: "a"},
		&DammFee{ID: "a"}, &DlmmFee{ID: "a"},
		&DammLock{ID: "a"}, &DlmmReward{ID: "a"},
	}
	for i, e := range entities {
		assert.Equal(t, Table(i), e.EntityTable())
		assert.Equal(t, "a", e.EntityID())
	}
}

func TestClone(t *testing.T) {
	bps := int32(12)
	swap := &DlmmSwap{ID: "tx-0", AmountIn: big.NewInt(10), AmountOut: big.NewInt(3), PriceImpactBps: &bps}
	c := Clone(swap).(*DlmmSwap)
	assert.Equal(t, swap, c)
	assert.NotSame(t, swap, c)

	c.AmountIn.SetInt64(99)
	*c.PriceImpactBps = 7
	assert.Equal(t, int64(10), swap.AmountIn.Int64())
	assert.Equal(t, int32(12), *swap.PriceImpactBps)

	pool := &DlmmPool{ID: "lb"}
	assert.Nil(t, Clone(pool).(*DlmmPool).ActivationPoint)
}
