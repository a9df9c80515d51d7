package model

// Table 标识实体对应的表。枚举顺序即外键依赖顺序，flush 按此顺序写入。
type Table uint8

const (
	TableBasePool Table = iota
	TableDammPool
	TableDlmmPool
	TableDammPosition
	TableDlmmPosition
	TableDammSwap
	TableDlmmSwap
	TableDammLiquidityChange
	TableDlmmLiquidityChange
	TableDammFee
	TableDlmmFee
	TableDammLock
	TableDlmmReward

	TableCount
)

var tableNames = [TableCount]string{
	TableBasePool:            "base_pool",
	TableDammPool:            "damm_pool",
	TableDlmmPool:            "dlmm_pool",
	TableDammPosition:        "damm_liquidity_position",
	TableDlmmPosition:        "dlmm_position",
	TableDammSwap:            "damm_swap",
	TableDlmmSwap:            "dlmm_swap",
	TableDammLiquidityChange: "damm_liquidity_change",
	TableDlmmLiquidityChange: "dlmm_liquidity_change",
	TableDammFee:             "damm_fee",
	TableDlmmFee:             "dlmm_fee",
	TableDammLock:            "damm_lock",
	TableDlmmReward:          "dlmm_reward",
}

// String 返回 SQL 表名
func (t Table) String() string {
	if t >= TableCount {
		return "unknown"
	}
	return tableNames[t]
}

// IsEvent swap / 流动性变更 / 手续费为只追加的事件，写入后不可修改
func (t Table) IsEvent() bool {
	switch t {
	case TableDammSwap, TableDlmmSwap,
		TableDammLiquidityChange, TableDlmmLiquidityChange,
		TableDammFee, TableDlmmFee:
		return true
	}
	return false
}

// Entity 所有可持久化实体
type Entity interface {
	EntityID() string
	EntityTable() Table
}
