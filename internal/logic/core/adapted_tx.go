package core

import (
	"time"

	"meteora-indexer-sol/internal/types"

	"github.com/mr-tron/base58"
)

// TxContext 表示交易所属区块的上下文信息
type TxContext struct {
	BlockTime   int64      // 区块时间戳（Unix 秒）
	Slot        uint64     // 当前 Slot
	ParentSlot  uint64     // 父 Slot
	BlockHeight uint64     // 区块高度（辅助比对）
	BlockHash   types.Hash // 区块哈希
}

// Timestamp 返回区块时间，实体的 createdAt / updatedAt / timestamp 均以此为准
func (c *TxContext) Timestamp() time.Time {
	return time.Unix(c.BlockTime, 0).UTC()
}

// AdaptedInstruction 表示一条主指令或 inner 指令，来源于 message.instructions 或 innerInstructions。
// 所有指令在预处理阶段已展平，并补充了位置信息（IxIndex、InnerIndex、StackHeight）。
type AdaptedInstruction struct {
	IxIndex     uint16         // 主指令索引（从 0 开始）
	InnerIndex  uint16         // 主指令本身为 0，CPI 调用从 1 开始
	StackHeight uint32         // 调用栈深度，主指令为 1；旧数据缺失时为 0
	ProgramID   types.Pubkey   // 指令对应的程序 ID
	Accounts    []types.Pubkey // 指令涉及的账户列表，保持原始顺序
	Data        []byte         // 指令原始数据
}

// TokenBalance 表示某个 SPL Token 账户在交易执行前后的余额快照。
type TokenBalance struct {
	Decimals       uint8
	HasPreOwner    bool
	InnerIndex     uint16
	PreBalance     uint64 // 交易执行前余额（最小单位）
	PostBalance    uint64 // 交易执行后余额
	TokenAccount   types.Pubkey
	Token          types.Pubkey // post mint；仅出现在 pre 中时为 pre mint
	PreToken       types.Pubkey // pre mint；账户在本交易中新建时为零值
	PreOwner       types.Pubkey
	PostOwner      types.Pubkey
	TokenProgramID types.Pubkey
}

// TokenDecimals 表示某 mint 的精度信息
type TokenDecimals struct {
	Token    types.Pubkey
	Decimals uint8
}

// AdaptedTx 表示已解析的链上交易结构，是事件重建流程的核心输入。
type AdaptedTx struct {
	TxCtx     *TxContext     // 所属区块上下文
	TxIndex   uint32         // 当前交易在区块中的序号
	Signature []byte         // 交易签名（64 字节原始数据）
	Signers   []types.Pubkey // 交易签名者列表

	// Instructions 表示交易中的所有指令（包括主指令和 inner 指令），已按执行顺序展平。
	Instructions []*AdaptedInstruction

	LogMessages []string

	// Balances 记录交易中涉及的 SPL Token 账户余额快照（token account → 快照）
	Balances map[types.Pubkey]*TokenBalance

	// 单笔交易涉及的 mint 很少，切片顺序查找即可
	TokenDecimals []TokenDecimals
}

// TxID 返回 base58 编码的交易签名
func (tx *AdaptedTx) TxID() string {
	return base58.Encode(tx.Signature)
}

func (tx *AdaptedTx) GetDecimalsByMint(mint types.Pubkey) (uint8, bool) {
	for _, v := range tx.TokenDecimals {
		if v.Token == mint {
			return v.Decimals, true
		}
	}
	return 0, false
}

// MintOf 根据余额快照查找 token account 的 mint
func (tx *AdaptedTx) MintOf(account types.Pubkey) (types.Pubkey, bool) {
	if b, ok := tx.Balances[account]; ok {
		if !b.Token.IsZero() {
			return b.Token, true
		}
		return b.PreToken, !b.PreToken.IsZero()
	}
	return types.Pubkey{}, false
}

// OwnerOf 根据余额快照查找 token account 的 owner（优先 post）
func (tx *AdaptedTx) OwnerOf(account types.Pubkey) (types.Pubkey, bool) {
	if b, ok := tx.Balances[account]; ok {
		if !b.PostOwner.IsZero() {
			return b.PostOwner, true
		}
		return b.PreOwner, b.HasPreOwner
	}
	return types.Pubkey{}, false
}
