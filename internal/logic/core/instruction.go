package core

import "time"

// Instruction 是交给协议处理器的一条待处理指令：外层指令 + 其 inner 指令 + 所属交易。
type Instruction struct {
	*AdaptedInstruction
	Inners []*AdaptedInstruction
	Tx     *AdaptedTx
}

// Timestamp 返回所属区块时间
func (ix *Instruction) Timestamp() time.Time {
	return ix.Tx.TxCtx.Timestamp()
}

// TxID 返回所属交易签名
func (ix *Instruction) TxID() string {
	return ix.Tx.TxID()
}

// BuildInstruction 以 tx.Instructions[current] 为外层指令，收集它发起的 inner 指令。
//
// 规则：
//   - 只看同一主指令（IxIndex 相同）下、位于 current 之后的指令；
//   - 有 StackHeight 时，遇到深度 <= 外层深度的指令即结束（兄弟 CPI 不属于当前指令）；
//   - 无 StackHeight（旧数据）时，主指令收集同 IxIndex 下全部 inner，CPI 指令不收集。
func BuildInstruction(tx *AdaptedTx, current int) *Instruction {
	outer := tx.Instructions[current]
	ix := &Instruction{AdaptedInstruction: outer, Tx: tx}

	for i := current + 1; i < len(tx.Instructions); i++ {
		next := tx.Instructions[i]
		if next.IxIndex != outer.IxIndex {
			break
		}
		if outer.StackHeight > 0 && next.StackHeight > 0 {
			if next.StackHeight <= outer.StackHeight {
				break
			}
		} else if outer.InnerIndex != 0 {
			break
		}
		ix.Inners = append(ix.Inners, next)
	}
	return ix
}
