package transfer

import (
	"encoding/binary"

	"meteora-indexer-sol/internal/consts"
	"meteora-indexer-sol/internal/logic/core"
	"meteora-indexer-sol/internal/types"

	sdktoken "github.com/blocto/solana-go-sdk/program/token"
)

// 合约源代码:
// SplToken: https://github.com/solana-program/token/blob/main/program/src/instruction.rs
// Token2022: https://github.com/solana-program/token-2022

// Transfer 表示外层指令触发的一次 SPL Token 转账（Transfer 或 TransferChecked）。
type Transfer struct {
	IxIndex     uint16
	InnerIndex  uint16
	Source      types.Pubkey // 来源 TokenAccount
	Destination types.Pubkey // 目标 TokenAccount
	Authority   types.Pubkey // 签名者（owner 或 delegate）
	Mint        types.Pubkey // TransferChecked 取自指令；Transfer 取自余额快照，缺失时为零值
	Amount      uint64
	Decimals    uint8
	Checked     bool
}

// ExtractTransfers 提取 inner 中的 Transfer（opcode 3）
// Transfer: [0]=instr, [1:9]=amount
// accounts = [src_account, dest_account, authority]
func ExtractTransfers(ix *core.Instruction) []Transfer {
	var out []Transfer
	for _, inner := range ix.Inners {
		if !consts.IsTokenProgram(inner.ProgramID) {
			continue
		}
		if len(inner.Data) < 9 || len(inner.Accounts) < 3 {
			continue
		}
		if inner.Data[0] != byte(sdktoken.InstructionTransfer) {
			continue
		}
		t := Transfer{
			IxIndex:     inner.IxIndex,
			InnerIndex:  inner.InnerIndex,
			Source:      inner.Accounts[0],
			Destination: inner.Accounts[1],
			Authority:   inner.Accounts[2],
			Amount:      binary.LittleEndian.Uint64(inner.Data[1:9]),
		}
		enrich(ix.Tx, &t)
		out = append(out, t)
	}
	return out
}

// ExtractTransfersChecked 提取 inner 中的 TransferChecked（opcode 12）
// TransferChecked: [0]=instr, [1:9]=amount, [9]=decimals
// accounts = [src_account, mint, dest_account, authority]
func ExtractTransfersChecked(ix *core.Instruction) []Transfer {
	var out []Transfer
	for _, inner := range ix.Inners {
		if !consts.IsTokenProgram(inner.ProgramID) {
			continue
		}
		if len(inner.Data) < 10 || len(inner.Accounts) < 4 {
			continue
		}
		if inner.Data[0] != byte(sdktoken.InstructionTransferChecked) {
			continue
		}
		out = append(out, Transfer{
			IxIndex:     inner.IxIndex,
			InnerIndex:  inner.InnerIndex,
			Source:      inner.Accounts[0],
			Mint:        inner.Accounts[1],
			Destination: inner.Accounts[2],
			Authority:   inner.Accounts[3],
			Amount:      binary.LittleEndian.Uint64(inner.Data[1:9]),
			Decimals:    inner.Data[9],
			Checked:     true,
		})
	}
	return out
}

// ExtractAll 按执行顺序合并两类转账
func ExtractAll(ix *core.Instruction) []Transfer {
	legacy := ExtractTransfers(ix)
	checked := ExtractTransfersChecked(ix)
	if len(legacy) == 0 {
		return checked
	}
	if len(checked) == 0 {
		return legacy
	}

	out := make([]Transfer, 0, len(legacy)+len(checked))
	i, j := 0, 0
	for i < len(legacy) && j < len(checked) {
		if before(legacy[i], checked[j]) {
			out = append(out, legacy[i])
			i++
		} else {
			out = append(out, checked[j])
			j++
		}
	}
	out = append(out, legacy[i:]...)
	return append(out, checked[j:]...)
}

func before(a, b Transfer) bool {
	if a.IxIndex != b.IxIndex {
		return a.IxIndex < b.IxIndex
	}
	return a.InnerIndex < b.InnerIndex
}

// enrich 用余额快照补全 Transfer 的 mint 与精度
func enrich(tx *core.AdaptedTx, t *Transfer) {
	if tx == nil {
		return
	}
	if b, ok := tx.Balances[t.Source]; ok {
		t.Mint = b.Token
		t.Decimals = b.Decimals
		return
	}
	if b, ok := tx.Balances[t.Destination]; ok {
		t.Mint = b.Token
		t.Decimals = b.Decimals
	}
}

// SumInto 累加转入 account 的金额
func SumInto(transfers []Transfer, account types.Pubkey) uint64 {
	var sum uint64
	for _, t := range transfers {
		if t.Destination == account {
			sum += t.Amount
		}
	}
	return sum
}

// SumOutOf 累加从 account 转出的金额
func SumOutOf(transfers []Transfer, account types.Pubkey) uint64 {
	var sum uint64
	for _, t := range transfers {
		if t.Source == account {
			sum += t.Amount
		}
	}
	return sum
}
