package transfer

import (
	"encoding/binary"

	"meteora-indexer-sol/internal/consts"
	"meteora-indexer-sol/internal/logic/core"
	"meteora-indexer-sol/internal/types"

	"github.com/blocto/solana-go-sdk/program/system"
)

// CreateAccount 表示一次 System Program CreateAccount
type CreateAccount struct {
	IxIndex    uint16
	InnerIndex uint16
	Source     types.Pubkey // 出资账户
	NewAccount types.Pubkey
	Lamports   uint64 // 租金，非代币
	Space      uint64
	Owner      types.Pubkey
}

// createAccountDataLen = index(4) + lamports(8) + space(8) + owner(32)
const createAccountDataLen = 52

// ExtractCreateAccounts 提取 inner 中的 CreateAccount
// data: [0:4]=instr(u32 LE), [4:12]=lamports, [12:20]=space, [20:52]=owner
// accounts = [funding_account, new_account]
func ExtractCreateAccounts(ix *core.Instruction) []CreateAccount {
	var out []CreateAccount
	for _, inner := range ix.Inners {
		if inner.ProgramID != consts.SystemProgram {
			continue
		}
		if len(inner.Data) < createAccountDataLen || len(inner.Accounts) < 2 {
			continue
		}
		if binary.LittleEndian.Uint32(inner.Data[0:4]) != uint32(system.InstructionCreateAccount) {
			continue
		}
		ca := CreateAccount{
			IxIndex:    inner.IxIndex,
			InnerIndex: inner.InnerIndex,
			Source:     inner.Accounts[0],
			NewAccount: inner.Accounts[1],
			Lamports:   binary.LittleEndian.Uint64(inner.Data[4:12]),
			Space:      binary.LittleEndian.Uint64(inner.Data[12:20]),
		}
		copy(ca.Owner[:], inner.Data[20:52])
		out = append(out, ca)
	}
	return out
}

// Created 判断 account 是否由本指令创建
func Created(list []CreateAccount, account types.Pubkey) bool {
	for _, ca := range list {
		if ca.NewAccount == account {
			return true
		}
	}
	return false
}
