package common

import (
	"meteora-indexer-sol/internal/logic/core"
	"meteora-indexer-sol/internal/logic/netflow"
	"meteora-indexer-sol/internal/logic/transfer"
	"meteora-indexer-sol/internal/types"
)

// VaultFlow 提取指令内全部 token 转账，并统计两个 vault 的净流量
func VaultFlow(ix *core.Instruction, vaultX, vaultY types.Pubkey) ([]transfer.Transfer, netflow.Flow) {
	transfers := transfer.ExtractAll(ix)
	return transfers, netflow.Compute(vaultX, vaultY, transfers)
}

// PoolVaults 将 BasePool 中记录的 vault 地址解析为 Pubkey
func PoolVaults(tokenXVault, tokenYVault string) (types.Pubkey, types.Pubkey, error) {
	x, err := types.TryPubkeyFromBase58(tokenXVault)
	if err != nil {
		return types.Pubkey{}, types.Pubkey{}, err
	}
	y, err := types.TryPubkeyFromBase58(tokenYVault)
	if err != nil {
		return types.Pubkey{}, types.Pubkey{}, err
	}
	return x, y, nil
}
