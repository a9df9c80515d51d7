package txadapter

import (
	"fmt"
	"strconv"

	"meteora-indexer-sol/internal/consts"
	"meteora-indexer-sol/internal/logic/core"
	"meteora-indexer-sol/internal/types"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
)

// buildFullAccountKeys 拼接 message.accountKeys 与 Address Lookup Table 中的 writable / readonly 地址，
// 供后续通过 accountIndex 索引。
func buildFullAccountKeys(accountKeys, loadedWritable, loadedReadonly [][]byte) ([]types.Pubkey, error) {
	total := len(accountKeys) + len(loadedWritable) + len(loadedReadonly)
	pubkeys := make([]types.Pubkey, total)

	i := 0
	for _, part := range [][][]byte{accountKeys, loadedWritable, loadedReadonly} {
		for _, b := range part {
			if len(b) != 32 {
				return nil, fmt.Errorf("invalid pubkey at account index %d: length %d", i, len(b))
			}
			copy(pubkeys[i][:], b)
			i++
		}
	}
	return pubkeys, nil
}

func accountAt(keys []types.Pubkey, idx uint32) (types.Pubkey, error) {
	if int(idx) >= len(keys) {
		return types.Pubkey{}, fmt.Errorf("account index %d out of range (%d keys)", idx, len(keys))
	}
	return keys[idx], nil
}

func resolveAccounts(keys []types.Pubkey, indexes []byte) ([]types.Pubkey, error) {
	accounts := make([]types.Pubkey, 0, len(indexes))
	for _, idx := range indexes {
		pk, err := accountAt(keys, uint32(idx))
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, pk)
	}
	return accounts, nil
}

func parseAmount(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseUint(s, 10, 64)
}

// buildAdaptedBalances 构建 token account → 余额快照。
// 只处理 TokenProgram / Token2022 账户；先处理 Post（账户最终状态），再用 Pre 补全。
func buildAdaptedBalances(
	owners OwnerCache,
	meta *pb.TransactionStatusMeta,
	accountKeys []types.Pubkey,
) (map[types.Pubkey]*core.TokenBalance, []core.TokenDecimals, error) {
	postList := meta.PostTokenBalances
	preList := meta.PreTokenBalances

	capacity := len(preList) + len(postList)
	balanceMap := make(map[types.Pubkey]*core.TokenBalance, capacity)
	mints := newMintResolver(capacity)
	ownerRes := newOwnerResolver(owners)

	index := uint16(0)
	for _, post := range postList {
		if post.ProgramId != "" && !consts.IsTokenProgramStr(post.ProgramId) {
			continue
		}
		account, err := accountAt(accountKeys, post.AccountIndex)
		if err != nil {
			return nil, nil, err
		}
		decimals := uint8(post.GetUiTokenAmount().GetDecimals())
		mint, err := mints.resolve(post.Mint, decimals)
		if err != nil {
			return nil, nil, fmt.Errorf("post mint: %w", err)
		}
		amount, err := parseAmount(post.GetUiTokenAmount().GetAmount())
		if err != nil {
			return nil, nil, fmt.Errorf("post amount of %s: %w", account, err)
		}
		owner, err := ownerRes.resolve(post.Owner)
		if err != nil {
			return nil, nil, fmt.Errorf("post owner: %w", err)
		}
		programID := consts.TokenProgram
		if post.ProgramId == consts.TokenProgram2022Str {
			programID = consts.TokenProgram2022
		}
		balanceMap[account] = &core.TokenBalance{
			TokenAccount:   account,
			Token:          mint,
			PostBalance:    amount,
			PostOwner:      owner,
			Decimals:       decimals,
			InnerIndex:     index,
			TokenProgramID: programID,
		}
		index++
	}

	for _, pre := range preList {
		if pre.ProgramId != "" && !consts.IsTokenProgramStr(pre.ProgramId) {
			continue
		}
		account, err := accountAt(accountKeys, pre.AccountIndex)
		if err != nil {
			return nil, nil, err
		}
		decimals := uint8(pre.GetUiTokenAmount().GetDecimals())
		mint, err := mints.resolve(pre.Mint, decimals)
		if err != nil {
			return nil, nil, fmt.Errorf("pre mint: %w", err)
		}
		amount, err := parseAmount(pre.GetUiTokenAmount().GetAmount())
		if err != nil {
			return nil, nil, fmt.Errorf("pre amount of %s: %w", account, err)
		}
		owner, err := ownerRes.resolve(pre.Owner)
		if err != nil {
			return nil, nil, fmt.Errorf("pre owner: %w", err)
		}

		if tb, ok := balanceMap[account]; ok {
			tb.HasPreOwner = true
			tb.PreOwner = owner
			tb.PreBalance = amount
			tb.PreToken = mint
			continue
		}
		// Pre-only：账户在本交易中被关闭
		programID := consts.TokenProgram
		if pre.ProgramId == consts.TokenProgram2022Str {
			programID = consts.TokenProgram2022
		}
		balanceMap[account] = &core.TokenBalance{
			TokenAccount:   account,
			PreToken:       mint,
			HasPreOwner:    true,
			PreOwner:       owner,
			PreBalance:     amount,
			Decimals:       decimals,
			InnerIndex:     index,
			TokenProgramID: programID,
		}
		index++
	}

	return balanceMap, mints.buildTokenDecimals(), nil
}

// buildAdaptedInstructions 将主指令与 inner 指令展平为执行顺序：
//   - IxIndex：主指令索引；
//   - InnerIndex：0 表示主指令，1 及以上为 inner 指令序号；
//   - StackHeight：主指令为 1，inner 指令取 meta 中的值（旧数据缺失时为 0）。
func buildAdaptedInstructions(tx *pb.SubscribeUpdateTransactionInfo, accountKeys []types.Pubkey) ([]*core.AdaptedInstruction, error) {
	rawInstructions := tx.Transaction.Message.Instructions
	rawInners := tx.Meta.InnerInstructions

	instructions := make([]*core.AdaptedInstruction, 0, max(len(rawInstructions)*2, 32))
	innerIndex := 0

	for i, inst := range rawInstructions {
		programID, err := accountAt(accountKeys, inst.ProgramIdIndex)
		if err != nil {
			return nil, err
		}
		accounts, err := resolveAccounts(accountKeys, inst.Accounts)
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, &core.AdaptedInstruction{
			IxIndex:     uint16(i),
			InnerIndex:  0,
			StackHeight: 1,
			ProgramID:   programID,
			Accounts:    accounts,
			Data:        inst.Data,
		})

		// inner 列表按主指令索引递增排列，顺序匹配即可
		for innerIndex < len(rawInners) && int(rawInners[innerIndex].Index) < i {
			innerIndex++
		}
		if innerIndex < len(rawInners) && int(rawInners[innerIndex].Index) == i {
			for j, inner := range rawInners[innerIndex].Instructions {
				innerProgram, err := accountAt(accountKeys, inner.ProgramIdIndex)
				if err != nil {
					return nil, err
				}
				innerAccounts, err := resolveAccounts(accountKeys, inner.Accounts)
				if err != nil {
					return nil, err
				}
				var stackHeight uint32
				if inner.StackHeight != nil {
					stackHeight = *inner.StackHeight
				}
				instructions = append(instructions, &core.AdaptedInstruction{
					IxIndex:     uint16(i),
					InnerIndex:  uint16(j + 1),
					StackHeight: stackHeight,
					ProgramID:   innerProgram,
					Accounts:    innerAccounts,
					Data:        inner.Data,
				})
			}
			innerIndex++
		}
	}
	return instructions, nil
}

// AdaptGrpcTx 将 gRPC 推送的交易转换为 core.AdaptedTx：
//  1. 构建完整账户列表（含 Address Lookup）；
//  2. 展平主指令与 inner 指令；
//  3. 构建 token 余额快照与 decimals。
//
// 纯函数，可并发调用；owners 为调用方协程私有的缓存，可为 nil。
func AdaptGrpcTx(txCtx *core.TxContext, owners OwnerCache, tx *pb.SubscribeUpdateTransactionInfo) (_ *core.AdaptedTx, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("AdaptGrpcTx panic: %v", r)
		}
	}()

	if err := ValidateGrpcTx(tx); err != nil {
		return nil, err
	}

	accountKeys, err := buildFullAccountKeys(
		tx.Transaction.Message.AccountKeys,
		tx.Meta.LoadedWritableAddresses,
		tx.Meta.LoadedReadonlyAddresses,
	)
	if err != nil {
		return nil, fmt.Errorf("buildFullAccountKeys: %w", err)
	}

	// 前 N 个账户即为 signer
	signerCount := 0
	if header := tx.Transaction.Message.Header; header != nil {
		signerCount = int(header.NumRequiredSignatures)
	}
	if signerCount == 0 || len(accountKeys) < signerCount {
		return nil, fmt.Errorf("invalid signer count: %d", signerCount)
	}

	instructions, err := buildAdaptedInstructions(tx, accountKeys)
	if err != nil {
		return nil, fmt.Errorf("buildAdaptedInstructions: %w", err)
	}

	balances, tokenDecimals, err := buildAdaptedBalances(owners, tx.Meta, accountKeys)
	if err != nil {
		return nil, fmt.Errorf("buildAdaptedBalances: %w", err)
	}

	signers := make([]types.Pubkey, signerCount)
	copy(signers, accountKeys[:signerCount])

	return &core.AdaptedTx{
		TxCtx:         txCtx,
		TxIndex:       uint32(tx.Index),
		Signature:     tx.Transaction.Signatures[0],
		Signers:       signers,
		Instructions:  instructions,
		LogMessages:   tx.Meta.LogMessages,
		Balances:      balances,
		TokenDecimals: tokenDecimals,
	}, nil
}

// TouchesPrograms 判断交易是否调用了任一目标程序（主指令或 inner 指令）
func TouchesPrograms(tx *core.AdaptedTx, programs ...types.Pubkey) bool {
	for _, ix := range tx.Instructions {
		for _, p := range programs {
			if ix.ProgramID == p {
				return true
			}
		}
	}
	return false
}
