package indexer

import (
	"context"
	"sort"

	"meteora-indexer-sol/internal/consts"
	"meteora-indexer-sol/internal/logic/core"
	"meteora-indexer-sol/internal/logic/txadapter"
	"meteora-indexer-sol/internal/pkg/logger"
	"meteora-indexer-sol/internal/pkg/utils"
	"meteora-indexer-sol/internal/types"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
)

// Block 一个已适配的区块：只保留调用了 Meteora 程序的交易，按区块内顺序排列
type Block struct {
	Slot       uint64
	ParentSlot uint64
	BlockTime  int64
	Txs        []*core.AdaptedTx
}

type adaptResult struct {
	tx  *core.AdaptedTx
	err error
}

// AdaptBlock 并发适配区块内的交易。适配是纯函数，不共享状态；失败的交易记录日志后丢弃。
func AdaptBlock(ctx context.Context, block *pb.SubscribeUpdateBlock, workers int) *Block {
	blockHash, err := types.HashFromBase58(block.Blockhash)
	if err != nil {
		logger.Warnf("[AdaptBlock] blockhash 无法解析，使用零值: slot=%d, blockhash=%s, err=%v",
			block.Slot, block.Blockhash, err)
	}

	var blockTime int64
	if block.BlockTime != nil {
		blockTime = block.BlockTime.Timestamp
	}
	var height uint64
	if block.BlockHeight != nil {
		height = block.BlockHeight.BlockHeight
	}
	txCtx := &core.TxContext{
		BlockTime:   blockTime,
		Slot:        block.Slot,
		ParentSlot:  block.ParentSlot,
		BlockHeight: height,
		BlockHash:   blockHash,
	}

	validTxs := make([]*pb.SubscribeUpdateTransactionInfo, 0, len(block.Transactions))
	for _, tx := range block.Transactions {
		if txadapter.IsValidGrpcTx(tx) {
			validTxs = append(validTxs, tx)
		}
	}

	results := utils.ParallelMap(ctx, validTxs, workers, func(tx *pb.SubscribeUpdateTransactionInfo) adaptResult {
		adapted, err := txadapter.AdaptGrpcTx(txCtx, nil, tx)
		return adaptResult{tx: adapted, err: err}
	})

	out := &Block{
		Slot:       block.Slot,
		ParentSlot: block.ParentSlot,
		BlockTime:  blockTime,
		Txs:        make([]*core.AdaptedTx, 0, len(results)),
	}
	for i, r := range results {
		if r.err != nil {
			logger.Warnf("[AdaptBlock] 交易适配失败: slot=%d, index=%d, err=%v", block.Slot, validTxs[i].Index, r.err)
			continue
		}
		if r.tx == nil || !txadapter.TouchesPrograms(r.tx, consts.MeteoraDAMMProgram, consts.MeteoraDLMMProgram) {
			continue
		}
		out.Txs = append(out.Txs, r.tx)
	}
	// 处理顺序以区块内序号为准
	sort.SliceStable(out.Txs, func(i, j int) bool { return out.Txs[i].TxIndex < out.Txs[j].TxIndex })
	return out
}
