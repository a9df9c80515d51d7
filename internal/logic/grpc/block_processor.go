package grpc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"meteora-indexer-sol/internal/config"
	"meteora-indexer-sol/internal/consts"
	"meteora-indexer-sol/internal/logic/indexer"
	"meteora-indexer-sol/internal/logic/progress"
	"meteora-indexer-sol/internal/metrics"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"github.com/zeromicro/go-zero/core/logx"
)

const maxRunRetries = 3

var retryBackoff = time.Second

// BatchRunner 执行一批已适配的区块
type BatchRunner interface {
	Run(ctx context.Context, blocks []*indexer.Block) (*indexer.Result, error)
}

// SlotGate slot 判重与状态标记
type SlotGate interface {
	ShouldProcessSlot(ctx context.Context, slot uint64, blockTime int64) (bool, error)
	MarkSlotStatus(ctx context.Context, slot uint64, source int16, blockTime int64, status progress.SlotStatus) error
}

// GapReporter 接收流中缺失的 slot 区间
type GapReporter interface {
	Submit(from, to uint64)
}

type BlockProcessor struct {
	runner        BatchRunner
	gate          SlotGate
	gaps          GapReporter
	metrics       *metrics.Metrics
	blockChan     chan *pb.SubscribeUpdateBlock
	blocksPerRun  int
	flushInterval time.Duration
	adaptWorkers  int

	pending  []*indexer.Block
	lastSlot uint64 // 最近收到的 slot，用于发现断档
	halted   bool   // 落库持续失败，不再执行任何批次

	ctx    context.Context
	cancel func(err error)
	done   chan struct{}
	fatal  chan error
	logx.Logger
}

func NewBlockProcessor(
	batch config.BatchConfig,
	runner BatchRunner,
	gate SlotGate,
	gaps GapReporter,
	m *metrics.Metrics,
	blockChan chan *pb.SubscribeUpdateBlock,
) *BlockProcessor {
	ctx, cancel := context.WithCancelCause(context.Background())
	workers := batch.AdaptWorkers
	if workers <= 0 {
		workers = consts.CpuCount + 2
	}
	perRun := max(batch.BlocksPerFlush, 1)
	interval := time.Duration(batch.FlushIntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = time.Second
	}
	return &BlockProcessor{
		runner:        runner,
		gate:          gate,
		gaps:          gaps,
		metrics:       m,
		blockChan:     blockChan,
		blocksPerRun:  perRun,
		flushInterval: interval,
		adaptWorkers:  workers,
		pending:       make([]*indexer.Block, 0, perRun),
		ctx:           ctx,
		cancel:        cancel,
		done:          make(chan struct{}),
		fatal:         make(chan error, 1),
		Logger:        logx.WithContext(ctx).WithFields(logx.Field("service", "block_processor")),
	}
}

func (p *BlockProcessor) Start() {
	defer close(p.done)

	ticker := time.NewTicker(p.flushInterval)
	defer ticker.Stop()

	for !p.halted {
		select {
		case <-p.ctx.Done():
			// 退出前把已攒的区块落库，用独立 ctx 避免被取消
			p.runPending(context.Background())
			return
		case block := <-p.blockChan:
			p.handleBlock(p.ctx, block)
			if len(p.pending) >= p.blocksPerRun {
				p.runPending(p.ctx)
			}
			if len(p.blockChan) > 10 {
				p.Debugf("block chan len: %v", len(p.blockChan))
			}
		case <-ticker.C:
			p.runPending(p.ctx)
		}
	}
}

func (p *BlockProcessor) Stop() {
	p.cancel(errors.New("service stop"))
	<-p.done
}

// Fatal 落库重试耗尽后收到停机原因，进程应退出
func (p *BlockProcessor) Fatal() <-chan error {
	return p.fatal
}

// halt 停止消费新区块。失败的批次留在 pending 中，不再执行
func (p *BlockProcessor) halt(err error) {
	p.halted = true
	p.cancel(err)
	select {
	case p.fatal <- err:
	default:
	}
}

// handleBlock 判重、断档检测并适配，结果进入待执行队列
func (p *BlockProcessor) handleBlock(ctx context.Context, block *pb.SubscribeUpdateBlock) {
	if block == nil {
		return
	}
	var blockTime int64
	if block.BlockTime != nil {
		blockTime = block.BlockTime.Timestamp
	}

	p.detectGap(block)

	if p.gate != nil {
		ok, err := p.gate.ShouldProcessSlot(ctx, block.Slot, blockTime)
		if err != nil {
			// 判重失败时宁可重复处理，事件表冲突不写
			p.Errorf("[BlockProcessor] check slot %d failed, process anyway: %v", block.Slot, err)
		} else if !ok {
			p.Infof("[BlockProcessor] slot %d already processed, skip", block.Slot)
			p.metrics.ObserveSkippedBlock()
			return
		}
		if err := p.gate.MarkSlotStatus(ctx, block.Slot, progress.SourceGrpc, blockTime, progress.SlotPending); err != nil {
			p.Errorf("[BlockProcessor] mark slot %d pending failed: %v", block.Slot, err)
		}
	}

	start := time.Now()
	adapted := indexer.AdaptBlock(ctx, block, p.adaptWorkers)
	p.Debugf("[BlockProcessor] slot %d adapted in %v: txs=%d, meteora txs=%d",
		block.Slot, time.Since(start), len(block.Transactions), len(adapted.Txs))
	p.pending = append(p.pending, adapted)
}

// detectGap 父 slot 大于上一个收到的 slot 时，中间的 slot 可能漏推
func (p *BlockProcessor) detectGap(block *pb.SubscribeUpdateBlock) {
	last := p.lastSlot
	if block.Slot > p.lastSlot {
		p.lastSlot = block.Slot
	}
	if last == 0 || p.gaps == nil || block.ParentSlot <= last {
		return
	}
	p.Infof("[BlockProcessor] slot gap detected: (%d, %d]", last, block.ParentSlot)
	p.gaps.Submit(last+1, block.ParentSlot)
}

// runPending 执行已攒的区块。落库失败时整批重试；重试耗尽后停机，
// 后续区块的储备依赖这一批的结果，跳过它会让储备错乱。
// 停机后这些 slot 在 Redis 中保持 pending。
func (p *BlockProcessor) runPending(ctx context.Context) {
	if len(p.pending) == 0 || p.halted {
		return
	}
	blocks := p.pending
	first, last := blocks[0].Slot, blocks[len(blocks)-1].Slot

	for attempt := 1; ; attempt++ {
		start := time.Now()
		res, err := p.runner.Run(ctx, blocks)
		if err == nil {
			p.Infof("[BlockProcessor] batch done in %v: blocks=%d, txs=%d, ixs=%d, lastSlot=%d",
				time.Since(start), res.Blocks, res.Txs, res.Instructions, res.LastSlot)
			p.pending = make([]*indexer.Block, 0, p.blocksPerRun)
			return
		}
		if ctx.Err() != nil {
			// 正在停止，保留给退出前的 flush
			return
		}
		if !indexer.IsFatal(err) {
			p.Errorf("[BlockProcessor] batch skipped: slots=[%d, %d], err=%v", first, last, err)
			p.pending = make([]*indexer.Block, 0, p.blocksPerRun)
			return
		}
		if attempt >= maxRunRetries {
			p.Errorf("[BlockProcessor] batch failed after %d attempts, halting: slots=[%d, %d], err=%v",
				attempt, first, last, err)
			p.halt(fmt.Errorf("slots [%d, %d]: %w", first, last, err))
			return
		}
		p.Errorf("[BlockProcessor] batch failed (attempt %d), retrying: %v", attempt, err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(retryBackoff * time.Duration(attempt)):
		}
	}
}
