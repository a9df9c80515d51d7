package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"meteora-indexer-sol/internal/logic/core"
	"meteora-indexer-sol/internal/logic/processor/common"
	"meteora-indexer-sol/internal/logic/processor/meteoradamm"
	"meteora-indexer-sol/internal/logic/processor/meteoradlmm"
	"meteora-indexer-sol/internal/logic/progress"
	"meteora-indexer-sol/internal/metrics"
	"meteora-indexer-sol/internal/pkg/logger"
	"meteora-indexer-sol/internal/service"
	"meteora-indexer-sol/internal/store"
	"meteora-indexer-sol/internal/types"
)

// EventPublisher 发布已落库的事件实体
type EventPublisher interface {
	Publish(ctx context.Context, batches []store.TableBatch) (map[string]int, error)
}

// ProgressMarker 记录 slot 处理状态
type ProgressMarker interface {
	MarkSlotStatus(ctx context.Context, slot uint64, source int16, blockTime int64, status progress.SlotStatus) error
}

// Result 一次运行的统计
type Result struct {
	Blocks       int
	Txs          int
	Instructions int
	LastSlot     uint64
	Flushed      map[string]int // 表名 → 行数
	Published    map[string]int // 消息类别 → 条数
}

// Runner 批次执行器：按 区块 → 交易 → 指令 的顺序串行分发给处理器，批次结束时落库并发布。
// 非并发安全，同一时间只能有一个 Run。
type Runner struct {
	uow        *store.UnitOfWork
	pctx       *common.Context
	processors map[types.Pubkey]common.Processor
	publisher  EventPublisher
	progress   ProgressMarker
	metrics    *metrics.Metrics
	source     int16
}

type Option func(*Runner)

func WithPublisher(p EventPublisher) Option {
	return func(r *Runner) { r.publisher = p }
}

func WithProgress(p ProgressMarker, source int16) Option {
	return func(r *Runner) {
		r.progress = p
		r.source = source
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// NewRunner 以 durable 为持久层构建 UnitOfWork、实体服务与两个处理器
func NewRunner(durable store.DurableStore, opts ...Option) *Runner {
	r := &Runner{source: progress.SourceGrpc}
	for _, opt := range opts {
		opt(r)
	}

	r.uow = store.NewUnitOfWork(durable)
	r.pctx = common.NewContext(service.New(r.uow), r.metrics)
	r.processors = make(map[types.Pubkey]common.Processor, 2)
	for _, p := range []common.Processor{meteoradamm.New(r.pctx), meteoradlmm.New(r.pctx)} {
		r.processors[p.ProgramID()] = p
	}
	return r
}

// UnitOfWork 返回底层工作单元（用于设置缓存上限与测试）
func (r *Runner) UnitOfWork() *store.UnitOfWork {
	return r.uow
}

// ProcessTx 依次处理交易中每条 Meteora 指令（含被其他程序 CPI 调用的 inner 指令）。
// 只有持久化失败会返回错误。
func (r *Runner) ProcessTx(ctx context.Context, tx *core.AdaptedTx) (int, error) {
	handled := 0
	for i, aix := range tx.Instructions {
		p, ok := r.processors[aix.ProgramID]
		if !ok {
			continue
		}
		ix := core.BuildInstruction(tx, i)
		if err := p.ProcessInstruction(ctx, ix); err != nil {
			return handled, fmt.Errorf("tx %s ix %d.%d: %w", tx.TxID(), aix.IxIndex, aix.InnerIndex, err)
		}
		handled++
	}
	return handled, nil
}

// Run 处理一批区块，结束时按外键顺序落库，成功后发布事件并标记进度。
// 落库失败时缓存被丢弃、返回 store.ErrPersistence，进度不标记，调用方可重放同一批区块。
func (r *Runner) Run(ctx context.Context, blocks []*Block) (*Result, error) {
	res := &Result{}
	r.pctx.Swaps.Reset()

	for _, b := range blocks {
		for _, tx := range b.Txs {
			n, err := r.ProcessTx(ctx, tx)
			res.Instructions += n
			if err != nil {
				r.uow.Reset()
				return res, err
			}
			res.Txs++
		}
		res.Blocks++
		res.LastSlot = max(res.LastSlot, b.Slot)
	}

	start := time.Now()
	batches, err := r.uow.Flush(ctx)
	res.Flushed = rowsByTable(batches)
	r.metrics.ObserveFlush(time.Since(start), res.Flushed, err)
	if err != nil {
		logger.Errorf("[Runner] flush failed: blocks=%d, lastSlot=%d, err=%v", res.Blocks, res.LastSlot, err)
		return res, err
	}

	if r.publisher != nil && len(batches) > 0 {
		published, err := r.publisher.Publish(ctx, batches)
		res.Published = published
		for kind, n := range published {
			r.metrics.ObservePublished(kind, n)
		}
		if err != nil {
			// 数据已落库，发布失败不回滚
			logger.Errorf("[Runner] publish failed: lastSlot=%d, err=%v", res.LastSlot, err)
		}
	}

	r.markProcessed(ctx, blocks)
	r.metrics.ObserveBlocks(res.Blocks, res.LastSlot)
	logger.Debugf("[Runner] batch done: blocks=%d, txs=%d, ixs=%d, rows=%v",
		res.Blocks, res.Txs, res.Instructions, res.Flushed)
	return res, nil
}

func (r *Runner) markProcessed(ctx context.Context, blocks []*Block) {
	if r.progress == nil {
		return
	}
	for _, b := range blocks {
		if err := r.progress.MarkSlotStatus(ctx, b.Slot, r.source, b.BlockTime, progress.SlotProcessed); err != nil {
			logger.Warnf("[Runner] mark slot %d processed failed: %v", b.Slot, err)
		}
	}
}

func rowsByTable(batches []store.TableBatch) map[string]int {
	rows := make(map[string]int, len(batches))
	for _, b := range batches {
		rows[b.Table.String()] += len(b.Rows)
	}
	return rows
}

// IsFatal 判断错误是否需要中止后续批次
func IsFatal(err error) bool {
	return errors.Is(err, store.ErrPersistence)
}
