package grpc

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"meteora-indexer-sol/internal/metrics"
	"meteora-indexer-sol/internal/pkg/logger"

	"github.com/blocto/solana-go-sdk/rpc"
)

const (
	gapVerifyDelay   = 30 * time.Second // 等 RPC 节点追上再复核
	gapVerifyTick    = 10 * time.Second
	gapQueueSize     = 300
	maxQueuedGaps    = 200
	maxWindowSlots   = 10_000 // 单次 getBlocks 的 slot 跨度上限
	getBlocksRetries = 3
	getBlocksTimeout = 6 * time.Second
)

var getBlocksRetryDelay = 300 * time.Millisecond

// producedSlotsFunc 返回 [from, to] 内实际出块的 slot
type producedSlotsFunc func(ctx context.Context, from, to uint64) ([]uint64, error)

// slotRange 闭区间 [From, To]
type slotRange struct {
	From uint64
	To   uint64
}

func (r slotRange) contains(slot uint64) bool {
	return slot >= r.From && slot <= r.To
}

type queuedGap struct {
	slotRange
	at time.Time
}

// SlotChecker 延迟复核 gRPC 流的断档。断档内被 RPC 确认出过块的 slot 即漏块，
// 只计入 missing_slots 指标，不做回补。
type SlotChecker struct {
	produced producedSlotsFunc
	metrics  *metrics.Metrics
	gapCh    chan queuedGap
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewSlotChecker(endpoint string, m *metrics.Metrics) *SlotChecker {
	client := rpc.NewRpcClient(endpoint)
	return newSlotChecker(func(ctx context.Context, from, to uint64) ([]uint64, error) {
		resp, err := client.GetBlocks(ctx, from, to)
		if err != nil {
			return nil, err
		}
		if resp.Error != nil {
			return nil, fmt.Errorf("getBlocks rpc error: %v", resp.Error)
		}
		return resp.Result, nil
	}, m)
}

func newSlotChecker(produced producedSlotsFunc, m *metrics.Metrics) *SlotChecker {
	ctx, cancel := context.WithCancel(context.Background())
	return &SlotChecker{
		produced: produced,
		metrics:  m,
		gapCh:    make(chan queuedGap, gapQueueSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (s *SlotChecker) Start() {
	go s.loop()
}

func (s *SlotChecker) Stop() {
	s.cancel()
}

// Submit 提交流中缺失的闭区间 [from, to]，队列满时丢弃
func (s *SlotChecker) Submit(from, to uint64) {
	if from > to {
		logger.Warnf("[SlotChecker] invalid gap [%d, %d]", from, to)
		return
	}
	select {
	case s.gapCh <- queuedGap{slotRange: slotRange{From: from, To: to}, at: time.Now()}:
	default:
		logger.Warnf("[SlotChecker] gap queue full, dropped [%d, %d]", from, to)
	}
}

func (s *SlotChecker) loop() {
	ticker := time.NewTicker(gapVerifyTick)
	defer ticker.Stop()

	var queued []queuedGap
	for {
		select {
		case <-s.ctx.Done():
			logger.Infof("[SlotChecker] stopped")
			return
		case g := <-s.gapCh:
			if len(queued) >= maxQueuedGaps {
				logger.Warnf("[SlotChecker] %d gaps queued, dropped [%d, %d]", len(queued), g.From, g.To)
				continue
			}
			queued = append(queued, g)
		case now := <-ticker.C:
			var due []slotRange
			due, queued = splitDue(queued, now.Add(-gapVerifyDelay))
			if len(due) > 0 {
				// 同步复核，RPC 慢时不会堆积 goroutine
				s.verify(due)
			}
		}
	}
}

// splitDue 取出 cutoff 之前提交的断档，其余留在队列
func splitDue(queued []queuedGap, cutoff time.Time) (due []slotRange, rest []queuedGap) {
	rest = queued[:0]
	for _, g := range queued {
		if g.at.After(cutoff) {
			rest = append(rest, g)
		} else {
			due = append(due, g.slotRange)
		}
	}
	return due, rest
}

// verify 按查询窗口拉取出块 slot 并统计漏块。查询失败的窗口不计入
func (s *SlotChecker) verify(gaps []slotRange) {
	var produced []uint64
	for _, w := range queryWindows(gaps) {
		if s.ctx.Err() != nil {
			return
		}
		slots, err := s.producedWithRetry(w)
		if err != nil {
			logger.Warnf("[SlotChecker] getBlocks [%d, %d] failed: %v", w.From, w.To, err)
			continue
		}
		produced = append(produced, slots...)
	}
	s.metrics.ObserveMissingSlots(countMissing(gaps, produced))
}

func (s *SlotChecker) producedWithRetry(w slotRange) ([]uint64, error) {
	var err error
	for attempt := 1; ; attempt++ {
		ctx, cancel := context.WithTimeout(s.ctx, getBlocksTimeout)
		var slots []uint64
		slots, err = s.produced(ctx, w.From, w.To)
		cancel()
		if err == nil {
			return slots, nil
		}
		if attempt >= getBlocksRetries {
			return nil, err
		}
		select {
		case <-s.ctx.Done():
			return nil, s.ctx.Err()
		case <-time.After(getBlocksRetryDelay):
		}
	}
}

// queryWindows 把断档按起点排序后合并成互不重叠的查询窗口，每个窗口不超过 maxWindowSlots。
// 不相邻的断档只要合并后不超限也放进同一窗口，减少 RPC 次数。
func queryWindows(gaps []slotRange) []slotRange {
	if len(gaps) == 0 {
		return nil
	}
	sorted := slices.Clone(gaps)
	slices.SortFunc(sorted, func(a, b slotRange) int { return cmp.Compare(a.From, b.From) })

	var windows []slotRange
	cur := sorted[0]
	for _, g := range sorted[1:] {
		if g.From <= cur.To+1 || max(cur.To, g.To)-cur.From < maxWindowSlots {
			cur.To = max(cur.To, g.To)
			continue
		}
		windows = appendChunked(windows, cur)
		cur = g
	}
	return appendChunked(windows, cur)
}

func appendChunked(windows []slotRange, r slotRange) []slotRange {
	for r.To-r.From >= maxWindowSlots {
		windows = append(windows, slotRange{From: r.From, To: r.From + maxWindowSlots - 1})
		r.From += maxWindowSlots
	}
	return append(windows, r)
}

// countMissing 落在断档内的出块 slot 数
func countMissing(gaps []slotRange, produced []uint64) int {
	missing := 0
	for _, slot := range produced {
		if slices.ContainsFunc(gaps, func(g slotRange) bool { return g.contains(slot) }) {
			logger.Errorf("[SlotChecker] slot %d 已出块但未从流中收到，疑似漏块", slot)
			missing++
		}
	}
	return missing
}
