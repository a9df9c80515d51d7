package common

import (
	"context"

	"meteora-indexer-sol/internal/logic/core"
	"meteora-indexer-sol/internal/metrics"
	"meteora-indexer-sol/internal/service"
	"meteora-indexer-sol/internal/types"
)

// Processor 单个 Meteora 程序的指令处理器
type Processor interface {
	ProgramID() types.Pubkey
	ProcessInstruction(ctx context.Context, ix *core.Instruction) error
}

// Context 批次内共享的处理上下文，处理器通过它访问实体服务与 swap 序号
type Context struct {
	Services *service.Services
	Swaps    *SwapIndexer
	Metrics  *metrics.Metrics
}

func NewContext(services *service.Services, m *metrics.Metrics) *Context {
	return &Context{
		Services: services,
		Swaps:    &SwapIndexer{},
		Metrics:  m,
	}
}

// SwapIndexer 为同一交易内的 swap 分配从 0 开始的递增序号
type SwapIndexer struct {
	txID string
	next int
}

// Next 返回 txID 的下一个序号；交易切换时从 0 重新计数
func (s *SwapIndexer) Next(txID string) int {
	if s.txID != txID {
		s.txID = txID
		s.next = 0
	}
	n := s.next
	s.next++
	return n
}

// Reset 每次运行开始时调用
func (s *SwapIndexer) Reset() {
	s.txID = ""
	s.next = 0
}
