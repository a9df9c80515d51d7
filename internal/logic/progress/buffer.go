package progress

import (
	"sync"
)

// slotBuffer 缓冲待批量写入 DB 的 slot 记录
type slotBuffer struct {
	mu     sync.Mutex
	buffer []*SlotRecord
}

func newSlotBuffer() *slotBuffer {
	return &slotBuffer{}
}

func (b *slotBuffer) Add(record *SlotRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buffer = append(b.buffer, record)
}

// Flush 取出全部记录并清空缓冲
func (b *slotBuffer) Flush() []*SlotRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	flushed := b.buffer
	b.buffer = nil
	return flushed
}

// Requeue 写库失败时放回缓冲，下次 flush 重试
func (b *slotBuffer) Requeue(records []*SlotRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buffer = append(records, b.buffer...)
}

func (b *slotBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buffer)
}
