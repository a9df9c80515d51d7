package grpc

import (
	"context"
	"errors"
	"testing"
	"time"

	"meteora-indexer-sol/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryWindows(t *testing.T) {
	assert.Nil(t, queryWindows(nil))

	windows := queryWindows([]slotRange{
		{From: 20, To: 25},
		{From: 1, To: 5},
		{From: 6, To: 10},
	})
	assert.Equal(t, []slotRange{{From: 1, To: 25}}, windows)

	// 被包含的断档不缩小窗口
	windows = queryWindows([]slotRange{{From: 1, To: 100}, {From: 5, To: 10}})
	assert.Equal(t, []slotRange{{From: 1, To: 100}}, windows)

	// 超过单次查询上限时拆段
	windows = queryWindows([]slotRange{{From: 1, To: 25_000}})
	assert.Equal(t, []slotRange{
		{From: 1, To: 10_000},
		{From: 10_001, To: 20_000},
		{From: 20_001, To: 25_000},
	}, windows)

	// 相距太远的断档各自查询
	windows = queryWindows([]slotRange{{From: 30_000, To: 30_002}, {From: 1, To: 2}})
	assert.Equal(t, []slotRange{{From: 1, To: 2}, {From: 30_000, To: 30_002}}, windows)
}

func TestCountMissing(t *testing.T) {
	gaps := []slotRange{{From: 10, To: 12}, {From: 20, To: 20}}
	// 15 在窗口内但不在断档内，是流中正常收到的块
	assert.Equal(t, 3, countMissing(gaps, []uint64{10, 12, 15, 20}))
	assert.Equal(t, 0, countMissing(gaps, nil))
}

func TestSplitDue(t *testing.T) {
	now := time.Now()
	queued := []queuedGap{
		{slotRange: slotRange{From: 1, To: 2}, at: now.Add(-time.Minute)},
		{slotRange: slotRange{From: 5, To: 6}, at: now},
	}
	due, rest := splitDue(queued, now.Add(-gapVerifyDelay))
	assert.Equal(t, []slotRange{{From: 1, To: 2}}, due)
	require.Len(t, rest, 1)
	assert.Equal(t, uint64(5), rest[0].From)
}

func TestSlotChecker_CountsMissingSlots(t *testing.T) {
	old := getBlocksRetryDelay
	getBlocksRetryDelay = time.Millisecond
	defer func() { getBlocksRetryDelay = old }()

	reg := prometheus.NewRegistry()
	calls := 0
	// 100-104 中 101、103 实际出块：它们没有从流里收到，即漏块
	s := newSlotChecker(func(_ context.Context, from, to uint64) ([]uint64, error) {
		calls++
		if to >= 50_000 {
			return nil, errors.New("rpc unavailable")
		}
		return []uint64{101, 103}, nil
	}, metrics.New(reg))
	defer s.Stop()

	s.verify([]slotRange{{From: 100, To: 104}, {From: 50_000, To: 50_001}})
	assert.Equal(t, 1+getBlocksRetries, calls)

	families, err := reg.Gather()
	require.NoError(t, err)
	var missing float64
	for _, mf := range families {
		if mf.GetName() == "meteora_indexer_missing_slots_total" {
			missing = mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	assert.Equal(t, 2.0, missing, "查询失败的窗口不计入")
}

func TestSlotChecker_SubmitRejectsInvalidRange(t *testing.T) {
	s := newSlotChecker(nil, nil)
	defer s.Stop()
	s.Submit(5, 3)
	s.Submit(3, 5)
	assert.Len(t, s.gapCh, 1)
}
