package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "meteora"
	subsystem = "indexer"
)

// 指令处理结果
const (
	OutcomeOK             = "ok"
	OutcomeDecodeFailure  = "decode_failure"
	OutcomeMissingAccount = "missing_account"
	OutcomeInvalidFlow    = "invalid_flow"
	OutcomePoolNotFound   = "pool_not_found"
	OutcomeInvalidParams  = "invalid_params"
	OutcomePanic          = "panic"
	OutcomeFatal          = "fatal"
)

// Metrics 处理链路指标。nil 接收者上的方法均为空操作。
type Metrics struct {
	instructions  *prometheus.CounterVec
	flushRows     *prometheus.CounterVec
	flushDuration prometheus.Histogram
	flushErrors   prometheus.Counter
	blocks        prometheus.Counter
	lastSlot      prometheus.Gauge
	published     *prometheus.CounterVec
	skippedBlocks prometheus.Counter
	missingSlots  prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		instructions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "instructions_total",
			Help:      "Processed Meteora instructions by program, kind and outcome.",
		}, []string{"program", "kind", "outcome"}),
		flushRows: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "flushed_rows_total",
			Help:      "Rows written to the durable store by table.",
		}, []string{"table"}),
		flushDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "flush_duration_seconds",
			Help:      "Duration of unit-of-work flushes.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		flushErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "flush_errors_total",
			Help:      "Failed unit-of-work flushes.",
		}),
		blocks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "blocks_total",
			Help:      "Blocks processed.",
		}),
		lastSlot: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "last_flushed_slot",
			Help:      "Highest slot whose batch was flushed.",
		}),
		published: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "published_messages_total",
			Help:      "Kafka messages published by topic kind.",
		}, []string{"kind"}),
		skippedBlocks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "skipped_blocks_total",
			Help:      "Replayed blocks skipped because their slot was already processed.",
		}),
		missingSlots: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "missing_slots_total",
			Help:      "Slots that produced a block on chain but never arrived on the stream.",
		}),
	}
}

func (m *Metrics) ObserveInstruction(program, kind, outcome string) {
	if m == nil {
		return
	}
	m.instructions.WithLabelValues(program, kind, outcome).Inc()
}

func (m *Metrics) ObserveFlush(d time.Duration, rowsByTable map[string]int, err error) {
	if m == nil {
		return
	}
	m.flushDuration.Observe(d.Seconds())
	if err != nil {
		m.flushErrors.Inc()
		return
	}
	for table, n := range rowsByTable {
		m.flushRows.WithLabelValues(table).Add(float64(n))
	}
}

func (m *Metrics) ObserveBlocks(n int, lastSlot uint64) {
	if m == nil {
		return
	}
	m.blocks.Add(float64(n))
	m.lastSlot.Set(float64(lastSlot))
}

func (m *Metrics) ObservePublished(kind string, n int) {
	if m == nil {
		return
	}
	m.published.WithLabelValues(kind).Add(float64(n))
}

func (m *Metrics) ObserveSkippedBlock() {
	if m == nil {
		return
	}
	m.skippedBlocks.Inc()
}

func (m *Metrics) ObserveMissingSlots(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.missingSlots.Add(float64(n))
}
