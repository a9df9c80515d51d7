package mq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"meteora-indexer-sol/internal/model"
	"meteora-indexer-sol/internal/pkg/logger"
	"meteora-indexer-sol/internal/pkg/utils"
	"meteora-indexer-sol/internal/store"
	"meteora-indexer-sol/internal/types"
)

// 消息类别，用于 topic 选择与指标标签
const (
	KindSwap      = "swap"
	KindLiquidity = "liquidity"
	KindFee       = "fee"
)

// ErrPublish 有消息发送失败
var ErrPublish = errors.New("kafka publish failed")

// Topic 一个 topic 及其分区数
type Topic struct {
	Name       string
	Partitions int
}

// Publisher 将 flush 成功的事件实体（swap / 流动性变更 / 手续费）发布到 Kafka
type Publisher struct {
	producer Producer
	topics   map[string]Topic
	timeout  time.Duration
}

func NewPublisher(producer Producer, swap, liquidity, fee Topic, perMessageTimeout time.Duration) *Publisher {
	if perMessageTimeout <= 0 {
		perMessageTimeout = 5 * time.Second
	}
	return &Publisher{
		producer: producer,
		topics: map[string]Topic{
			KindSwap:      swap,
			KindLiquidity: liquidity,
			KindFee:       fee,
		},
		timeout: perMessageTimeout,
	}
}

// KindOf 事件表对应的消息类别，非事件表返回空串
func KindOf(table model.Table) string {
	switch table {
	case model.TableDammSwap, model.TableDlmmSwap:
		return KindSwap
	case model.TableDammLiquidityChange, model.TableDlmmLiquidityChange:
		return KindLiquidity
	case model.TableDammFee, model.TableDlmmFee:
		return KindFee
	}
	return ""
}

// partitionOf 按池子地址分区，保证同一池子的事件有序
func partitionOf(pool string, partitions int) int32 {
	if partitions <= 1 {
		return 0
	}
	pk, err := types.TryPubkeyFromBase58(pool)
	if err != nil {
		return 0
	}
	return int32(utils.PartitionHashBytes(pk[:], uint32(partitions)))
}

// BuildJobs 将批次中的事件实体编码为 Kafka 消息；编码失败的实体记录日志后跳过
func (p *Publisher) BuildJobs(batches []store.TableBatch) map[string][]*KafkaJob {
	jobs := make(map[string][]*KafkaJob, len(p.topics))
	for _, b := range batches {
		kind := KindOf(b.Table)
		topic, ok := p.topics[kind]
		if !ok || topic.Name == "" {
			continue
		}
		for _, row := range b.Rows {
			data, pool, err := EncodeEntity(row)
			if err != nil {
				logger.Errorf("[mq:BuildJobs] encode %s %s failed: %v", b.Table, row.EntityID(), err)
				continue
			}
			jobs[kind] = append(jobs[kind], &KafkaJob{
				Topic:     topic.Name,
				Partition: partitionOf(pool, topic.Partitions),
				Key:       []byte(row.EntityID()),
				Value:     data,
			})
		}
	}
	return jobs
}

// Publish 发送全部事件并等待 ack，返回每类的成功条数
func (p *Publisher) Publish(ctx context.Context, batches []store.TableBatch) (map[string]int, error) {
	if p == nil || p.producer == nil {
		return nil, nil
	}
	sent := make(map[string]int, len(p.topics))

	var failedTotal int
	var firstErr error
	for kind, jobs := range p.BuildJobs(batches) {
		ok, failed := SendKafkaJobs(ctx, p.producer, jobs, p.timeout)
		sent[kind] = len(ok)
		if len(failed) > 0 {
			failedTotal += len(failed)
			if firstErr == nil {
				firstErr = failed[0].Err
			}
		}
	}
	if failedTotal > 0 {
		return sent, fmt.Errorf("%w: %d messages, first error: %w", ErrPublish, failedTotal, firstErr)
	}
	return sent, nil
}
