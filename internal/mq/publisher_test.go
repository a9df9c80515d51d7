package mq

import (
	"context"
	"math/big"
	"testing"
	"time"

	"meteora-indexer-sol/internal/model"
	"meteora-indexer-sol/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPool = "LBUZKhRxPF3XUpBCjp4YzTKgLccjZhTSDM9YuVaPwxo"

func sampleBatches() []store.TableBatch {
	ts := time.Unix(1_700_000_000, 0).UTC()
	impact := int32(25)
	return []store.TableBatch{
		{Table: model.TableBasePool, Rows: []model.Entity{&model.BasePool{ID: testPool}}},
		{Table: model.TableDlmmSwap, Rows: []model.Entity{&model.DlmmSwap{
			ID: "sig-0", PoolID: testPool, UserAddress: "user", TokenInMint: "mx", TokenOutMint: "my",
			AmountIn: big.NewInt(100), AmountOut: big.NewInt(95), PriceImpactBps: &impact, Timestamp: ts,
		}}},
		{Table: model.TableDammLiquidityChange, Rows: []model.Entity{&model.DammLiquidityChange{
			ID: "c1", PoolID: testPool, PositionID: "p1", Type: model.ChangeAdd,
			TokenXAmount: big.NewInt(1), TokenYAmount: big.NewInt(2), LpTokenAmount: big.NewInt(3), Timestamp: ts,
		}}},
		{Table: model.TableDlmmFee, Rows: []model.Entity{&model.DlmmFee{
			ID: "f1", PoolID: testPool, Position: "pos", Type: model.FeeOut,
			AmountX: big.NewInt(7), AmountY: big.NewInt(0), Timestamp: ts,
		}}},
	}
}

func TestEncodeEntity(t *testing.T) {
	impact := int32(-3)
	swap := &model.DlmmSwap{
		ID: "sig-1", PoolID: testPool, AmountIn: big.NewInt(10), PriceImpactBps: &impact,
		AmountOut: new(big.Int).Lsh(big.NewInt(1), 100), Timestamp: time.Unix(42, 0),
	}
	data, pool, err := EncodeEntity(swap)
	require.NoError(t, err)
	assert.Equal(t, testPool, pool)

	eventType, msg, err := DecodeEvent(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(model.TableDlmmSwap), eventType)
	fields := msg.AsMap()
	assert.Equal(t, "1267650600228229401496703205376", fields["amountOut"])
	assert.Equal(t, float64(-3), fields["priceImpactBps"])
	assert.Equal(t, float64(42), fields["timestamp"])

	_, _, err = EncodeEntity(&model.BasePool{ID: "x"})
	assert.Error(t, err)

	_, _, err = DecodeEvent([]byte{1})
	assert.Error(t, err)
}

func TestPublisher_Publish(t *testing.T) {
	producer := &fakeProducer{}
	p := NewPublisher(producer,
		Topic{Name: "swaps", Partitions: 4},
		Topic{Name: "liquidity", Partitions: 1},
		Topic{Name: "fees", Partitions: 2},
		time.Second)

	sent, err := p.Publish(context.Background(), sampleBatches())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{KindSwap: 1, KindLiquidity: 1, KindFee: 1}, sent)

	topics := map[string]int{}
	for _, msg := range producer.sent() {
		topics[*msg.TopicPartition.Topic]++
		if *msg.TopicPartition.Topic == "swaps" {
			assert.Equal(t, []byte("sig-0"), msg.Key)
			assert.Less(t, msg.TopicPartition.Partition, int32(4))
		}
	}
	assert.Equal(t, map[string]int{"swaps": 1, "liquidity": 1, "fees": 1}, topics)
}

func TestPublisher_Failures(t *testing.T) {
	p := NewPublisher(&fakeProducer{silent: true},
		Topic{Name: "swaps"}, Topic{}, Topic{}, 20*time.Millisecond)

	sent, err := p.Publish(context.Background(), sampleBatches())
	assert.ErrorIs(t, err, ErrPublish)
	assert.Equal(t, 0, sent[KindSwap])

	// 未配置 topic 的类别不发送
	jobs := p.BuildJobs(sampleBatches())
	assert.Len(t, jobs, 1)

	var nilPublisher *Publisher
	_, err = nilPublisher.Publish(context.Background(), sampleBatches())
	assert.NoError(t, err)
}

func TestPartitionOf(t *testing.T) {
	assert.Equal(t, int32(0), partitionOf(testPool, 1))
	assert.Equal(t, int32(0), partitionOf("not-base58!", 8))
	a := partitionOf(testPool, 8)
	assert.Equal(t, a, partitionOf(testPool, 8), "同一池子分区稳定")
	assert.Less(t, a, int32(8))
}
