package svc

import (
	"context"
	"fmt"

	"meteora-indexer-sol/internal/config"
	"meteora-indexer-sol/internal/logic/indexer"
	"meteora-indexer-sol/internal/logic/progress"
	"meteora-indexer-sol/internal/metrics"
	"meteora-indexer-sol/internal/mq"
	"meteora-indexer-sol/internal/pkg/logger"
	pkgmq "meteora-indexer-sol/internal/pkg/mq"
	"meteora-indexer-sol/internal/store"
	"meteora-indexer-sol/internal/store/postgres"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

// ServiceContext 索引器运行所需的全部资源
type ServiceContext struct {
	Config          config.IndexerConfig
	Registry        *prometheus.Registry
	Metrics         *metrics.Metrics
	Pool            *postgres.Pool   // 未配置 postgres_dsn 时为 nil
	Redis           *redis.Client    // 未配置 redis_addr 时为 nil
	Producer        *kafka.Producer  // 未配置 brokers 时为 nil
	ProgressManager *progress.ProgressManager
	Runner          *indexer.Runner
}

// NewServiceContext 按配置依次初始化存储、进度、发布与批次执行器
func NewServiceContext(ctx context.Context, c config.IndexerConfig) (*ServiceContext, error) {
	sc := &ServiceContext{
		Config:   c,
		Registry: prometheus.NewRegistry(),
	}
	sc.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	sc.Metrics = metrics.New(sc.Registry)

	// 1. 持久层
	var durable store.DurableStore
	if c.PostgresDSN != "" {
		pool, err := postgres.NewPool(ctx, c.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("init postgres: %w", err)
		}
		sc.Pool = pool
		durable = postgres.NewEntityStore(pool)
	} else {
		logger.Warnf("[ServiceContext] postgres_dsn 未配置，使用内存存储，重启后数据丢失")
		durable = store.NewMemoryStore()
	}

	// 2. 进度管理（Redis + DB + 缓冲）
	var cache progress.StatusCache
	if c.RedisAddr != "" {
		sc.Redis = redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		if err := sc.Redis.Ping(ctx).Err(); err != nil {
			sc.Close()
			return nil, fmt.Errorf("init redis: %w", err)
		}
		cache = progress.NewRedisProgressStore(sc.Redis)
	}
	var slots progress.SlotStore
	if sc.Pool != nil {
		slots = progress.NewDBProgressStore(sc.Pool.Pool)
	}
	sc.ProgressManager = progress.NewProgressManager(cache, slots, c.Progress.RecentThresholdSec)

	// 3. Kafka 发布
	opts := []indexer.Option{
		indexer.WithProgress(sc.ProgressManager, progress.SourceGrpc),
		indexer.WithMetrics(sc.Metrics),
	}
	if c.KafkaProducer.Enabled() {
		producer, err := pkgmq.NewKafkaProducer(c.KafkaProducer.ToKafkaOption())
		if err != nil {
			sc.Close()
			return nil, fmt.Errorf("init kafka producer: %w", err)
		}
		sc.Producer = producer
		swap, liquidity, fee := c.KafkaProducer.PublisherTopics()
		publisher := mq.NewPublisher(producer, swap, liquidity, fee, c.KafkaProducer.MessageTimeout())
		opts = append(opts, indexer.WithPublisher(publisher))
	}

	// 4. 批次执行器
	sc.Runner = indexer.NewRunner(durable, opts...)
	sc.Runner.UnitOfWork().SetMaxCached(c.Batch.MaxCachedEntries)

	logger.Infof("[ServiceContext] 初始化完成: postgres=%v, redis=%v, kafka=%v",
		sc.Pool != nil, sc.Redis != nil, sc.Producer != nil)
	return sc, nil
}

// Close 关闭服务上下文中的资源
func (sc *ServiceContext) Close() {
	if sc.Producer != nil {
		sc.Producer.Flush(3000)
		sc.Producer.Close()
	}
	if sc.Redis != nil {
		_ = sc.Redis.Close()
	}
	if sc.Pool != nil {
		sc.Pool.Close()
	}
}
