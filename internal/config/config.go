package config

import (
	"strings"
	"time"

	"meteora-indexer-sol/internal/mq"
	"meteora-indexer-sol/internal/pkg/logger"
	pkgmq "meteora-indexer-sol/internal/pkg/mq"
)

// 配置由 go-zero conf 加载，字段映射走 json tag（yaml 文件同样适用）

type LogConfig struct {
	Format   string `json:"format,default=console,options=console|json"` // 日志格式
	LogDir   string `json:"log_dir,optional"`                            // 日志目录，为空只输出 stdout
	Level    string `json:"level,default=info"`                          // debug / info / warn / error
	Compress bool   `json:"compress,optional"`                           // 是否压缩旧日志文件
}

func (c *LogConfig) ToLogOption() logger.LogOption {
	return logger.LogOption{
		Format:   c.Format,
		LogDir:   c.LogDir,
		Level:    c.Level,
		Compress: c.Compress,
	}
}

type KafkaTopics struct {
	Swap      string `json:"swap,optional"`
	Liquidity string `json:"liquidity,optional"`
	Fee       string `json:"fee,optional"`
}

// KafkaProducerConfig Kafka 生产者配置。Brokers 为空时不发布事件
type KafkaProducerConfig struct {
	Brokers    string      `json:"brokers,optional"`     // 多个用英文逗号分隔
	BatchSize  int         `json:"batch_size,default=32768"`
	LingerMs   int         `json:"linger_ms,default=5"`
	TimeoutMs  int         `json:"timeout_ms,default=3000"` // 单条消息等待 ack 的超时
	Topics     KafkaTopics `json:"topics,optional"`
	Partitions int         `json:"partitions,default=8"` // 所有 topic 统一分区数
}

func (c *KafkaProducerConfig) Enabled() bool {
	return strings.TrimSpace(c.Brokers) != ""
}

func (c *KafkaProducerConfig) ToKafkaOption() pkgmq.KafkaProducerOption {
	opt := pkgmq.KafkaProducerOption{
		Brokers:   c.Brokers,
		BatchSize: c.BatchSize,
		LingerMs:  c.LingerMs,
	}
	for _, name := range []string{c.Topics.Swap, c.Topics.Liquidity, c.Topics.Fee} {
		if name == "" {
			continue
		}
		opt.Topics = append(opt.Topics, pkgmq.TopicOption{Topic: name, Partitions: c.Partitions})
	}
	return opt
}

// PublisherTopics 按事件类别返回 topic
func (c *KafkaProducerConfig) PublisherTopics() (swap, liquidity, fee mq.Topic) {
	swap = mq.Topic{Name: c.Topics.Swap, Partitions: c.Partitions}
	liquidity = mq.Topic{Name: c.Topics.Liquidity, Partitions: c.Partitions}
	fee = mq.Topic{Name: c.Topics.Fee, Partitions: c.Partitions}
	return
}

func (c *KafkaProducerConfig) MessageTimeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

type BatchConfig struct {
	BlocksPerFlush   int `json:"blocks_per_flush,default=1"`
	FlushIntervalMs  int `json:"flush_interval_ms,default=1000"` // 未攒满时最长等待
	AdaptWorkers     int `json:"adapt_workers,optional"`         // 0 表示 CPU 数 + 2
	MaxCachedEntries int `json:"max_cached_entries,default=200000"`
	BlockChanSize    int `json:"block_chan_size,default=200"`
}

type MetricsConfig struct {
	ListenAddr string `json:"listen_addr,default=:9100"`
}

type ProgressConfig struct {
	RecentThresholdSec int `json:"recent_threshold_sec,default=60"` // 判定为“近期 block”的时间阈值
	FlushIntervalSec   int `json:"flush_interval_sec,default=5"`
	GCIntervalSec      int `json:"gc_interval_sec,default=3600"`
}

// GrpcConfig gRPC 客户端连接相关配置
type GrpcConfig struct {
	Endpoint    string `json:"endpoint"`
	XToken      string `json:"x_token,optional"`
	RpcEndpoint string `json:"rpc_endpoint,optional"` // 漏块检测用的 JSON-RPC 地址，为空不检测

	// 应用级逻辑心跳（ping）
	StreamPingIntervalSec int `json:"stream_ping_interval_sec,default=10"`

	// 底层 keepalive
	KeepalivePingIntervalSec int `json:"keepalive_ping_interval_sec,default=15"`
	KeepalivePingTimeoutSec  int `json:"keepalive_ping_timeout_sec,default=5"`

	// 窗口大小调优（用于大数据流推送）
	InitialWindowSize     int `json:"initial_window_size,default=1073741824"`
	InitialConnWindowSize int `json:"initial_conn_window_size,default=1073741824"`

	// 消息体大小限制
	MaxCallSendMsgSize int `json:"max_call_send_msg_size,default=67108864"`
	MaxCallRecvMsgSize int `json:"max_call_recv_msg_size,default=67108864"`

	// 超时与重连
	ReconnectIntervalSec int `json:"reconnect_interval_sec,default=3"`
	ConnectTimeoutSec    int `json:"connect_timeout_sec,default=10"`
	SendTimeoutSec       int `json:"send_timeout_sec,default=5"`
	BlockRecvTimeoutSec  int `json:"block_recv_timeout_sec,default=30"` // 超时未收到 block 触发重连
}

// IndexerConfig 索引器主配置
type IndexerConfig struct {
	Logger        LogConfig           `json:"logger"`
	PostgresDSN   string              `json:"postgres_dsn,optional"` // 为空时使用内存存储
	RedisAddr     string              `json:"redis_addr,optional"`   // 为空时不做 slot 判重缓存
	KafkaProducer KafkaProducerConfig `json:"kafka_producer,optional"`
	Grpc          GrpcConfig          `json:"grpc"`
	Batch         BatchConfig         `json:"batch,optional"`
	Metrics       MetricsConfig       `json:"metrics,optional"`
	Progress      ProgressConfig      `json:"progress,optional"`
}
