package grpc

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"meteora-indexer-sol/internal/config"
	"meteora-indexer-sol/internal/consts"
	"meteora-indexer-sol/internal/pkg/logger"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"
)

type GrpcStreamManager struct {
	mu                  sync.Mutex                    // 保护连接状态
	conn                *grpc.ClientConn              // gRPC 连接对象
	client              pb.GeyserClient               // gRPC 客户端
	stream              pb.Geyser_SubscribeClient     // gRPC 订阅流
	stopped             bool                          // 是否已经停止
	reconnectAttempts   int                           // 已重连次数
	reconnectInterval   time.Duration                 // 重连基础间隔
	xToken              string                        // 认证用的 x-token
	streamPingInterval  time.Duration                 // Stream 心跳包发送间隔
	blockChan           chan *pb.SubscribeUpdateBlock // 区块数据通道
	connCtx             context.Context               // 当前连接的 context
	connCancel          context.CancelFunc            // 当前连接的 cancel 函数
	blockRecvTimeout    time.Duration                 // 超过该时间未收到 block 触发重连
	sendTimeout         time.Duration                 // gRPC 发送超时
	subscribeAccountIDs []string                      // 订阅过滤的账户
}

func NewGrpcStreamManager(grpcConf config.GrpcConfig, blockChan chan *pb.SubscribeUpdateBlock) (*GrpcStreamManager, error) {
	configTls := &tls.Config{
		InsecureSkipVerify: true,
	}

	dialCtx, cancel := context.WithTimeout(context.Background(), time.Duration(grpcConf.ConnectTimeoutSec)*time.Second)
	defer cancel()

	conn, err := grpc.DialContext(
		dialCtx,
		grpcConf.Endpoint,
		grpc.WithTransportCredentials(credentials.NewTLS(configTls)),
		grpc.WithInitialWindowSize(int32(grpcConf.InitialWindowSize)),
		grpc.WithInitialConnWindowSize(int32(grpcConf.InitialConnWindowSize)),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallSendMsgSize(grpcConf.MaxCallSendMsgSize),
			grpc.MaxCallRecvMsgSize(grpcConf.MaxCallRecvMsgSize),
		),
		grpc.WithBlock(),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                time.Duration(grpcConf.KeepalivePingIntervalSec) * time.Second,
			Timeout:             time.Duration(grpcConf.KeepalivePingTimeoutSec) * time.Second,
			PermitWithoutStream: true,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect %s: %w", grpcConf.Endpoint, err)
	}

	return &GrpcStreamManager{
		conn:                conn,
		client:              pb.NewGeyserClient(conn),
		reconnectInterval:   time.Duration(grpcConf.ReconnectIntervalSec) * time.Second,
		xToken:              grpcConf.XToken,
		streamPingInterval:  time.Duration(grpcConf.StreamPingIntervalSec) * time.Second,
		blockChan:           blockChan,
		blockRecvTimeout:    time.Duration(grpcConf.BlockRecvTimeoutSec) * time.Second,
		sendTimeout:         time.Duration(grpcConf.SendTimeoutSec) * time.Second,
		subscribeAccountIDs: consts.GrpcAccountInclude,
	}, nil
}

func (m *GrpcStreamManager) Start() {
	m.mustConnect()
}

func (m *GrpcStreamManager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopped = true
	if m.connCancel != nil {
		m.connCancel()
		m.connCancel = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
	}
}

// 内部循环直到连接成功
func (m *GrpcStreamManager) mustConnect() {
	for {
		m.mu.Lock()
		if m.stopped {
			m.mu.Unlock()
			return
		}
		m.mu.Unlock()

		if m.reconnectAttempts > 0 {
			if m.reconnectAttempts > 3 {
				time.Sleep(m.reconnectInterval * 2)
			} else {
				time.Sleep(m.reconnectInterval)
			}
		}
		logger.Infof("[GrpcStream] connecting, attempt %d", m.reconnectAttempts+1)
		m.reconnectAttempts++
		err := m.connect()
		if err == nil {
			return
		}
		logger.Warnf("[GrpcStream] connect failed: %v, will retry", err)
	}
}

func buildSubscribeRequest(accountInclude []string) *pb.SubscribeRequest {
	blocks := make(map[string]*pb.SubscribeRequestFilterBlocks)
	blocks["blocks"] = &pb.SubscribeRequestFilterBlocks{
		AccountInclude:      accountInclude,
		IncludeTransactions: boolPtr(true),
		IncludeAccounts:     boolPtr(false), // 不需要单独的 AccountUpdate
		IncludeEntries:      boolPtr(false),
	}
	commitment := pb.CommitmentLevel_CONFIRMED
	return &pb.SubscribeRequest{
		Blocks:     blocks,
		Commitment: &commitment,
	}
}

// connect 只尝试一次连接
func (m *GrpcStreamManager) connect() error {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return errors.New("manager is stopped")
	}
	defer m.mu.Unlock()

	// 先关闭旧的 context，让旧 goroutine 退出
	if m.connCancel != nil {
		m.connCancel()
		m.connCancel = nil
	}
	m.connCtx, m.connCancel = context.WithCancel(context.Background())

	metaCtx := metadata.NewOutgoingContext(
		m.connCtx,
		metadata.New(map[string]string{"x-token": m.xToken}),
	)
	stream, err := m.client.Subscribe(metaCtx)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	req := buildSubscribeRequest(m.subscribeAccountIDs)
	if err := sendWithTimeout(m.connCtx, stream.Send, req, m.sendTimeout); err != nil {
		return fmt.Errorf("send subscribe request: %w", err)
	}

	m.stream = stream
	m.reconnectAttempts = 0
	logger.Infof("[GrpcStream] connection established")

	go m.pingLoop(m.connCtx, stream)
	go m.blockRecvLoop(m.connCtx, stream)

	return nil
}

func (m *GrpcStreamManager) blockRecvLoop(ctx context.Context, stream pb.Geyser_SubscribeClient) {
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		update, err := stream.Recv()
		now := time.Now()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, io.EOF) {
				logger.Warnf("[GrpcStream] stream closed by server (EOF), will reconnect")
				m.reconnect()
				return
			}
			logger.Warnf("[GrpcStream] stream error: %v", err)
			if m.reconnectIfBlockTimeout(last) {
				return
			}
			time.Sleep(100 * time.Millisecond)
			continue
		}

		if u, ok := update.GetUpdateOneof().(*pb.SubscribeUpdate_Block); ok {
			block := u.Block
			if block.BlockTime != nil {
				logger.Debugf("[GrpcStream] received block slot=%d, latency=%dms",
					block.Slot, now.UnixMilli()-block.BlockTime.Timestamp*1000)
			}
			// 阻塞写入：处理跟不上时反压到 gRPC 流，而不是丢块
			select {
			case m.blockChan <- block:
			case <-ctx.Done():
				return
			}
			last = time.Now()
		}

		if m.reconnectIfBlockTimeout(last) {
			return
		}
	}
}

// 带超时的 Send
func sendWithTimeout[T any](ctx context.Context, sendFunc func(T) error, req T, timeout time.Duration) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- sendFunc(req)
	}()

	select {
	case <-timeoutCtx.Done():
		return timeoutCtx.Err()
	case err := <-done:
		return err
	}
}

// 心跳
func (m *GrpcStreamManager) pingLoop(ctx context.Context, stream pb.Geyser_SubscribeClient) {
	ticker := time.NewTicker(m.streamPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingReq := &pb.SubscribeRequest{
				Ping: &pb.SubscribeRequestPing{Id: 1},
			}
			if err := sendWithTimeout(ctx, stream.Send, pingReq, m.sendTimeout); err != nil {
				// 只记录，重连由 recv 侧决定
				logger.Warnf("[GrpcStream] ping failed: %v", err)
			}
		}
	}
}

func (m *GrpcStreamManager) reconnectIfBlockTimeout(last time.Time) bool {
	if time.Since(last) > m.blockRecvTimeout {
		logger.Warnf("[GrpcStream] %v 未收到 block，触发重连", m.blockRecvTimeout)
		m.reconnect()
		return true
	}
	return false
}

func (m *GrpcStreamManager) reconnect() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	if m.connCancel != nil {
		m.connCancel()
		m.connCancel = nil
	}
	m.mu.Unlock()

	go m.mustConnect()
}

func boolPtr(b bool) *bool {
	return &b
}
