package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"meteora-indexer-sol/internal/config"
	"meteora-indexer-sol/internal/logic/grpc"
	"meteora-indexer-sol/internal/logic/progress"
	"meteora-indexer-sol/internal/pkg/logger"
	"meteora-indexer-sol/internal/server"
	"meteora-indexer-sol/internal/svc"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/logx"
	zerosvc "github.com/zeromicro/go-zero/core/service"
)

var configFile = flag.String("f", "etc/indexer.yaml", "the config file")

func main() {
	exitCode := 0
	defer func() {
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			logx.Errorf("panic: %+v\nstack: %s", r, debug.Stack())
		}
	}()

	flag.Parse()

	var c config.IndexerConfig
	conf.MustLoad(*configFile, &c)

	if err := logger.Init(c.Logger.ToLogOption()); err != nil {
		logx.Must(err)
	}
	defer logger.Sync()

	initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	sc, err := svc.NewServiceContext(initCtx, c)
	cancel()
	logx.Must(err)
	defer sc.Close()

	sg := zerosvc.NewServiceGroup()
	defer sg.Stop()

	// 运维接口
	checkers := map[string]server.Checker{}
	if sc.Pool != nil {
		checkers["postgres"] = sc.Pool.Ping
	}
	if sc.Redis != nil {
		checkers["redis"] = func(ctx context.Context) error { return sc.Redis.Ping(ctx).Err() }
	}
	sg.Add(server.New(c.Metrics.ListenAddr, sc.Registry, checkers))

	// 进度落库与清理
	sg.Add(progress.NewService(sc.ProgressManager,
		time.Duration(c.Progress.FlushIntervalSec)*time.Second,
		time.Duration(c.Progress.GCIntervalSec)*time.Second))

	// 漏块检测（可选）
	var gaps grpc.GapReporter
	if c.Grpc.RpcEndpoint != "" {
		checker := grpc.NewSlotChecker(c.Grpc.RpcEndpoint, sc.Metrics)
		sg.Add(checker)
		gaps = checker
	}

	blockChan := make(chan *pb.SubscribeUpdateBlock, c.Batch.BlockChanSize)
	processor := grpc.NewBlockProcessor(c.Batch, sc.Runner, sc.ProgressManager, gaps, sc.Metrics, blockChan)
	sg.Add(processor)

	stream, err := grpc.NewGrpcStreamManager(c.Grpc, blockChan)
	logx.Must(err)
	sg.Add(stream)

	logger.Infof("Starting meteora indexer")
	go sg.Start()

	// 等待退出信号
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		logger.Infof("Shutting down services...")
	case err := <-processor.Fatal():
		// 落库持续失败，继续处理后续区块会让储备错乱
		logger.Errorf("Block processor halted, shutting down: %v", err)
		exitCode = 1
	}
}
