package progress

import (
	"context"
	"time"

	"meteora-indexer-sol/internal/pkg/logger"
)

// Service 进度后台任务：定时把缓冲落库，定期清理旧记录。实现 go-zero service.Service
type Service struct {
	pm            *ProgressManager
	flushInterval time.Duration
	gcInterval    time.Duration
	ctx           context.Context
	cancel        context.CancelFunc
	done          chan struct{}
}

func NewService(pm *ProgressManager, flushInterval, gcInterval time.Duration) *Service {
	if flushInterval <= 0 {
		flushInterval = 5 * time.Second
	}
	if gcInterval <= 0 {
		gcInterval = time.Hour
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		pm:            pm,
		flushInterval: flushInterval,
		gcInterval:    gcInterval,
		ctx:           ctx,
		cancel:        cancel,
		done:          make(chan struct{}),
	}
}

func (s *Service) Start() {
	defer close(s.done)

	if last, err := s.pm.LastProcessedSlot(s.ctx); err != nil {
		logger.Warnf("[Progress] load last processed slot failed: %v", err)
	} else {
		logger.Infof("[Progress] last processed slot: %d", last)
	}

	go s.gcLoop()
	s.pm.StartFlushLoop(s.ctx, s.flushInterval)
}

func (s *Service) Stop() {
	s.cancel()
	<-s.done
}

func (s *Service) gcLoop() {
	ticker := time.NewTicker(s.gcInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			last, err := s.pm.LastProcessedSlot(s.ctx)
			if err != nil {
				logger.Warnf("[Progress] gc skipped: %v", err)
				continue
			}
			s.pm.GC(s.ctx, last)
		}
	}
}
