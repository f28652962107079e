package service

import (
	"context"
	"sync"
	"time"

	"weblidercontrol/internal/validator"

	"go.uber.org/zap"
)

// BatchRunner 执行一次批量校验
type BatchRunner interface {
	Run(ctx context.Context, cadence validator.Cadence) (*validator.Summary, error)
}

// Scheduler 按各节奏的间隔定时触发校验。
// 节奏之间、以及与 HTTP 手动触发之间不互斥
type Scheduler struct {
	runner   BatchRunner
	cadences []validator.Cadence
	logger   *zap.Logger
	wg       sync.WaitGroup
}

func NewScheduler(runner BatchRunner, logger *zap.Logger, cadences ...validator.Cadence) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{runner: runner, cadences: cadences, logger: logger}
}

// Start 每个节奏启动一个轮询 goroutine，ctx 取消后退出
func (s *Scheduler) Start(ctx context.Context) {
	for _, cadence := range s.cadences {
		if cadence.Interval <= 0 {
			s.logger.Warn("Skipping cadence without interval", zap.String("cadence", cadence.Name))
			continue
		}
		s.wg.Add(1)
		go func(c validator.Cadence) {
			defer s.wg.Done()
			s.poll(ctx, c)
		}(cadence)
	}
}

// Wait 等待所有轮询 goroutine 退出
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) poll(ctx context.Context, cadence validator.Cadence) {
	ticker := time.NewTicker(cadence.Interval)
	defer ticker.Stop()

	s.logger.Info("Starting validation schedule",
		zap.String("cadence", cadence.Name),
		zap.Duration("interval", cadence.Interval),
	)

	// 启动时先执行一次
	_ = s.RunOnce(ctx, cadence)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Validation schedule stopped", zap.String("cadence", cadence.Name))
			return
		case <-ticker.C:
			_ = s.RunOnce(ctx, cadence)
		}
	}
}

// RunOnce 执行一次校验；失败只记日志，下个周期重试
func (s *Scheduler) RunOnce(ctx context.Context, cadence validator.Cadence) error {
	start := time.Now()
	summary, err := s.runner.Run(ctx, cadence)
	if err != nil {
		s.logger.Error("Scheduled validation run failed",
			zap.String("cadence", cadence.Name),
			zap.Error(err),
		)
		return err
	}
	s.logger.Debug("Scheduled validation run finished",
		zap.String("cadence", cadence.Name),
		zap.Int("missed", summary.Missed),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}
