package cron

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/qs3c/gym_go_server/internal/pkg/metrics"
)

// Job 定时任务：Spec 为标准 5 段 cron 表达式
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

// Service 定时任务调度，同名任务不会重叠执行
type Service struct {
	cron    *cron.Cron
	jobs    map[string]Job
	running map[string]*sync.Mutex
	logger  *slog.Logger
	timeout time.Duration
}

func NewService(logger *slog.Logger, timeout time.Duration) *Service {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &Service{
		cron:    cron.New(cron.WithChain(cron.Recover(cronLogger))),
		jobs:    make(map[string]Job),
		running: make(map[string]*sync.Mutex),
		logger:  logger,
		timeout: timeout,
	}
}

// Register 注册任务，表达式非法时返回错误
func (s *Service) Register(job Job) error {
	if _, ok := s.jobs[job.Name]; ok {
		return fmt.Errorf("job %q already registered", job.Name)
	}
	if _, err := s.cron.AddFunc(job.Spec, func() { s.execute(job) }); err != nil {
		return fmt.Errorf("schedule job %q: %w", job.Name, err)
	}
	s.jobs[job.Name] = job
	s.running[job.Name] = &sync.Mutex{}
	s.logger.Info("scheduled job", "job", job.Name, "schedule", job.Spec)
	return nil
}

// Start 启动定时任务
func (s *Service) Start() {
	s.cron.Start()
	s.logger.Info("cron service started", "jobs", len(s.jobs))
}

// Stop 停止调度，返回的 context 在运行中的任务结束后关闭
func (s *Service) Stop() context.Context {
	ctx := s.cron.Stop()
	s.logger.Info("cron service stopped")
	return ctx
}

// RunNow 立即同步执行某个任务（手动触发）
func (s *Service) RunNow(name string) error {
	job, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("job %q not registered", name)
	}
	return s.execute(job)
}

func (s *Service) execute(job Job) error {
	lock := s.running[job.Name]
	if !lock.TryLock() {
		s.logger.Warn("job still running, skipped", "job", job.Name)
		return nil
	}
	defer lock.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	err := job.Run(ctx)
	metrics.JobDuration.WithLabelValues(job.Name).Observe(time.Since(start).Seconds())

	if err != nil {
		s.logger.Error("job failed", "job", job.Name, "error", err)
		return err
	}
	s.logger.Info("job completed", "job", job.Name, "duration", time.Since(start))
	return nil
}
