package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/qs3c/gym_go_server/internal/pkg/email"
	"github.com/qs3c/gym_go_server/internal/pkg/metrics"
	"github.com/qs3c/gym_go_server/internal/pkg/queue"
)

// MaxAttempts 单个邮件任务最多尝试次数
const MaxAttempts = 3

// JobQueue 邮件任务队列
type JobQueue interface {
	Push(ctx context.Context, job *queue.MailJob) error
	Pop(ctx context.Context, timeout time.Duration) (*queue.MailJob, error)
}

// Sender 发送单个邮件任务
type Sender interface {
	SendJob(job *queue.MailJob) error
}

type Processor struct {
	queue       JobQueue
	sender      Sender
	logger      *slog.Logger
	popTimeout  time.Duration
	concurrency int
}

func NewProcessor(q JobQueue, sender Sender, concurrency int, logger *slog.Logger) *Processor {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Processor{
		queue:       q,
		sender:      sender,
		logger:      logger,
		popTimeout:  5 * time.Second,
		concurrency: concurrency,
	}
}

// Run 启动 concurrency 个消费者，ctx 取消后等待全部退出
func (p *Processor) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < p.concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			p.loop(ctx, workerID)
		}(i)
	}
	wg.Wait()
}

func (p *Processor) loop(ctx context.Context, workerID int) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("mail worker shutting down", "worker", workerID)
			return
		default:
		}

		job, err := p.queue.Pop(ctx, p.popTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Error("failed to pop mail job", "worker", workerID, "error", err)
			// 队列不可用时避免空转
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if job == nil {
			continue // 超时，继续等待
		}

		p.Process(ctx, job)
	}
}

// Process 发送一个任务；临时失败时重新入队，达到 MaxAttempts 后丢弃
func (p *Processor) Process(ctx context.Context, job *queue.MailJob) {
	job.Attempts++
	err := p.sender.SendJob(job)
	if err == nil {
		metrics.MailsTotal.WithLabelValues(job.Kind, "sent").Inc()
		p.logger.Info("mail sent", "kind", job.Kind, "user_id", job.UserID, "attempts", job.Attempts)
		return
	}

	if permanent(err) {
		metrics.MailsTotal.WithLabelValues(job.Kind, "dropped").Inc()
		p.logger.Warn("mail job dropped", "kind", job.Kind, "user_id", job.UserID, "error", err)
		return
	}

	if job.Attempts >= MaxAttempts {
		metrics.MailsTotal.WithLabelValues(job.Kind, "failed").Inc()
		p.logger.Error("mail job failed", "kind", job.Kind, "user_id", job.UserID, "attempts", job.Attempts, "error", err)
		return
	}

	metrics.MailsTotal.WithLabelValues(job.Kind, "retried").Inc()
	p.logger.Warn("mail job will be retried", "kind", job.Kind, "user_id", job.UserID, "attempts", job.Attempts, "error", err)
	if err := p.queue.Push(ctx, job); err != nil {
		p.logger.Error("failed to requeue mail job", "kind", job.Kind, "user_id", job.UserID, "error", err)
	}
}

// permanent 重试也不会成功的错误
func permanent(err error) bool {
	return errors.Is(err, email.ErrDisabled) ||
		errors.Is(err, email.ErrNoRecipient) ||
		errors.Is(err, email.ErrUnknownKind)
}
