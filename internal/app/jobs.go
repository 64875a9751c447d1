package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/qs3c/gym_go_server/config"
	"github.com/qs3c/gym_go_server/internal/pkg/cron"
	"github.com/qs3c/gym_go_server/internal/service"
)

// 定时任务名
const (
	JobOverdueSweep = "overdue_sweep"
	JobRenewals     = "renewal_check"
)

// RegisterBillingJobs 注册逾期检查和续费检查
func RegisterBillingJobs(scheduler *cron.Service, billingSvc *service.BillingService, cfg config.BillingConfig, logger *slog.Logger) error {
	if err := scheduler.Register(cron.Job{
		Name: JobOverdueSweep,
		Spec: cfg.SweepSchedule,
		Run: func(ctx context.Context) error {
			result, err := billingSvc.SweepOverdue(ctx, time.Time{})
			if err != nil {
				return err
			}
			logger.Info("overdue sweep finished",
				"processed", result.Processed,
				"payments_marked", result.PaymentsMarked,
				"failed", result.Failed,
			)
			return nil
		},
	}); err != nil {
		return err
	}

	return scheduler.Register(cron.Job{
		Name: JobRenewals,
		Spec: cfg.RenewalSchedule,
		Run: func(ctx context.Context) error {
			result, err := billingSvc.CheckRenewals(ctx, time.Time{})
			if err != nil {
				return err
			}
			logger.Info("renewal check finished", "processed", result.Processed, "failed", result.Failed)
			return nil
		},
	})
}
