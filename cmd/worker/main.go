package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/qs3c/gym_go_server/config"
	"github.com/qs3c/gym_go_server/internal/database"
	"github.com/qs3c/gym_go_server/internal/pkg/email"
	"github.com/qs3c/gym_go_server/internal/pkg/logger"
	"github.com/qs3c/gym_go_server/internal/pkg/queue"
	"github.com/qs3c/gym_go_server/internal/worker"
)

func main() {
	// 加载配置
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logg := logger.New(cfg.Log)

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		logg.Error("failed to connect redis", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()
	logg.Info("redis connected")

	if !cfg.Email.Enabled {
		logg.Warn("email disabled, queued mails will be dropped")
	}

	mailQueue := queue.NewQueue(rdb, cfg.Queue.MailQueue)
	mailer := email.NewService(&cfg.Email, logg)
	processor := worker.NewProcessor(mailQueue, mailer, cfg.Queue.MaxWorkers, logg)

	// 创建 context 用于优雅关闭
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logg.Info("mail worker started", "queue", cfg.Queue.MailQueue, "max_workers", cfg.Queue.MaxWorkers)
	processor.Run(ctx)
	logg.Info("mail worker shutdown complete")
}
