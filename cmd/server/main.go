package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qs3c/gym_go_server/config"
	"github.com/qs3c/gym_go_server/internal/api"
	"github.com/qs3c/gym_go_server/internal/api/handler"
	"github.com/qs3c/gym_go_server/internal/app"
	"github.com/qs3c/gym_go_server/internal/database"
	"github.com/qs3c/gym_go_server/internal/pkg/cron"
	"github.com/qs3c/gym_go_server/internal/pkg/logger"
	"github.com/qs3c/gym_go_server/internal/pkg/oss"
	"github.com/qs3c/gym_go_server/internal/pkg/pubsub"
	"github.com/qs3c/gym_go_server/internal/pkg/ws"
	"github.com/qs3c/gym_go_server/internal/service"
)

func main() {
	// 加载配置
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logg := logger.New(cfg.Log)
	fatal := func(msg string, err error) {
		logg.Error(msg, "error", err)
		os.Exit(1)
	}

	// 初始化数据库
	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		fatal("failed to connect database", err)
	}
	logg.Info("database connected")

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			fatal("failed to migrate database", err)
		}
		logg.Info("database migrated")
	}

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		fatal("failed to connect redis", err)
	}
	defer rdb.Close()
	logg.Info("redis connected")

	// 初始化 OSS（可选）
	var storage service.AvatarStorage
	if cfg.OSS.Endpoint != "" && cfg.OSS.AccessKeyID != "" {
		ossClient, err := oss.NewClient(&cfg.OSS)
		if err != nil {
			logg.Warn("failed to init oss client, avatar upload disabled", "error", err)
		} else {
			storage = ossClient
			logg.Info("oss client initialized")
		}
	}

	services := app.NewServices(db, rdb, storage, cfg, logg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// WebSocket Hub：转发 Redis 上的通知事件
	hub := ws.NewHub(logg)
	go func() {
		if err := pubsub.NewSubscriber(rdb).Subscribe(ctx, hub.Relay); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error("notification subscriber stopped", "error", err)
		}
	}()

	// 定时任务
	var scheduler *cron.Service
	if cfg.Billing.SchedulerEnabled {
		scheduler = cron.NewService(logg, 10*time.Minute)
		if err := app.RegisterBillingJobs(scheduler, services.Billing, cfg.Billing, logg); err != nil {
			fatal("failed to register billing jobs", err)
		}
		scheduler.Start()
	}

	router := api.NewRouter(api.Handlers{
		Health:       handler.NewHealthHandler(db, rdb),
		Auth:         handler.NewAuthHandler(services.Auth),
		User:         handler.NewUserHandler(services.Users),
		Student:      handler.NewStudentHandler(services.Students, services.Billing, services.Finance),
		Instructor:   handler.NewInstructorHandler(services.Instructors),
		Plan:         handler.NewPlanHandler(services.Plans),
		Finance:      handler.NewFinanceHandler(services.Billing, services.Finance),
		Workout:      handler.NewWorkoutHandler(services.Workouts),
		Attendance:   handler.NewAttendanceHandler(services.Attendance),
		Notification: handler.NewNotificationHandler(services.Notifications),
		Settings:     handler.NewSettingsHandler(services.Settings),
		WebSocket:    handler.NewWebSocketHandler(hub, cfg.JWT.Secret, cfg.CORS.AllowedOrigins, logg),
	}, cfg, logg)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 启动服务器
	go func() {
		logg.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("failed to start server", err)
		}
	}()

	<-ctx.Done()
	logg.Info("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if scheduler != nil {
		select {
		case <-scheduler.Stop().Done():
		case <-shutdownCtx.Done():
			logg.Warn("scheduled jobs still running at shutdown")
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error("server shutdown failed", "error", err)
	}
	logg.Info("server shutdown complete")
}
