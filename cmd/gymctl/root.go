package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/qs3c/gym_go_server/config"
	"github.com/qs3c/gym_go_server/internal/app"
	"github.com/qs3c/gym_go_server/internal/database"
	"github.com/qs3c/gym_go_server/internal/pkg/logger"
)

// env 命令运行所需的依赖
type env struct {
	cfg      *config.Config
	db       *gorm.DB
	logger   *slog.Logger
	services *app.Services
}

type envOpener func(configPath string) (*env, error)

// openEnv 连接数据库和 Redis；Redis 连不上时通知只落库
func openEnv(configPath string) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logg := logger.New(cfg.Log)

	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		return nil, err
	}

	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		logg.Warn("redis unavailable, notifications will not be pushed", "error", err)
		rdb = nil
	}

	return &env{
		cfg:      cfg,
		db:       db,
		logger:   logg,
		services: app.NewServices(db, rdb, nil, cfg, logg),
	}, nil
}

func newRootCmd(open envOpener) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "gymctl",
		Short:        "Gym management maintenance commands",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "config file path")

	load := func() (*env, error) {
		return open(configPath)
	}

	root.AddCommand(newMigrateCmd(load))
	root.AddCommand(newBillingCmd(load))
	root.AddCommand(newFinanceCmd(load))
	return root
}
