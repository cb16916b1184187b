package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/park285/showdown-battle-bot/internal/bot"
	appcfg "github.com/park285/showdown-battle-bot/internal/config"
	"github.com/park285/showdown-battle-bot/internal/obslog"
	"github.com/park285/showdown-battle-bot/internal/record"
	"github.com/park285/showdown-battle-bot/internal/teamcat"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer obslog.Sync()
	logger := obslog.L()

	teams, err := teamcat.New(cfg.TeamDir)
	if err != nil {
		logger.Fatal("team catalog init failed", zap.Error(err))
	}

	opts := []bot.Option{bot.WithHandler(bot.NewLogHandler(logger))}
	if cfg.RedisURL != "" {
		store, err := record.NewStore(cfg.RedisURL)
		if err != nil {
			logger.Fatal("record store init failed", zap.Error(err))
		}
		defer store.Close()
		if cfg.DatabaseURL != "" {
			repo, err := record.NewRepository(cfg.DatabaseURL)
			if err != nil {
				logger.Fatal("record repository init failed", zap.Error(err))
			}
			defer repo.Close()
			store.AttachRepository(repo)
		}
		opts = append(opts, bot.WithRecords(store))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b := bot.New(cfg, teams, logger, opts...)
	logger.Info("starting",
		zap.String("username", cfg.Username),
		zap.String("format", cfg.Format),
		zap.String("ws", cfg.WSURL))
	if err := b.Run(ctx); err != nil {
		logger.Fatal("run failed", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
