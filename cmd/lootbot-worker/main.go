package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lootbot/internal/config"
	"lootbot/internal/db"
	"lootbot/internal/economy"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadWorker()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	engineCfg, err := cfg.Engine.EconomyConfig()
	if err != nil {
		slog.Error("load engine config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		logger.Error("migrate failed", "err", err)
		os.Exit(1)
	}

	econ := economy.New(pool, logger, engineCfg)

	if cfg.RunOnce {
		out, err := econ.AccrueDailyInterest(ctx)
		if err != nil {
			logger.Error("interest run failed", "err", err)
			os.Exit(1)
		}
		logger.Info("worker run-once completed",
			"processed", out.Processed, "failed", out.Failed, "total_interest", out.TotalInterest)
		return
	}

	ticker := time.NewTicker(cfg.AccrueEvery)
	defer ticker.Stop()

	logger.Info("worker started", "accrue_every", cfg.AccrueEvery.String())
	for {
		select {
		case <-ctx.Done():
			logger.Info("worker shutdown")
			return
		case <-ticker.C:
			out, err := econ.AccrueDailyInterest(ctx)
			if err != nil {
				logger.Error("interest run failed", "err", err)
				continue
			}
			logger.Info("interest run complete",
				"processed", out.Processed, "failed", out.Failed, "total_interest", out.TotalInterest)
		}
	}
}
