package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inboker-service/internal/config"
	"inboker-service/internal/scheduler"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("[CRON] No .env file found, relying on system env vars")
	}

	cfg, err := config.LoadCron()
	if err != nil {
		log.Fatalf("[CRON] invalid configuration: %v", err)
	}
	if cfg.Secret == "" {
		log.Fatal("[CRON] CRON_SECRET is required")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("[CRON] failed to build logger: %v", err)
	}
	defer logger.Sync()

	cronScheduler := cron.New(cron.WithSeconds())
	trigger := scheduler.NewTrigger(cfg.TargetURL, cfg.Secret, logger)
	if _, err := trigger.Schedule(cronScheduler, cfg.Schedule); err != nil {
		logger.Fatal("failed to schedule trial reminder sweep",
			zap.String("schedule", cfg.Schedule),
			zap.Error(err))
	}

	cronScheduler.Start()
	logger.Info("cron started",
		zap.String("schedule", cfg.Schedule),
		zap.String("target", cfg.TargetURL))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down gracefully")
	ctx := cronScheduler.Stop()
	select {
	case <-ctx.Done():
		logger.Info("cron jobs stopped gracefully")
	case <-time.After(5 * time.Second):
		logger.Warn("cron jobs forced to stop after timeout")
	}
}
