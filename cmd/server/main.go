package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Freeeeeet/tutor_booking/internal/app"
	"github.com/Freeeeeet/tutor_booking/internal/config"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting tutor booking core",
		zap.String("environment", cfg.Environment),
		zap.String("ops_addr", cfg.OpsAddr),
		zap.Bool("notifications", cfg.NotificationsEnabled()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	core, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer core.Close()

	if err := core.Run(ctx); err != nil {
		logger.Error("Shutdown failed", zap.Error(err))
	}

	logger.Info("Stopped")
}
