package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutor_booking/internal/config"
	"github.com/Freeeeeet/tutor_booking/internal/metrics"
	"github.com/Freeeeeet/tutor_booking/internal/notify"
	"github.com/Freeeeeet/tutor_booking/internal/repository"
	"github.com/Freeeeeet/tutor_booking/internal/repository/base"
	"github.com/Freeeeeet/tutor_booking/internal/service"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// App собранное ядро бронирования: сервисы, фоновые задачи и служебный сервер
type App struct {
	Availability *service.AvailabilityService
	Bookings     *service.BookingService
	Reviews      *service.ReviewService
	Tutors       *service.TutorService
	Maintenance  *service.MaintenanceService

	pool      *pgxpool.Pool
	scheduler *Scheduler
	ops       *OpsServer
	logger    *zap.Logger
}

// New подключается к БД, применяет миграции и связывает зависимости
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("parse db dsn: %w", err)
	}
	poolCfg.MaxConns = cfg.DBMaxConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if cfg.MigrationsEnabled {
		if err := migrate(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, err
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewCollector(registry)

	notifier, err := newNotifier(ctx, cfg, pool, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}

	tx := base.NewTxManager(pool, cfg.DBTxTimeout)
	maintenance := service.NewMaintenanceService(pool, service.MaintenanceConfig{
		AutoComplete:    cfg.AutoComplete,
		CompletionGrace: cfg.CompletionGrace,
	}, recorder, logger)

	scheduler, err := NewScheduler(cfg.MaintenanceCron, maintenance, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &App{
		Availability: service.NewAvailabilityService(tx, recorder, logger),
		Bookings:     service.NewBookingService(tx, notifier, recorder, logger),
		Reviews:      service.NewReviewService(tx, notifier, recorder, logger),
		Tutors:       service.NewTutorService(tx, logger),
		Maintenance:  maintenance,
		pool:         pool,
		scheduler:    scheduler,
		ops:          NewOpsServer(cfg.OpsAddr, pool, registry, logger),
		logger:       logger,
	}, nil
}

func migrate(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	migrator, err := NewMigrator(pool, logger)
	if err != nil {
		return err
	}
	defer migrator.Close()

	return migrator.Run(ctx)
}

func newNotifier(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger *zap.Logger) (service.Notifier, error) {
	if !cfg.NotificationsEnabled() {
		logger.Info("TELEGRAM_TOKEN is not set, notifications are disabled")
		return notify.NopNotifier{}, nil
	}

	b, err := bot.New(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return notify.NewTelegramNotifier(b, repository.NewBookingRepository(pool), logger), nil
}

// Run запускает фоновые задачи и служебный сервер и блокируется до отмены ctx
func (a *App) Run(ctx context.Context) error {
	a.scheduler.Start(ctx)
	a.ops.Start()

	a.logger.Info("Tutor booking core started")
	<-ctx.Done()
	a.logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.scheduler.Stop()
	if err := a.ops.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown ops server: %w", err)
	}

	return nil
}

// Close освобождает пул соединений
func (a *App) Close() {
	a.pool.Close()
}
