package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutor_booking/internal/service"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler управляет фоновыми задачами обслуживания
type Scheduler struct {
	cron        *cron.Cron
	schedule    cron.Schedule
	maintenance *service.MaintenanceService
	logger      *zap.Logger
}

// NewScheduler создаёт планировщик, spec - расписание в формате cron
func NewScheduler(spec string, maintenance *service.MaintenanceService, logger *zap.Logger) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse maintenance schedule %q: %w", spec, err)
	}

	cl := cronLogger{logger: logger.Sugar()}
	return &Scheduler{
		cron:        cron.New(cron.WithLogger(cl), cron.WithChain(cron.SkipIfStillRunning(cl))),
		schedule:    schedule,
		maintenance: maintenance,
		logger:      logger,
	}, nil
}

// Start запускает фоновые задачи; первый прогон сразу при старте.
// ctx ограничивает все прогоны, после его отмены задачи не выполняются.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler")

	s.cron.Schedule(s.schedule, cron.FuncJob(func() {
		s.runMaintenance(ctx)
	}))

	s.runMaintenance(ctx)
	s.cron.Start()
}

// Stop останавливает планировщик и ждёт завершения запущенной задачи
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runMaintenance(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	started := time.Now()
	s.maintenance.RunAll(ctx, started)
	s.logger.Debug("Maintenance finished", zap.Duration("took", time.Since(started)))
}

// cronLogger направляет логи cron в zap
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
