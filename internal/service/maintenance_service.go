package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/tutor_booking/internal/metrics"
	"github.com/Freeeeeet/tutor_booking/internal/repository"
	"github.com/Freeeeeet/tutor_booking/internal/repository/base"
	"go.uber.org/zap"
)

// Имена задач обслуживания для логов и метрик
const (
	JobCompleteElapsed = "complete_elapsed"
	JobPurgeSlots      = "purge_expired_slots"
)

// MaintenanceConfig настройки фоновой уборки
type MaintenanceConfig struct {
	// AutoComplete разрешает RunAll завершать прошедшие занятия без участников.
	// По умолчанию выключено: статус бронирования меняют только студент и учитель.
	AutoComplete    bool
	CompletionGrace time.Duration
}

// MaintenanceService периодическая уборка: удаление старых свободных слотов и,
// если включено, завершение прошедших занятий.
// Каждая задача - одна команда, поэтому явная транзакция не нужна.
type MaintenanceService struct {
	db      base.Querier
	cfg     MaintenanceConfig
	metrics metrics.Recorder
	logger  *zap.Logger
}

func NewMaintenanceService(db base.Querier, cfg MaintenanceConfig, recorder metrics.Recorder, logger *zap.Logger) *MaintenanceService {
	return &MaintenanceService{
		db:      db,
		cfg:     cfg,
		metrics: recorder,
		logger:  logger,
	}
}

// CompleteElapsedBookings переводит в COMPLETED подтверждённые бронирования,
// чей слот закончился раньше now - grace
func (s *MaintenanceService) CompleteElapsedBookings(ctx context.Context, now time.Time) (int64, error) {
	completed, err := repository.NewBookingRepository(s.db).CompleteElapsed(ctx, now.Add(-s.cfg.CompletionGrace))
	if err != nil {
		s.logger.Error("Failed to complete elapsed bookings", zap.Error(err))
		return 0, err
	}

	s.metrics.RecordMaintenance(JobCompleteElapsed, completed)
	if completed > 0 {
		s.logger.Info("Elapsed bookings completed", zap.Int64("count", completed))
	}

	return completed, nil
}

// PurgeExpiredFreeSlots удаляет свободные слоты, закончившиеся до now
func (s *MaintenanceService) PurgeExpiredFreeSlots(ctx context.Context, now time.Time) (int64, error) {
	deleted, err := repository.NewSlotRepository(s.db).DeleteExpiredFree(ctx, now)
	if err != nil {
		s.logger.Error("Failed to purge expired slots", zap.Error(err))
		return 0, err
	}

	s.metrics.RecordMaintenance(JobPurgeSlots, deleted)
	if deleted > 0 {
		s.logger.Info("Expired free slots purged", zap.Int64("count", deleted))
	}

	return deleted, nil
}

// RunAll выполняет включённые задачи обслуживания, ошибка одной не останавливает другую
func (s *MaintenanceService) RunAll(ctx context.Context, now time.Time) {
	if s.cfg.AutoComplete {
		_, _ = s.CompleteElapsedBookings(ctx, now)
	}
	_, _ = s.PurgeExpiredFreeSlots(ctx, now)
}
