package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutor_booking/internal/metrics"
	"github.com/Freeeeeet/tutor_booking/internal/model"
	"github.com/Freeeeeet/tutor_booking/internal/repository"
	"github.com/Freeeeeet/tutor_booking/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type AvailabilityService struct {
	tx      *base.TxManager
	metrics metrics.Recorder
	logger  *zap.Logger
}

func NewAvailabilityService(tx *base.TxManager, recorder metrics.Recorder, logger *zap.Logger) *AvailabilityService {
	return &AvailabilityService{
		tx:      tx,
		metrics: recorder,
		logger:  logger,
	}
}

// UpdateAvailability заменяет все свободные слоты учителя слотами из новых интервалов.
// Забронированные слоты остаются как есть, новые слоты поверх них не создаются.
// Возвращает число созданных слотов.
func (s *AvailabilityService) UpdateAvailability(ctx context.Context, userID uuid.UUID, ranges []model.TimeRange) (int64, error) {
	if n := countSlots(ranges); n > MaxSlotsPerPublish {
		return 0, model.NewInvalidInputError(fmt.Sprintf("too many slots in one publish: %d > %d", n, MaxSlotsPerPublish))
	}

	var (
		tutorID  uuid.UUID
		deleted  int64
		inserted int64
	)

	started := time.Now()
	err := s.tx.InTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		profiles := repository.NewTutorProfileRepository(tx)
		slots := repository.NewSlotRepository(tx)

		// Блокировка профиля сериализует перепубликации одного учителя
		profile, err := profiles.GetByUserIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if profile == nil {
			return model.NewProfileNotFoundError(userID)
		}
		tutorID = profile.ID

		deleted, err = slots.DeleteUnbookedByTutor(ctx, tutorID)
		if err != nil {
			return err
		}

		// После удаления у учителя остались только занятые слоты
		booked, err := slots.ListBooked(ctx, tutorID)
		if err != nil {
			return err
		}

		inserted, err = slots.CreateBatch(ctx, DropOverlapping(GenerateSlots(tutorID, ranges), booked))
		return err
	})
	s.metrics.ObserveTx("update_availability", time.Since(started))

	if err != nil {
		s.logger.Warn("Failed to update availability",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return 0, err
	}

	s.metrics.RecordSlotsGenerated(inserted)
	s.logger.Info("Availability updated",
		zap.String("tutor_id", tutorID.String()),
		zap.Int("ranges", len(ranges)),
		zap.Int64("deleted", deleted),
		zap.Int64("inserted", inserted))

	return inserted, nil
}

// ListFreeSlots получает свободные слоты учителя, начинающиеся в [from, to)
func (s *AvailabilityService) ListFreeSlots(ctx context.Context, tutorID uuid.UUID, from, to time.Time) ([]*model.AvailabilitySlot, error) {
	if !to.After(from) {
		return nil, model.NewInvalidInputError("end of the window must be after its start")
	}

	slots, err := repository.NewSlotRepository(s.tx.DB()).ListFree(ctx, tutorID, from, to)
	if err != nil {
		return nil, err
	}
	if slots == nil {
		slots = []*model.AvailabilitySlot{}
	}

	return slots, nil
}

// GetSlot получает слот по ID. nil, если слот не найден или уже удалён.
func (s *AvailabilityService) GetSlot(ctx context.Context, slotID uuid.UUID) (*model.AvailabilitySlot, error) {
	return repository.NewSlotRepository(s.tx.DB()).GetByID(ctx, slotID)
}
