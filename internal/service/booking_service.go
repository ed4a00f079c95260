package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/tutor_booking/internal/metrics"
	"github.com/Freeeeeet/tutor_booking/internal/model"
	"github.com/Freeeeeet/tutor_booking/internal/repository"
	"github.com/Freeeeeet/tutor_booking/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type BookingService struct {
	tx       *base.TxManager
	notifier Notifier
	metrics  metrics.Recorder
	logger   *zap.Logger
}

func NewBookingService(
	tx *base.TxManager,
	notifier Notifier,
	recorder metrics.Recorder,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		tx:       tx,
		notifier: notifier,
		metrics:  recorder,
		logger:   logger,
	}
}

// Reserve бронирует слот для студента.
// Слот блокируется до конца транзакции, поэтому из конкурирующих запросов побеждает ровно один.
func (s *BookingService) Reserve(ctx context.Context, studentID, tutorID, slotID uuid.UUID) (*model.Booking, error) {
	var booking *model.Booking

	started := time.Now()
	err := s.tx.InTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		slots := repository.NewSlotRepository(tx)
		bookings := repository.NewBookingRepository(tx)

		slot, err := slots.GetByIDForUpdate(ctx, slotID)
		if err != nil {
			return err
		}

		// Слот другого учителя для вызывающего не существует
		if slot == nil || (tutorID != uuid.Nil && slot.TutorID != tutorID) {
			return model.NewSlotNotFoundError(slotID)
		}

		if slot.IsBooked {
			return model.NewSlotAlreadyBookedError(slotID)
		}

		exists, err := bookings.ExistsActiveForStudent(ctx, studentID, slotID)
		if err != nil {
			return err
		}
		if exists {
			return model.NewDuplicateBookingError(slotID)
		}

		b := &model.Booking{
			StudentID: studentID,
			TutorID:   slot.TutorID,
			SlotID:    &slotID,
			Status:    model.BookingStatusConfirmed,
		}

		if err := bookings.Create(ctx, b); err != nil {
			if base.IsUniqueViolation(err, repository.ActiveSlotConstraint) {
				return model.NewSlotAlreadyBookedError(slotID)
			}
			return err
		}

		booked, err := slots.MarkBooked(ctx, slotID)
		if err != nil {
			return err
		}
		if !booked {
			return model.NewSlotAlreadyBookedError(slotID)
		}

		booking = b
		return nil
	})
	s.metrics.ObserveTx("reserve", time.Since(started))
	s.metrics.RecordReservation(metrics.Outcome(err))

	if err != nil {
		s.logger.Warn("Failed to reserve slot",
			zap.String("student_id", studentID.String()),
			zap.String("slot_id", slotID.String()),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Slot reserved",
		zap.String("booking_id", booking.ID.String()),
		zap.String("student_id", studentID.String()),
		zap.String("tutor_id", booking.TutorID.String()),
		zap.String("slot_id", slotID.String()))

	if err := s.notifier.BookingReserved(ctx, booking); err != nil {
		s.logger.Warn("Failed to notify about reservation",
			zap.String("booking_id", booking.ID.String()),
			zap.Error(err))
	}

	return booking, nil
}

// Transition меняет статус бронирования от имени участника.
// Отмена освобождает слот в той же транзакции.
func (s *BookingService) Transition(ctx context.Context, bookingID, actingUserID uuid.UUID, newStatus model.BookingStatus) (*model.Booking, error) {
	if !newStatus.Valid() {
		return nil, model.NewInvalidInputError("unknown booking status " + string(newStatus))
	}

	var (
		booking *model.Booking
		from    model.BookingStatus
	)

	started := time.Now()
	err := s.tx.InTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		bookings := repository.NewBookingRepository(tx)
		slots := repository.NewSlotRepository(tx)

		b, err := bookings.GetByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if b == nil {
			return model.NewBookingNotFoundError(bookingID)
		}

		if !b.IsParticipant(actingUserID) {
			return model.NewUnauthorizedTransitionError(bookingID, newStatus)
		}

		if !b.Status.CanTransitionTo(newStatus) {
			return model.NewInvalidTransitionError(b.Status, newStatus)
		}

		// Подтвердить и завершить занятие может только учитель
		if requiresTutor(newStatus) && b.TutorUserID != actingUserID {
			return model.NewUnauthorizedTransitionError(bookingID, newStatus)
		}

		from = b.Status
		if err := bookings.UpdateStatus(ctx, b, newStatus); err != nil {
			return err
		}

		if newStatus.ReleasesSlot() && b.SlotID != nil {
			if err := slots.Release(ctx, *b.SlotID); err != nil {
				return err
			}
		}

		booking = b
		return nil
	})
	s.metrics.ObserveTx("transition", time.Since(started))

	if err != nil {
		s.logger.Warn("Failed to change booking status",
			zap.String("booking_id", bookingID.String()),
			zap.String("user_id", actingUserID.String()),
			zap.String("status", string(newStatus)),
			zap.Error(err))
		return nil, err
	}

	s.metrics.RecordTransition(from, newStatus)
	s.logger.Info("Booking status changed",
		zap.String("booking_id", bookingID.String()),
		zap.String("user_id", actingUserID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(newStatus)))

	if err := s.notifier.BookingStatusChanged(ctx, booking, from, actingUserID); err != nil {
		s.logger.Warn("Failed to notify about status change",
			zap.String("booking_id", bookingID.String()),
			zap.Error(err))
	}

	return booking, nil
}

func requiresTutor(status model.BookingStatus) bool {
	return status == model.BookingStatusConfirmed || status == model.BookingStatusCompleted
}

// ListForUser получает бронирования пользователя, новые первыми.
// Учитель видит все бронирования своего профиля, студент - свои неотменённые.
func (s *BookingService) ListForUser(ctx context.Context, userID uuid.UUID, role model.Role) ([]*model.BookingDetails, error) {
	db := s.tx.DB()
	bookings := repository.NewBookingRepository(db)

	var (
		list []*model.BookingDetails
		err  error
	)

	switch role {
	case model.RoleTutor:
		profile, perr := repository.NewTutorProfileRepository(db).GetByUserID(ctx, userID)
		if perr != nil {
			return nil, perr
		}
		if profile == nil {
			return []*model.BookingDetails{}, nil
		}
		list, err = bookings.ListByTutor(ctx, profile.ID)
	case model.RoleStudent:
		list, err = bookings.ListActiveByStudent(ctx, userID)
	default:
		return nil, model.NewInvalidRoleError(role)
	}

	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*model.BookingDetails{}
	}

	return list, nil
}

// GetByID получает бронирование со слотом и участниками. nil, если не найдено.
func (s *BookingService) GetByID(ctx context.Context, bookingID uuid.UUID) (*model.BookingDetails, error) {
	return repository.NewBookingRepository(s.tx.DB()).GetDetails(ctx, bookingID)
}
