package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutor_booking/internal/model"
	"github.com/Freeeeeet/tutor_booking/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ActiveSlotConstraint частичный уникальный индекс "одно активное бронирование на слот"
const ActiveSlotConstraint = "bookings_active_slot_key"

type BookingRepository struct {
	*base.Repository
}

func NewBookingRepository(q base.Querier) *BookingRepository {
	return &BookingRepository{Repository: base.NewRepository(q)}
}

// Create создаёт новое бронирование
func (r *BookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	query := `
		INSERT INTO bookings (student_id, tutor_id, slot_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		booking.StudentID,
		booking.TutorID,
		booking.SlotID,
		booking.Status,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}

	return nil
}

// ExistsActiveForStudent проверяет есть ли у студента неотменённая бронь на слот
func (r *BookingRepository) ExistsActiveForStudent(ctx context.Context, studentID, slotID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM bookings
			WHERE student_id = $1 AND slot_id = $2 AND status <> 'CANCELLED'
		)
	`

	var exists bool
	if err := r.QueryRow(ctx, query, studentID, slotID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check active booking: %w", err)
	}

	return exists, nil
}

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var b model.Booking
	err := row.Scan(
		&b.ID,
		&b.StudentID,
		&b.TutorID,
		&b.SlotID,
		&b.Status,
		&b.CreatedAt,
		&b.UpdatedAt,
		&b.TutorUserID,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// GetByID получает бронирование вместе с user_id учителя
func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	query := `
		SELECT b.id, b.student_id, b.tutor_id, b.slot_id, b.status, b.created_at, b.updated_at, tp.user_id
		FROM bookings b
		JOIN tutor_profiles tp ON tp.id = b.tutor_id
		WHERE b.id = $1
	`

	booking, err := scanBooking(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking by id: %w", err)
	}

	return booking, nil
}

// GetByIDForUpdate как GetByID, но блокирует строку бронирования
func (r *BookingRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	query := `
		SELECT b.id, b.student_id, b.tutor_id, b.slot_id, b.status, b.created_at, b.updated_at, tp.user_id
		FROM bookings b
		JOIN tutor_profiles tp ON tp.id = b.tutor_id
		WHERE b.id = $1
		FOR UPDATE OF b
	`

	booking, err := scanBooking(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock booking: %w", err)
	}

	return booking, nil
}

// UpdateStatus обновляет статус бронирования
func (r *BookingRepository) UpdateStatus(ctx context.Context, booking *model.Booking, status model.BookingStatus) error {
	query := `
		UPDATE bookings
		SET status = $1, updated_at = now()
		WHERE id = $2
		RETURNING updated_at
	`

	var updatedAt time.Time
	if err := r.QueryRow(ctx, query, status, booking.ID).Scan(&updatedAt); err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}

	booking.Status = status
	booking.UpdatedAt = updatedAt

	return nil
}

// CompleteElapsed переводит подтверждённые бронирования с закончившимся слотом в COMPLETED
func (r *BookingRepository) CompleteElapsed(ctx context.Context, endedBefore time.Time) (int64, error) {
	query := `
		UPDATE bookings b
		SET status = 'COMPLETED', updated_at = now()
		FROM availability_slots s
		WHERE s.id = b.slot_id AND b.status = 'CONFIRMED' AND s.end_time < $1
	`

	affected, err := r.ExecAffected(ctx, query, endedBefore)
	if err != nil {
		return 0, fmt.Errorf("complete elapsed bookings: %w", err)
	}

	return affected, nil
}

const detailsSelect = `
		SELECT b.id, b.student_id, b.tutor_id, b.slot_id, b.status, b.created_at, b.updated_at, tp.user_id,
		       s.start_time, s.end_time, s.is_booked, s.created_at,
		       su.name, su.email, su.telegram_chat_id,
		       tu.name, tu.email, tu.telegram_chat_id
		FROM bookings b
		JOIN tutor_profiles tp ON tp.id = b.tutor_id
		JOIN users tu ON tu.id = tp.user_id
		JOIN users su ON su.id = b.student_id
		LEFT JOIN availability_slots s ON s.id = b.slot_id
`

func scanDetails(row pgx.Row) (*model.BookingDetails, error) {
	var (
		d         model.BookingDetails
		slotStart *time.Time
		slotEnd   *time.Time
		slotBook  *bool
		slotCrt   *time.Time
	)

	err := row.Scan(
		&d.ID,
		&d.StudentID,
		&d.TutorID,
		&d.SlotID,
		&d.Status,
		&d.CreatedAt,
		&d.UpdatedAt,
		&d.TutorUserID,
		&slotStart,
		&slotEnd,
		&slotBook,
		&slotCrt,
		&d.Student.Name,
		&d.Student.Email,
		&d.Student.TelegramChatID,
		&d.Tutor.Name,
		&d.Tutor.Email,
		&d.Tutor.TelegramChatID,
	)
	if err != nil {
		return nil, err
	}

	d.Student.ID = d.StudentID
	d.Tutor.ID = d.TutorUserID

	// LEFT JOIN: слот мог быть удалён после отмены
	if d.SlotID != nil && slotStart != nil {
		d.Slot = &model.AvailabilitySlot{
			ID:        *d.SlotID,
			TutorID:   d.TutorID,
			StartTime: *slotStart,
			EndTime:   *slotEnd,
			IsBooked:  *slotBook,
			CreatedAt: *slotCrt,
		}
	}

	return &d, nil
}

func (r *BookingRepository) listDetails(ctx context.Context, query string, args ...any) ([]*model.BookingDetails, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*model.BookingDetails
	for rows.Next() {
		d, err := scanDetails(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}

	return bookings, nil
}

// GetDetails получает бронирование со слотом и участниками
func (r *BookingRepository) GetDetails(ctx context.Context, id uuid.UUID) (*model.BookingDetails, error) {
	query := detailsSelect + `
		WHERE b.id = $1
	`

	d, err := scanDetails(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking details: %w", err)
	}

	return d, nil
}

// ListByTutor получает все бронирования учителя, включая отменённые
func (r *BookingRepository) ListByTutor(ctx context.Context, tutorID uuid.UUID) ([]*model.BookingDetails, error) {
	query := detailsSelect + `
		WHERE b.tutor_id = $1
		ORDER BY b.created_at DESC
	`
	return r.listDetails(ctx, query, tutorID)
}

// ListActiveByTutor получает неотменённые бронирования учителя
func (r *BookingRepository) ListActiveByTutor(ctx context.Context, tutorID uuid.UUID) ([]*model.BookingDetails, error) {
	query := detailsSelect + `
		WHERE b.tutor_id = $1 AND b.status <> 'CANCELLED'
		ORDER BY b.created_at DESC
	`
	return r.listDetails(ctx, query, tutorID)
}

// ListActiveByStudent получает неотменённые бронирования студента
func (r *BookingRepository) ListActiveByStudent(ctx context.Context, studentID uuid.UUID) ([]*model.BookingDetails, error) {
	query := detailsSelect + `
		WHERE b.student_id = $1 AND b.status <> 'CANCELLED'
		ORDER BY b.created_at DESC
	`
	return r.listDetails(ctx, query, studentID)
}
