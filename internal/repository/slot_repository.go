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

type SlotRepository struct {
	*base.Repository
}

// NewSlotRepository создаёт репозиторий поверх пула или транзакции
func NewSlotRepository(q base.Querier) *SlotRepository {
	return &SlotRepository{Repository: base.NewRepository(q)}
}

func scanSlot(row pgx.Row) (*model.AvailabilitySlot, error) {
	var slot model.AvailabilitySlot
	err := row.Scan(
		&slot.ID,
		&slot.TutorID,
		&slot.StartTime,
		&slot.EndTime,
		&slot.IsBooked,
		&slot.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// GetByID получает слот по ID
func (r *SlotRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.AvailabilitySlot, error) {
	query := `
		SELECT id, tutor_id, start_time, end_time, is_booked, created_at
		FROM availability_slots
		WHERE id = $1
	`

	slot, err := scanSlot(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot by id: %w", err)
	}

	return slot, nil
}

// GetByIDForUpdate получает слот и блокирует строку до конца транзакции.
// Конкурирующие бронирования одного слота выстраиваются на этой блокировке.
func (r *SlotRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.AvailabilitySlot, error) {
	query := `
		SELECT id, tutor_id, start_time, end_time, is_booked, created_at
		FROM availability_slots
		WHERE id = $1
		FOR UPDATE
	`

	slot, err := scanSlot(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock slot: %w", err)
	}

	return slot, nil
}

// MarkBooked помечает слот занятым. false - слот уже занят или не найден.
func (r *SlotRepository) MarkBooked(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE availability_slots
		SET is_booked = true
		WHERE id = $1 AND is_booked = false
	`

	affected, err := r.ExecAffected(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("book slot: %w", err)
	}

	return affected == 1, nil
}

// Release освобождает слот
func (r *SlotRepository) Release(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE availability_slots
		SET is_booked = false
		WHERE id = $1
	`

	if _, err := r.ExecAffected(ctx, query, id); err != nil {
		return fmt.Errorf("release slot: %w", err)
	}

	return nil
}

// DeleteUnbookedByTutor удаляет все свободные слоты учителя, занятые не трогает
func (r *SlotRepository) DeleteUnbookedByTutor(ctx context.Context, tutorID uuid.UUID) (int64, error) {
	query := `
		DELETE FROM availability_slots
		WHERE tutor_id = $1 AND is_booked = false
	`

	affected, err := r.ExecAffected(ctx, query, tutorID)
	if err != nil {
		return 0, fmt.Errorf("delete unbooked slots: %w", err)
	}

	return affected, nil
}

// CreateBatch вставляет слоты одной командой COPY
func (r *SlotRepository) CreateBatch(ctx context.Context, slots []model.AvailabilitySlot) (int64, error) {
	if len(slots) == 0 {
		return 0, nil
	}

	rows := make([][]any, 0, len(slots))
	for _, s := range slots {
		rows = append(rows, []any{s.TutorID, s.StartTime, s.EndTime, s.IsBooked})
	}

	count, err := r.Querier().CopyFrom(
		ctx,
		pgx.Identifier{"availability_slots"},
		[]string{"tutor_id", "start_time", "end_time", "is_booked"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("insert slots: %w", err)
	}

	return count, nil
}

// ListFree получает свободные слоты учителя в диапазоне времени
func (r *SlotRepository) ListFree(ctx context.Context, tutorID uuid.UUID, from, to time.Time) ([]*model.AvailabilitySlot, error) {
	query := `
		SELECT id, tutor_id, start_time, end_time, is_booked, created_at
		FROM availability_slots
		WHERE tutor_id = $1 AND is_booked = false
		  AND start_time >= $2
		  AND start_time < $3
		ORDER BY start_time
	`
	return r.listSlots(ctx, query, tutorID, from, to)
}

// ListBooked получает занятые слоты учителя
func (r *SlotRepository) ListBooked(ctx context.Context, tutorID uuid.UUID) ([]*model.AvailabilitySlot, error) {
	query := `
		SELECT id, tutor_id, start_time, end_time, is_booked, created_at
		FROM availability_slots
		WHERE tutor_id = $1 AND is_booked = true
		ORDER BY start_time
	`
	return r.listSlots(ctx, query, tutorID)
}

func (r *SlotRepository) listSlots(ctx context.Context, query string, args ...any) ([]*model.AvailabilitySlot, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get slots: %w", err)
	}
	defer rows.Close()

	var slots []*model.AvailabilitySlot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slots: %w", err)
	}

	return slots, nil
}

// DeleteExpiredFree удаляет прошедшие свободные слоты
func (r *SlotRepository) DeleteExpiredFree(ctx context.Context, before time.Time) (int64, error) {
	query := `
		DELETE FROM availability_slots
		WHERE is_booked = false AND end_time < $1
	`

	affected, err := r.ExecAffected(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("delete expired slots: %w", err)
	}

	return affected, nil
}
