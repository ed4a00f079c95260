package service

import (
	"context"

	"github.com/Freeeeeet/tutor_booking/internal/model"
	"github.com/google/uuid"
)

// Notifier уведомляет участников о событиях бронирования.
// Вызывается только после коммита; ошибки логируются и не влияют на результат операции.
type Notifier interface {
	BookingReserved(ctx context.Context, booking *model.Booking) error
	BookingStatusChanged(ctx context.Context, booking *model.Booking, from model.BookingStatus, actorID uuid.UUID) error
	ReviewSubmitted(ctx context.Context, review *model.Review) error
}
