package notify

import (
	"context"

	"github.com/Freeeeeet/tutor_booking/internal/model"
	"github.com/google/uuid"
)

// NopNotifier ничего не отправляет, используется без TELEGRAM_TOKEN
type NopNotifier struct{}

func (NopNotifier) BookingReserved(context.Context, *model.Booking) error {
	return nil
}

func (NopNotifier) BookingStatusChanged(context.Context, *model.Booking, model.BookingStatus, uuid.UUID) error {
	return nil
}

func (NopNotifier) ReviewSubmitted(context.Context, *model.Review) error {
	return nil
}
