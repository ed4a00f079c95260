package model_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Freeeeeet/tutor_booking/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDomainError_IsMatchesByCode(t *testing.T) {
	slotID := uuid.New()
	err := fmt.Errorf("reserve: %w", model.NewSlotAlreadyBookedError(slotID))

	assert.ErrorIs(t, err, model.ErrSlotAlreadyBooked)
	assert.NotErrorIs(t, err, model.ErrDuplicateBooking)
	assert.Contains(t, err.Error(), slotID.String())
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want model.ErrorKind
	}{
		{"not found", model.NewBookingNotFoundError(uuid.New()), model.KindNotFound},
		{"conflict", model.NewDuplicateReviewError(uuid.New()), model.KindConflict},
		{"unauthorized", model.NewUnauthorizedTransitionError(uuid.New(), model.BookingStatusCompleted), model.KindUnauthorized},
		{"invalid state", model.NewInvalidTransitionError(model.BookingStatusCancelled, model.BookingStatusConfirmed), model.KindInvalidState},
		{"wrapped", fmt.Errorf("outer: %w", model.NewInvalidInputError("bad")), model.KindValidation},
		{"plain", errors.New("boom"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, model.KindOf(tt.err))
		})
	}
}
