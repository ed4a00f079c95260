package model_test

import (
	"fmt"
	"testing"

	"github.com/Freeeeeet/tutor_booking/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from model.BookingStatus
		to   model.BookingStatus
		want bool
	}{
		{model.BookingStatusConfirmed, model.BookingStatusCancelled, true},
		{model.BookingStatusConfirmed, model.BookingStatusCompleted, true},
		{model.BookingStatusConfirmed, model.BookingStatusConfirmed, false},
		{model.BookingStatusConfirmed, model.BookingStatusPending, false},
		{model.BookingStatusPending, model.BookingStatusConfirmed, true},
		{model.BookingStatusPending, model.BookingStatusCancelled, true},
		{model.BookingStatusPending, model.BookingStatusCompleted, false},
		{model.BookingStatusCancelled, model.BookingStatusConfirmed, false},
		{model.BookingStatusCancelled, model.BookingStatusCancelled, false},
		{model.BookingStatusCompleted, model.BookingStatusCancelled, false},
		{model.BookingStatusCompleted, model.BookingStatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s to %s", tt.from, tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestBookingStatus_IsTerminal(t *testing.T) {
	assert.True(t, model.BookingStatusCancelled.IsTerminal())
	assert.True(t, model.BookingStatusCompleted.IsTerminal())
	assert.False(t, model.BookingStatusConfirmed.IsTerminal())
	assert.False(t, model.BookingStatusPending.IsTerminal())
}

func TestBookingStatus_Valid(t *testing.T) {
	assert.True(t, model.BookingStatusConfirmed.Valid())
	assert.False(t, model.BookingStatus("confirmed").Valid())
	assert.False(t, model.BookingStatus("").Valid())
}

func TestBooking_IsParticipant(t *testing.T) {
	b := model.Booking{StudentID: uuid.New(), TutorUserID: uuid.New()}

	assert.True(t, b.IsParticipant(b.StudentID))
	assert.True(t, b.IsParticipant(b.TutorUserID))
	assert.False(t, b.IsParticipant(uuid.New()))
}

func TestParseRole(t *testing.T) {
	r, err := model.ParseRole("TUTOR")
	require.NoError(t, err)
	assert.Equal(t, model.RoleTutor, r)

	_, err = model.ParseRole("tutor")
	require.Error(t, err)
}
