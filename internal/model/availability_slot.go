package model

import (
	"time"

	"github.com/google/uuid"
)

// SlotDuration длительность одного слота
const SlotDuration = time.Hour

type AvailabilitySlot struct {
	ID        uuid.UUID `json:"id"`
	TutorID   uuid.UUID `json:"tutor_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	IsBooked  bool      `json:"is_booked"`
	CreatedAt time.Time `json:"created_at"`
}

// TimeRange интервал доступности, который присылает учитель
type TimeRange struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}
