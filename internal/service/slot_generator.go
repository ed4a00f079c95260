package service

import (
	"github.com/Freeeeeet/tutor_booking/internal/model"
	"github.com/google/uuid"
)

// MaxSlotsPerPublish ограничивает размер одной публикации расписания
const MaxSlotsPerPublish = 5000

// GenerateSlots нарезает интервалы на часовые слоты от начала каждого интервала.
// Хвост короче часа отбрасывается. Пересекающиеся интервалы не склеиваются.
func GenerateSlots(tutorID uuid.UUID, ranges []model.TimeRange) []model.AvailabilitySlot {
	var slots []model.AvailabilitySlot

	for _, r := range ranges {
		if !r.EndTime.After(r.StartTime) {
			continue
		}

		for start := r.StartTime; !start.Add(model.SlotDuration).After(r.EndTime); start = start.Add(model.SlotDuration) {
			slots = append(slots, model.AvailabilitySlot{
				TutorID:   tutorID,
				StartTime: start,
				EndTime:   start.Add(model.SlotDuration),
				IsBooked:  false,
			})
		}
	}

	return slots
}

// countSlots считает число слотов без их построения
func countSlots(ranges []model.TimeRange) int64 {
	var total int64
	for _, r := range ranges {
		if !r.EndTime.After(r.StartTime) {
			continue
		}
		total += int64(r.EndTime.Sub(r.StartTime) / model.SlotDuration)
	}
	return total
}

// DropOverlapping убирает из slots те, что пересекаются с уже занятыми слотами
func DropOverlapping(slots []model.AvailabilitySlot, booked []*model.AvailabilitySlot) []model.AvailabilitySlot {
	if len(booked) == 0 {
		return slots
	}

	kept := slots[:0:0]
	for _, s := range slots {
		overlaps := false
		for _, b := range booked {
			if s.StartTime.Before(b.EndTime) && b.StartTime.Before(s.EndTime) {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, s)
		}
	}

	return kept
}
