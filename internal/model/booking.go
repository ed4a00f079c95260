package model

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"   // Ожидает подтверждения учителя
	BookingStatusConfirmed BookingStatus = "CONFIRMED" // Подтверждено, слот занят
	BookingStatusCancelled BookingStatus = "CANCELLED" // Отменено, слот освобождён
	BookingStatusCompleted BookingStatus = "COMPLETED" // Занятие проведено
)

// Valid проверяет что статус входит в закрытый набор
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled, BookingStatusCompleted:
		return true
	}
	return false
}

// IsTerminal возвращает true для статусов, из которых переходов нет
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCancelled || s == BookingStatusCompleted
}

// CanTransitionTo описывает машину состояний бронирования без учёта роли
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	switch s {
	case BookingStatusPending:
		return next == BookingStatusConfirmed || next == BookingStatusCancelled
	case BookingStatusConfirmed:
		return next == BookingStatusCancelled || next == BookingStatusCompleted
	default:
		return false
	}
}

// ReleasesSlot - переход в этот статус освобождает слот
func (s BookingStatus) ReleasesSlot() bool {
	return s == BookingStatusCancelled
}

type Booking struct {
	ID        uuid.UUID     `json:"id"`
	StudentID uuid.UUID     `json:"student_id"`
	TutorID   uuid.UUID     `json:"tutor_id"` // id профиля учителя
	SlotID    *uuid.UUID    `json:"slot_id"`  // nil, если свободный слот отменённой брони удалён при перепубликации
	Status    BookingStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`

	// Заполняется при чтении с блокировкой, в БД bookings не хранится
	TutorUserID uuid.UUID `json:"-"`
}

// IsParticipant проверяет что пользователь - студент или учитель бронирования
func (b *Booking) IsParticipant(userID uuid.UUID) bool {
	return b.StudentID == userID || b.TutorUserID == userID
}

// BookingDetails бронирование с данными слота и участников
type BookingDetails struct {
	Booking
	Slot    *AvailabilitySlot `json:"slot,omitempty"`
	Student UserSummary       `json:"student"`
	Tutor   UserSummary       `json:"tutor"`
}
