package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrorKind категория доменной ошибки
type ErrorKind string

const (
	KindNotFound     ErrorKind = "not_found"
	KindConflict     ErrorKind = "conflict"
	KindUnauthorized ErrorKind = "unauthorized"
	KindInvalidState ErrorKind = "invalid_state"
	KindValidation   ErrorKind = "validation"
)

const (
	ErrCodeProfileNotFound        = "PROFILE_NOT_FOUND"
	ErrCodeSlotNotFound           = "SLOT_NOT_FOUND"
	ErrCodeBookingNotFound        = "BOOKING_NOT_FOUND"
	ErrCodeSlotAlreadyBooked      = "SLOT_ALREADY_BOOKED"
	ErrCodeDuplicateBooking       = "DUPLICATE_BOOKING"
	ErrCodeDuplicateReview        = "DUPLICATE_REVIEW"
	ErrCodeUnauthorizedTransition = "UNAUTHORIZED_TRANSITION"
	ErrCodeUnauthorized           = "UNAUTHORIZED"
	ErrCodeInvalidTransition      = "INVALID_TRANSITION"
	ErrCodeInvalidRole            = "INVALID_ROLE"
	ErrCodeInvalidInput           = "INVALID_INPUT"
)

// DomainError ошибка ядра бронирования, отдаётся вызывающему слою как есть.
// Сравнение через errors.Is идёт по Code, поэтому сообщение может содержать детали.
type DomainError struct {
	Code    string
	Kind    ErrorKind
	Message string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Эталонные ошибки для errors.Is
var (
	ErrProfileNotFound        = &DomainError{Code: ErrCodeProfileNotFound, Kind: KindNotFound, Message: "tutor profile not found"}
	ErrSlotNotFound           = &DomainError{Code: ErrCodeSlotNotFound, Kind: KindNotFound, Message: "slot not found"}
	ErrBookingNotFound        = &DomainError{Code: ErrCodeBookingNotFound, Kind: KindNotFound, Message: "booking not found"}
	ErrSlotAlreadyBooked      = &DomainError{Code: ErrCodeSlotAlreadyBooked, Kind: KindConflict, Message: "slot is already booked"}
	ErrDuplicateBooking       = &DomainError{Code: ErrCodeDuplicateBooking, Kind: KindConflict, Message: "active booking for this slot already exists"}
	ErrDuplicateReview        = &DomainError{Code: ErrCodeDuplicateReview, Kind: KindConflict, Message: "review for this booking already exists"}
	ErrUnauthorizedTransition = &DomainError{Code: ErrCodeUnauthorizedTransition, Kind: KindUnauthorized, Message: "not allowed to change this booking"}
	ErrUnauthorized           = &DomainError{Code: ErrCodeUnauthorized, Kind: KindUnauthorized, Message: "not allowed"}
	ErrInvalidTransition      = &DomainError{Code: ErrCodeInvalidTransition, Kind: KindInvalidState, Message: "invalid booking status transition"}
	ErrInvalidRole            = &DomainError{Code: ErrCodeInvalidRole, Kind: KindValidation, Message: "role is not supported"}
	ErrInvalidInput           = &DomainError{Code: ErrCodeInvalidInput, Kind: KindValidation, Message: "invalid input"}
)

// KindOf возвращает категорию доменной ошибки в цепочке или пустую строку
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

func NewProfileNotFoundError(userID uuid.UUID) *DomainError {
	return &DomainError{
		Code:    ErrCodeProfileNotFound,
		Kind:    KindNotFound,
		Message: fmt.Sprintf("tutor profile not found for user %s", userID),
	}
}

func NewSlotNotFoundError(slotID uuid.UUID) *DomainError {
	return &DomainError{
		Code:    ErrCodeSlotNotFound,
		Kind:    KindNotFound,
		Message: fmt.Sprintf("slot %s does not exist", slotID),
	}
}

func NewBookingNotFoundError(bookingID uuid.UUID) *DomainError {
	return &DomainError{
		Code:    ErrCodeBookingNotFound,
		Kind:    KindNotFound,
		Message: fmt.Sprintf("booking %s not found", bookingID),
	}
}

func NewSlotAlreadyBookedError(slotID uuid.UUID) *DomainError {
	return &DomainError{
		Code:    ErrCodeSlotAlreadyBooked,
		Kind:    KindConflict,
		Message: fmt.Sprintf("slot %s is already taken", slotID),
	}
}

func NewDuplicateBookingError(slotID uuid.UUID) *DomainError {
	return &DomainError{
		Code:    ErrCodeDuplicateBooking,
		Kind:    KindConflict,
		Message: fmt.Sprintf("student already has an active booking for slot %s", slotID),
	}
}

func NewDuplicateReviewError(bookingID uuid.UUID) *DomainError {
	return &DomainError{
		Code:    ErrCodeDuplicateReview,
		Kind:    KindConflict,
		Message: fmt.Sprintf("review for booking %s already submitted", bookingID),
	}
}

func NewUnauthorizedTransitionError(bookingID uuid.UUID, status BookingStatus) *DomainError {
	return &DomainError{
		Code:    ErrCodeUnauthorizedTransition,
		Kind:    KindUnauthorized,
		Message: fmt.Sprintf("not allowed to set booking %s to %s", bookingID, status),
	}
}

func NewUnauthorizedError(reason string) *DomainError {
	return &DomainError{
		Code:    ErrCodeUnauthorized,
		Kind:    KindUnauthorized,
		Message: reason,
	}
}

func NewInvalidTransitionError(from, to BookingStatus) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidTransition,
		Kind:    KindInvalidState,
		Message: fmt.Sprintf("cannot move booking from %s to %s", from, to),
	}
}

func NewInvalidRoleError(role Role) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidRole,
		Kind:    KindValidation,
		Message: fmt.Sprintf("role %q cannot list bookings", role),
	}
}

func NewInvalidInputError(reason string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidInput,
		Kind:    KindValidation,
		Message: reason,
	}
}
