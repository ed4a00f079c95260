package model

import (
	"time"

	"github.com/google/uuid"
)

type TutorProfile struct {
	ID            uuid.UUID   `json:"id"`
	UserID        uuid.UUID   `json:"user_id"`
	PricePerHour  float64     `json:"price_per_hour"`
	Experience    int         `json:"experience"` // лет
	Bio           string      `json:"bio"`
	CategoryIDs   []uuid.UUID `json:"category_ids"`
	AverageRating float64     `json:"average_rating"` // пересчитывается при каждом отзыве
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// ProfileInput данные для создания или обновления профиля
type ProfileInput struct {
	PricePerHour float64
	Experience   int
	Bio          string
	CategoryIDs  []uuid.UUID
}

func (in ProfileInput) Validate() error {
	if in.PricePerHour < 0 {
		return NewInvalidInputError("price per hour must not be negative")
	}
	if in.Experience < 0 {
		return NewInvalidInputError("experience must not be negative")
	}
	return nil
}
