package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutor_booking/internal/model"
	"github.com/Freeeeeet/tutor_booking/internal/repository/base"
	"github.com/google/uuid"
)

// ReviewBookingConstraint уникальность отзыва на бронирование
const ReviewBookingConstraint = "reviews_booking_id_key"

type ReviewRepository struct {
	*base.Repository
}

func NewReviewRepository(q base.Querier) *ReviewRepository {
	return &ReviewRepository{Repository: base.NewRepository(q)}
}

// ExistsForBooking проверяет есть ли отзыв на бронирование
func (r *ReviewRepository) ExistsForBooking(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM reviews WHERE booking_id = $1)`

	var exists bool
	if err := r.QueryRow(ctx, query, bookingID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check review exists: %w", err)
	}

	return exists, nil
}

// Create создаёт отзыв
func (r *ReviewRepository) Create(ctx context.Context, review *model.Review) error {
	query := `
		INSERT INTO reviews (booking_id, student_id, tutor_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.QueryRow(
		ctx, query,
		review.BookingID,
		review.StudentID,
		review.TutorID,
		review.Rating,
		review.Comment,
	).Scan(&review.ID, &review.CreatedAt)

	if err != nil {
		return fmt.Errorf("create review: %w", err)
	}

	return nil
}

// ListByTutor получает отзывы учителя, новые первыми
func (r *ReviewRepository) ListByTutor(ctx context.Context, tutorID uuid.UUID) ([]*model.Review, error) {
	query := `
		SELECT id, booking_id, student_id, tutor_id, rating, comment, created_at
		FROM reviews
		WHERE tutor_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.Query(ctx, query, tutorID)
	if err != nil {
		return nil, fmt.Errorf("get reviews by tutor: %w", err)
	}
	defer rows.Close()

	var reviews []*model.Review
	for rows.Next() {
		var rv model.Review
		err := rows.Scan(&rv.ID, &rv.BookingID, &rv.StudentID, &rv.TutorID, &rv.Rating, &rv.Comment, &rv.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, &rv)
	}

	return reviews, rows.Err()
}
