package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutor_booking/internal/metrics"
	"github.com/Freeeeeet/tutor_booking/internal/model"
	"github.com/Freeeeeet/tutor_booking/internal/repository"
	"github.com/Freeeeeet/tutor_booking/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ReviewService struct {
	tx       *base.TxManager
	notifier Notifier
	metrics  metrics.Recorder
	logger   *zap.Logger
}

func NewReviewService(
	tx *base.TxManager,
	notifier Notifier,
	recorder metrics.Recorder,
	logger *zap.Logger,
) *ReviewService {
	return &ReviewService{
		tx:       tx,
		notifier: notifier,
		metrics:  recorder,
		logger:   logger,
	}
}

// SubmitReview сохраняет отзыв студента о бронировании и пересчитывает средний рейтинг учителя.
// tutorID, если задан, должен совпадать с учителем бронирования.
func (s *ReviewService) SubmitReview(ctx context.Context, studentID, tutorID, bookingID uuid.UUID, rating int, comment string) (*model.Review, error) {
	var (
		review *model.Review
		avg    float64
	)

	started := time.Now()
	err := s.tx.InTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		reviews := repository.NewReviewRepository(tx)
		bookings := repository.NewBookingRepository(tx)
		profiles := repository.NewTutorProfileRepository(tx)

		exists, err := reviews.ExistsForBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if exists {
			return model.NewDuplicateReviewError(bookingID)
		}

		booking, err := bookings.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if booking == nil {
			return model.NewBookingNotFoundError(bookingID)
		}

		if booking.StudentID != studentID {
			return model.NewUnauthorizedError("only the student of the booking can review it")
		}
		if tutorID != uuid.Nil && booking.TutorID != tutorID {
			return model.NewInvalidInputError("tutor does not match the booking")
		}
		if !model.ValidRating(rating) {
			return model.NewInvalidInputError(fmt.Sprintf("rating must be between %d and %d", model.MinRating, model.MaxRating))
		}

		// Отзывы одного учителя пересчитываются строго по очереди
		found, err := profiles.LockByID(ctx, booking.TutorID)
		if err != nil {
			return err
		}
		if !found {
			return model.NewProfileNotFoundError(booking.TutorUserID)
		}

		rv := &model.Review{
			BookingID: bookingID,
			StudentID: booking.StudentID,
			TutorID:   booking.TutorID,
			Rating:    rating,
			Comment:   comment,
		}
		if err := reviews.Create(ctx, rv); err != nil {
			if base.IsUniqueViolation(err, repository.ReviewBookingConstraint) {
				return model.NewDuplicateReviewError(bookingID)
			}
			return err
		}

		avg, err = profiles.RecomputeAverageRating(ctx, booking.TutorID)
		if err != nil {
			return err
		}

		review = rv
		return nil
	})
	s.metrics.ObserveTx("submit_review", time.Since(started))
	s.metrics.RecordReview(metrics.Outcome(err))

	if err != nil {
		s.logger.Warn("Failed to submit review",
			zap.String("booking_id", bookingID.String()),
			zap.String("student_id", studentID.String()),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Review submitted",
		zap.String("review_id", review.ID.String()),
		zap.String("booking_id", bookingID.String()),
		zap.String("tutor_id", review.TutorID.String()),
		zap.Int("rating", rating),
		zap.Float64("average_rating", avg))

	if err := s.notifier.ReviewSubmitted(ctx, review); err != nil {
		s.logger.Warn("Failed to notify about review",
			zap.String("review_id", review.ID.String()),
			zap.Error(err))
	}

	return review, nil
}

// ListForTutor получает отзывы учителя, новые первыми
func (s *ReviewService) ListForTutor(ctx context.Context, tutorID uuid.UUID) ([]*model.Review, error) {
	reviews, err := repository.NewReviewRepository(s.tx.DB()).ListByTutor(ctx, tutorID)
	if err != nil {
		return nil, err
	}
	if reviews == nil {
		reviews = []*model.Review{}
	}

	return reviews, nil
}
