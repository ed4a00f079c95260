package service

import (
	"context"

	"github.com/Freeeeeet/tutor_booking/internal/model"
	"github.com/Freeeeeet/tutor_booking/internal/repository"
	"github.com/Freeeeeet/tutor_booking/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type TutorService struct {
	tx     *base.TxManager
	logger *zap.Logger
}

func NewTutorService(tx *base.TxManager, logger *zap.Logger) *TutorService {
	return &TutorService{
		tx:     tx,
		logger: logger,
	}
}

// UpsertProfile создаёт или обновляет профиль учителя и заменяет его категории
func (s *TutorService) UpsertProfile(ctx context.Context, userID uuid.UUID, input model.ProfileInput) (*model.TutorProfile, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var profile *model.TutorProfile

	err := s.tx.InTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		users := repository.NewUserRepository(tx)
		profiles := repository.NewTutorProfileRepository(tx)

		user, err := users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil || user.Role != model.RoleTutor {
			return model.NewUnauthorizedError("only tutors can have a profile")
		}

		p := &model.TutorProfile{
			UserID:       userID,
			PricePerHour: input.PricePerHour,
			Experience:   input.Experience,
			Bio:          input.Bio,
		}
		if err := profiles.Upsert(ctx, p); err != nil {
			return err
		}

		if err := profiles.ReplaceCategories(ctx, p.ID, input.CategoryIDs); err != nil {
			return err
		}
		p.CategoryIDs, err = profiles.ListCategoryIDs(ctx, p.ID)
		if err != nil {
			return err
		}

		profile = p
		return nil
	})
	if err != nil {
		s.logger.Warn("Failed to save tutor profile",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Tutor profile saved",
		zap.String("profile_id", profile.ID.String()),
		zap.String("user_id", userID.String()),
		zap.Int("categories", len(profile.CategoryIDs)))

	return profile, nil
}

// GetProfile получает профиль учителя с категориями. nil, если профиля нет.
func (s *TutorService) GetProfile(ctx context.Context, userID uuid.UUID) (*model.TutorProfile, error) {
	profiles := repository.NewTutorProfileRepository(s.tx.DB())

	profile, err := profiles.GetByUserID(ctx, userID)
	if err != nil || profile == nil {
		return nil, err
	}

	profile.CategoryIDs, err = profiles.ListCategoryIDs(ctx, profile.ID)
	if err != nil {
		return nil, err
	}

	return profile, nil
}

// ListMyStudents получает неотменённые бронирования учителя со сведениями о студентах
func (s *TutorService) ListMyStudents(ctx context.Context, userID uuid.UUID) ([]*model.BookingDetails, error) {
	db := s.tx.DB()

	profile, err := repository.NewTutorProfileRepository(db).GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return []*model.BookingDetails{}, nil
	}

	list, err := repository.NewBookingRepository(db).ListActiveByTutor(ctx, profile.ID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*model.BookingDetails{}
	}

	return list, nil
}
