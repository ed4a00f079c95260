package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutor_booking/internal/model"
	"github.com/Freeeeeet/tutor_booking/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type TutorProfileRepository struct {
	*base.Repository
}

func NewTutorProfileRepository(q base.Querier) *TutorProfileRepository {
	return &TutorProfileRepository{Repository: base.NewRepository(q)}
}

func scanProfile(row pgx.Row) (*model.TutorProfile, error) {
	var p model.TutorProfile
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.PricePerHour,
		&p.Experience,
		&p.Bio,
		&p.AverageRating,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByUserID получает профиль учителя по пользователю (без категорий)
func (r *TutorProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.TutorProfile, error) {
	query := `
		SELECT id, user_id, price_per_hour, experience, bio, average_rating, created_at, updated_at
		FROM tutor_profiles
		WHERE user_id = $1
	`

	p, err := scanProfile(r.QueryRow(ctx, query, userID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tutor profile by user: %w", err)
	}

	return p, nil
}

// GetByUserIDForUpdate получает профиль и блокирует его строку.
// Используется для сериализации перепубликации расписания одного учителя.
func (r *TutorProfileRepository) GetByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*model.TutorProfile, error) {
	query := `
		SELECT id, user_id, price_per_hour, experience, bio, average_rating, created_at, updated_at
		FROM tutor_profiles
		WHERE user_id = $1
		FOR UPDATE
	`

	p, err := scanProfile(r.QueryRow(ctx, query, userID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock tutor profile: %w", err)
	}

	return p, nil
}

// LockByID блокирует строку профиля. false - профиль не найден.
func (r *TutorProfileRepository) LockByID(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `SELECT id FROM tutor_profiles WHERE id = $1 FOR UPDATE`

	var locked uuid.UUID
	if err := r.QueryRow(ctx, query, id).Scan(&locked); err != nil {
		if base.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("lock tutor profile: %w", err)
	}

	return true, nil
}

// Upsert создаёт профиль или обновляет поля существующего.
// average_rating здесь никогда не пишется.
func (r *TutorProfileRepository) Upsert(ctx context.Context, p *model.TutorProfile) error {
	query := `
		INSERT INTO tutor_profiles (user_id, price_per_hour, experience, bio)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET price_per_hour = EXCLUDED.price_per_hour, experience = EXCLUDED.experience, bio = EXCLUDED.bio, updated_at = now()
		RETURNING id, average_rating, created_at, updated_at
	`

	err := r.QueryRow(ctx, query, p.UserID, p.PricePerHour, p.Experience, p.Bio).
		Scan(&p.ID, &p.AverageRating, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert tutor profile: %w", err)
	}

	return nil
}

// ReplaceCategories заменяет набор категорий профиля
func (r *TutorProfileRepository) ReplaceCategories(ctx context.Context, tutorID uuid.UUID, categoryIDs []uuid.UUID) error {
	if _, err := r.ExecAffected(ctx, `DELETE FROM tutor_categories WHERE tutor_id = $1`, tutorID); err != nil {
		return fmt.Errorf("clear tutor categories: %w", err)
	}

	if len(categoryIDs) == 0 {
		return nil
	}

	query := `
		INSERT INTO tutor_categories (tutor_id, category_id)
		SELECT $1, unnest($2::uuid[])
		ON CONFLICT DO NOTHING
	`
	if _, err := r.ExecAffected(ctx, query, tutorID, categoryIDs); err != nil {
		return fmt.Errorf("set tutor categories: %w", err)
	}

	return nil
}

// ListCategoryIDs получает категории профиля
func (r *TutorProfileRepository) ListCategoryIDs(ctx context.Context, tutorID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT category_id FROM tutor_categories WHERE tutor_id = $1 ORDER BY category_id`

	rows, err := r.Query(ctx, query, tutorID)
	if err != nil {
		return nil, fmt.Errorf("get tutor categories: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan category id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// RecomputeAverageRating пересчитывает средний рейтинг как AVG по всем отзывам учителя
func (r *TutorProfileRepository) RecomputeAverageRating(ctx context.Context, tutorID uuid.UUID) (float64, error) {
	query := `
		UPDATE tutor_profiles
		SET average_rating = (SELECT COALESCE(AVG(rating), 0)::float8 FROM reviews WHERE tutor_id = $1), updated_at = now()
		WHERE id = $1
		RETURNING average_rating
	`

	var avg float64
	if err := r.QueryRow(ctx, query, tutorID).Scan(&avg); err != nil {
		return 0, fmt.Errorf("recompute average rating: %w", err)
	}

	return avg, nil
}
