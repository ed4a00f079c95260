package service_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/tutor_booking/internal/app"
	"github.com/Freeeeeet/tutor_booking/internal/model"
	"github.com/Freeeeeet/tutor_booking/internal/notify"
	"github.com/Freeeeeet/tutor_booking/internal/repository/base"
	"github.com/Freeeeeet/tutor_booking/internal/service"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Тесты против настоящего PostgreSQL, запускаются только с TEST_DATABASE_DSN
func integrationPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN is not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	migrator, err := app.NewMigrator(pool, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, migrator.Run(ctx))
	require.NoError(t, migrator.Close())

	_, err = pool.Exec(ctx, `TRUNCATE reviews, bookings, availability_slots, tutor_categories, tutor_profiles, categories, users CASCADE`)
	require.NoError(t, err)

	return pool
}

func createUser(t *testing.T, pool *pgxpool.Pool, name string, role model.Role) uuid.UUID {
	t.Helper()

	var id uuid.UUID
	err := pool.QueryRow(context.Background(),
		`INSERT INTO users (name, email, role) VALUES ($1, $2, $3) RETURNING id`,
		name, name+"-"+uuid.NewString()+"@example.com", role,
	).Scan(&id)
	require.NoError(t, err)

	return id
}

type core struct {
	availability *service.AvailabilityService
	bookings     *service.BookingService
	reviews      *service.ReviewService
	tutors       *service.TutorService
}

func newCore(pool *pgxpool.Pool) core {
	tx := base.NewTxManager(pool, 5*time.Second)
	logger := zap.NewNop()
	return core{
		availability: service.NewAvailabilityService(tx, nopRecorder{}, logger),
		bookings:     service.NewBookingService(tx, notify.NopNotifier{}, nopRecorder{}, logger),
		reviews:      service.NewReviewService(tx, notify.NopNotifier{}, nopRecorder{}, logger),
		tutors:       service.NewTutorService(tx, logger),
	}
}

func TestIntegration_BookingLifecycle(t *testing.T) {
	pool := integrationPool(t)
	ctx := context.Background()
	c := newCore(pool)

	tutorUser := createUser(t, pool, "tutor", model.RoleTutor)
	profile, err := c.tutors.UpsertProfile(ctx, tutorUser, model.ProfileInput{PricePerHour: 40, Experience: 3, Bio: "Physics"})
	require.NoError(t, err)

	day := time.Now().UTC().Truncate(24 * time.Hour).Add(48 * time.Hour)
	hour := func(h int) time.Time { return day.Add(time.Duration(h) * time.Hour) }

	// Интервал 09:00-11:00 даёт два свободных слота
	count, err := c.availability.UpdateAvailability(ctx, tutorUser, []model.TimeRange{{StartTime: hour(9), EndTime: hour(11)}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	free, err := c.availability.ListFreeSlots(ctx, profile.ID, day, day.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, free, 2)
	assert.Equal(t, hour(9), free[0].StartTime.UTC())
	assert.Equal(t, hour(10), free[1].StartTime.UTC())

	// Параллельные бронирования одного слота: побеждает ровно одно
	const contenders = 8
	students := make([]uuid.UUID, contenders)
	for i := range students {
		students[i] = createUser(t, pool, "student", model.RoleStudent)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		winners  []*model.Booking
		failures []error
	)
	for _, studentID := range students {
		wg.Add(1)
		go func(studentID uuid.UUID) {
			defer wg.Done()
			b, err := c.bookings.Reserve(ctx, studentID, profile.ID, free[1].ID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, err)
				return
			}
			winners = append(winners, b)
		}(studentID)
	}
	wg.Wait()

	require.Len(t, winners, 1)
	require.Len(t, failures, contenders-1)
	for _, err := range failures {
		assert.ErrorIs(t, err, model.ErrSlotAlreadyBooked)
	}
	booking := winners[0]
	assert.Equal(t, model.BookingStatusConfirmed, booking.Status)

	// Перепубликация не трогает занятый 10:00 и не создаёт слот поверх него
	count, err = c.availability.UpdateAvailability(ctx, tutorUser, []model.TimeRange{{StartTime: hour(9), EndTime: hour(12)}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	details, err := c.bookings.GetByID(ctx, booking.ID)
	require.NoError(t, err)
	require.NotNil(t, details.Slot)
	assert.True(t, details.Slot.IsBooked)
	assert.Equal(t, hour(10), details.Slot.StartTime.UTC())

	// Отмена освобождает слот, и его снова можно забронировать
	cancelled, err := c.bookings.Transition(ctx, booking.ID, booking.StudentID, model.BookingStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCancelled, cancelled.Status)

	details, err = c.bookings.GetByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.False(t, details.Slot.IsBooked)

	again, err := c.bookings.Reserve(ctx, students[0], profile.ID, free[1].ID)
	require.NoError(t, err)

	_, err = c.bookings.Transition(ctx, booking.ID, booking.StudentID, model.BookingStatusConfirmed)
	assert.True(t, errors.Is(err, model.ErrInvalidTransition) || errors.Is(err, model.ErrUnauthorizedTransition))

	list, err := c.bookings.ListForUser(ctx, tutorUser, model.RoleTutor)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, again.ID, list[0].ID)
}

func TestIntegration_AverageRating(t *testing.T) {
	pool := integrationPool(t)
	ctx := context.Background()
	c := newCore(pool)

	tutorUser := createUser(t, pool, "tutor", model.RoleTutor)
	profile, err := c.tutors.UpsertProfile(ctx, tutorUser, model.ProfileInput{PricePerHour: 25})
	require.NoError(t, err)

	day := time.Now().UTC().Truncate(24 * time.Hour).Add(72 * time.Hour)
	_, err = c.availability.UpdateAvailability(ctx, tutorUser, []model.TimeRange{{StartTime: day, EndTime: day.Add(2 * time.Hour)}})
	require.NoError(t, err)

	free, err := c.availability.ListFreeSlots(ctx, profile.ID, day, day.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, free, 2)

	ratings := []int{4, 5}
	var reviewed []*model.Booking
	for i, slot := range free {
		student := createUser(t, pool, "student", model.RoleStudent)
		b, err := c.bookings.Reserve(ctx, student, profile.ID, slot.ID)
		require.NoError(t, err)

		_, err = c.bookings.Transition(ctx, b.ID, tutorUser, model.BookingStatusCompleted)
		require.NoError(t, err)

		_, err = c.reviews.SubmitReview(ctx, student, profile.ID, b.ID, ratings[i], "")
		require.NoError(t, err)
		reviewed = append(reviewed, b)
	}

	got, err := c.tutors.GetProfile(ctx, tutorUser)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, got.AverageRating, 1e-9)

	// Повторный отзыв - конфликт, рейтинг не меняется
	_, err = c.reviews.SubmitReview(ctx, reviewed[0].StudentID, profile.ID, reviewed[0].ID, 1, "")
	assert.ErrorIs(t, err, model.ErrDuplicateReview)

	got, err = c.tutors.GetProfile(ctx, tutorUser)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, got.AverageRating, 1e-9)
}
