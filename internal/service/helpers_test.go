package service_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/Freeeeeet/tutor_booking/internal/model"
	"github.com/Freeeeeet/tutor_booking/internal/repository/base"
	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	slotColumns    = []string{"id", "tutor_id", "start_time", "end_time", "is_booked", "created_at"}
	bookingColumns = []string{"id", "student_id", "tutor_id", "slot_id", "status", "created_at", "updated_at", "user_id"}
	profileColumns = []string{"id", "user_id", "price_per_hour", "experience", "bio", "average_rating", "created_at", "updated_at"}
	detailsColumns = []string{
		"id", "student_id", "tutor_id", "slot_id", "status", "created_at", "updated_at", "user_id",
		"start_time", "end_time", "is_booked", "slot_created_at",
		"student_name", "student_email", "student_chat",
		"tutor_name", "tutor_email", "tutor_chat",
	}
)

func q(fragment string) string {
	return regexp.QuoteMeta(fragment)
}

func newMockTx(t *testing.T) (pgxmock.PgxPoolIface, *base.TxManager) {
	t.Helper()

	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool, base.NewTxManager(pool, time.Second)
}

// nopRecorder метрики, которые никуда не пишутся
type nopRecorder struct{}

func (nopRecorder) RecordReservation(string) {}
func (nopRecorder) RecordTransition(model.BookingStatus, model.BookingStatus) {}
func (nopRecorder) RecordReview(string) {}
func (nopRecorder) RecordSlotsGenerated(int64) {}
func (nopRecorder) RecordMaintenance(string, int64) {}
func (nopRecorder) ObserveTx(string, time.Duration) {}

type notifierMock struct {
	mock.Mock
}

func (m *notifierMock) BookingReserved(ctx context.Context, booking *model.Booking) error {
	return m.Called(ctx, booking).Error(0)
}

func (m *notifierMock) BookingStatusChanged(ctx context.Context, booking *model.Booking, from model.BookingStatus, actorID uuid.UUID) error {
	return m.Called(ctx, booking, from, actorID).Error(0)
}

func (m *notifierMock) ReviewSubmitted(ctx context.Context, review *model.Review) error {
	return m.Called(ctx, review).Error(0)
}

type fixture struct {
	studentID   uuid.UUID
	tutorUserID uuid.UUID
	tutorID     uuid.UUID
	slotID      uuid.UUID
	bookingID   uuid.UUID
	start       time.Time
	now         time.Time
}

func newFixture() fixture {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	return fixture{
		studentID:   uuid.New(),
		tutorUserID: uuid.New(),
		tutorID:     uuid.New(),
		slotID:      uuid.New(),
		bookingID:   uuid.New(),
		start:       now.Add(2 * time.Hour),
		now:         now,
	}
}

func (f fixture) slotRows(booked bool) *pgxmock.Rows {
	return pgxmock.NewRows(slotColumns).
		AddRow(f.slotID, f.tutorID, f.start, f.start.Add(time.Hour), booked, f.now)
}

func (f fixture) bookingRows(status model.BookingStatus) *pgxmock.Rows {
	slotID := f.slotID
	return pgxmock.NewRows(bookingColumns).
		AddRow(f.bookingID, f.studentID, f.tutorID, &slotID, status, f.now, f.now, f.tutorUserID)
}

func (f fixture) profileRows(rating float64) *pgxmock.Rows {
	return pgxmock.NewRows(profileColumns).
		AddRow(f.tutorID, f.tutorUserID, 30.0, 5, "Math tutor", rating, f.now, f.now)
}

func (f fixture) detailsRows(status model.BookingStatus) *pgxmock.Rows {
	slotID := f.slotID
	end := f.start.Add(time.Hour)
	booked := status != model.BookingStatusCancelled
	chat := int64(42)
	return pgxmock.NewRows(detailsColumns).
		AddRow(
			f.bookingID, f.studentID, f.tutorID, &slotID, status, f.now, f.now, f.tutorUserID,
			&f.start, &end, &booked, &f.now,
			"Alice", "alice@example.com", &chat,
			"Bob", "bob@example.com", (*int64)(nil),
		)
}
