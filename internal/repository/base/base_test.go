package base_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Freeeeeet/tutor_booking/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTxManager_InTx(t *testing.T) {
	t.Run("commits when fn succeeds", func(t *testing.T) {
		pool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer pool.Close()

		pool.ExpectBegin()
		pool.ExpectExec("UPDATE availability_slots").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		pool.ExpectCommit()

		err = base.NewTxManager(pool, time.Second).InTx(context.Background(), func(ctx context.Context, tx pgx.Tx) error {
			_, err := tx.Exec(ctx, "UPDATE availability_slots SET is_booked = true")
			return err
		})
		require.NoError(t, err)
		require.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("rolls back and returns fn error as is", func(t *testing.T) {
		pool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer pool.Close()

		pool.ExpectBegin()
		pool.ExpectRollback()

		sentinel := errors.New("slot is taken")
		err = base.NewTxManager(pool, 0).InTx(context.Background(), func(context.Context, pgx.Tx) error {
			return sentinel
		})
		assert.Same(t, sentinel, err)
		require.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("rolls back on panic", func(t *testing.T) {
		pool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer pool.Close()

		pool.ExpectBegin()
		pool.ExpectRollback()

		assert.Panics(t, func() {
			_ = base.NewTxManager(pool, 0).InTx(context.Background(), func(context.Context, pgx.Tx) error {
				panic("boom")
			})
		})
		require.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("begin failure", func(t *testing.T) {
		pool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer pool.Close()

		pool.ExpectBegin().WillReturnError(errors.New("too many connections"))

		called := false
		err = base.NewTxManager(pool, 0).InTx(context.Background(), func(context.Context, pgx.Tx) error {
			called = true
			return nil
		})
		assert.ErrorContains(t, err, "begin transaction")
		assert.False(t, called)
	})

	t.Run("commit failure", func(t *testing.T) {
		pool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer pool.Close()

		pool.ExpectBegin()
		pool.ExpectCommit().WillReturnError(errors.New("serialization failure"))

		err = base.NewTxManager(pool, 0).InTx(context.Background(), func(context.Context, pgx.Tx) error {
			return nil
		})
		assert.ErrorContains(t, err, "commit transaction")
	})

	t.Run("timeout cancels a slow statement and rolls back", func(t *testing.T) {
		pool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer pool.Close()

		pool.ExpectBegin()
		pool.ExpectQuery("SELECT id FROM availability_slots").
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(1)).
			WillDelayFor(500 * time.Millisecond)
		pool.ExpectRollback()

		started := time.Now()
		err = base.NewTxManager(pool, 20*time.Millisecond).InTx(context.Background(), func(ctx context.Context, tx pgx.Tx) error {
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)

			var id int
			err := tx.QueryRow(ctx, "SELECT id FROM availability_slots FOR UPDATE").Scan(&id)
			assert.ErrorIs(t, ctx.Err(), context.DeadlineExceeded)
			return err
		})
		elapsed := time.Since(started)

		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, elapsed, 400*time.Millisecond)
		require.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("caller context without timeout stays unbounded", func(t *testing.T) {
		pool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer pool.Close()

		pool.ExpectBegin()
		pool.ExpectCommit()

		err = base.NewTxManager(pool, 0).InTx(context.Background(), func(ctx context.Context, _ pgx.Tx) error {
			_, hasDeadline := ctx.Deadline()
			assert.False(t, hasDeadline)
			return nil
		})
		require.NoError(t, err)
		require.NoError(t, pool.ExpectationsWereMet())
	})
}

func TestIsUniqueViolation(t *testing.T) {
	violation := &pgconn.PgError{Code: "23505", ConstraintName: "bookings_active_slot_key"}

	tests := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{"matching constraint", violation, "bookings_active_slot_key", true},
		{"any constraint", violation, "", true},
		{"wrapped", fmt.Errorf("create booking: %w", violation), "bookings_active_slot_key", true},
		{"other constraint", violation, "reviews_booking_id_key", false},
		{"other code", &pgconn.PgError{Code: "23503"}, "", false},
		{"not a pg error", errors.New("boom"), "", false},
		{"nil", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.IsUniqueViolation(tt.err, tt.constraint))
		})
	}
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, base.IsNotFound(pgx.ErrNoRows))
	assert.True(t, base.IsNotFound(fmt.Errorf("get slot: %w", pgx.ErrNoRows)))
	assert.False(t, base.IsNotFound(errors.New("boom")))
}
