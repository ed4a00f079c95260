package base

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

const rollbackTimeout = 5 * time.Second

// TxManager открывает транзакции с ограничением по времени
type TxManager struct {
	db      DB
	timeout time.Duration
}

// NewTxManager создаёт менеджер транзакций. timeout <= 0 - без ограничения.
func NewTxManager(db DB, timeout time.Duration) *TxManager {
	return &TxManager{db: db, timeout: timeout}
}

// DB возвращает хранилище для чтений вне транзакции
func (m *TxManager) DB() DB {
	return m.db
}

// InTx выполняет fn в транзакции. Любая ошибка fn, паника или таймаут
// приводят к полному откату; ошибка fn возвращается без обёртки.
// Все запросы внутри fn должны идти с переданным ей ctx, на нём действует таймаут.
func (m *TxManager) InTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) (err error) {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	tx, err := m.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			// Откат должен дойти до базы и после истечения таймаута
			rollbackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
			defer cancel()
			_ = tx.Rollback(rollbackCtx)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true

	return nil
}
