package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/sandeeptech8/library-api/internal/errs"
)

// TxFunc runs inside an open transaction. The ExtContext it receives is
// the transaction itself, so every statement issued through it shares
// one unit of work.
type TxFunc func(ctx context.Context, ec sqlx.ExtContext) error

// WithinTx runs fn in a transaction that is rolled back on error or
// panic and committed otherwise. A failed commit is reported as a
// retryable database error.
func (r *repository) WithinTx(ctx context.Context, fn TxFunc) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errs.Classify(err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			r.log.Error("tx rollback", zap.Error(rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return errs.Classify(err)
	}
	return nil
}
