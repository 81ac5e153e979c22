package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/sandeeptech8/library-api/internal/errs"
	"github.com/sandeeptech8/library-api/internal/model"
)

// Inventory store and loan ledger primitives. All of them are meant to
// run inside a WithinTx unit of work; the FOR UPDATE reads serialize
// concurrent borrow/return calls touching the same book row.

const loanColumns = `id, loan_uid, patron_id, book_id, loan_date, due_date, return_date`

// AvailableCopiesForUpdate locks the book row and returns its counter.
func (r *repository) AvailableCopiesForUpdate(ctx context.Context, ec sqlx.ExtContext, bookID int) (int, error) {
	q := `select available_copies from books where id = $1 for update`

	var copies int
	if err := sqlx.GetContext(ctx, ec, &copies, q, bookID); err != nil {
		return 0, errs.Classify(err)
	}
	if copies < 0 {
		// the coordinator is the sole mutator, so a negative counter
		// means the data was corrupted outside of it
		return 0, errors.WithMessage(errs.ErrDatabase, "negative available_copies")
	}
	return copies, nil
}

func (r *repository) DecrementAvailableCopies(ctx context.Context, ec sqlx.ExtContext, bookID int) error {
	q := `
	update books
		set available_copies = available_copies - 1
	where id = $1 and available_copies > 0`

	res, err := ec.ExecContext(ctx, q, bookID)
	if err != nil {
		return errs.Classify(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.ErrNoCopies
	}
	return nil
}

func (r *repository) IncrementAvailableCopies(ctx context.Context, ec sqlx.ExtContext, bookID int) error {
	q := `
	update books
		set available_copies = available_copies + 1
	where id = $1`

	res, err := ec.ExecContext(ctx, q, bookID)
	if err != nil {
		return errs.Classify(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// FindOpenLoanForUpdate returns the unique outstanding loan for the
// (patron, book) pair, locked for the duration of the transaction.
func (r *repository) FindOpenLoanForUpdate(ctx context.Context, ec sqlx.ExtContext, patronID, bookID int) (model.Loan, error) {
	q := `
	select ` + loanColumns + `
	from loans
	where patron_id = $1 and book_id = $2 and return_date is null
	for update`

	var loan model.Loan
	if err := sqlx.GetContext(ctx, ec, &loan, q, patronID, bookID); err != nil {
		return model.Loan{}, errs.Classify(err)
	}
	return loan, nil
}

func (r *repository) CreateLoan(ctx context.Context, ec sqlx.ExtContext, patronID, bookID int) (model.Loan, error) {
	now := time.Now().UTC()
	query, args, err := qb.Insert(loansTableName).
		Columns("loan_uid", "patron_id", "book_id", "loan_date", "due_date").
		Values(uuid.New(), patronID, bookID,
			now.Format(time.DateOnly),
			now.AddDate(0, 0, model.LoanPeriodDays).Format(time.DateOnly)).
		Suffix("returning " + loanColumns).
		ToSql()
	if err != nil {
		return model.Loan{}, err
	}

	var loan model.Loan
	if err := sqlx.GetContext(ctx, ec, &loan, query, args...); err != nil {
		return model.Loan{}, errs.Classify(err)
	}
	return loan, nil
}

// CloseLoan stamps the return date. Closing an already closed loan is a
// conflict; it cannot happen under the locking protocol.
func (r *repository) CloseLoan(ctx context.Context, ec sqlx.ExtContext, loanID int) error {
	q := `
	update loans
		set return_date = current_date
	where id = $1 and return_date is null`

	res, err := ec.ExecContext(ctx, q, loanID)
	if err != nil {
		return errs.Classify(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.ErrAlreadyReturned
	}
	return nil
}
