package service

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/sandeeptech8/library-api/internal/errs"
	"github.com/sandeeptech8/library-api/internal/model"
)

// BorrowBook lends a copy of the book to the patron. The whole call is
// one transaction: the book row is locked first, then the open-loan
// lookup, so concurrent borrows of the same book serialize on the
// inventory row and never oversell the last copy. Any failure rolls
// back both the counter decrement and the loan insert.
func (s *Service) BorrowBook(ctx context.Context, patronID, bookID int) (model.Loan, error) {
	var loan model.Loan
	err := s.repo.WithinTx(ctx, func(ctx context.Context, ec sqlx.ExtContext) error {
		copies, err := s.repo.AvailableCopiesForUpdate(ctx, ec, bookID)
		if err != nil {
			return err
		}
		if copies == 0 {
			return errs.ErrNoCopies
		}
		_, err = s.repo.FindOpenLoanForUpdate(ctx, ec, patronID, bookID)
		if err == nil {
			return errs.ErrAlreadyBorrowed
		}
		if !errors.Is(err, errs.ErrNotFound) {
			return err
		}
		if err := s.repo.DecrementAvailableCopies(ctx, ec, bookID); err != nil {
			return err
		}
		loan, err = s.repo.CreateLoan(ctx, ec, patronID, bookID)
		return err
	})
	if err != nil {
		return model.Loan{}, err
	}
	s.log.Info("book borrowed",
		zap.Int("patronID", patronID),
		zap.Int("bookID", bookID),
		zap.Int("loanID", loan.ID))
	return loan, nil
}

// ReturnBook closes the patron's open loan and puts the copy back. Lock
// order matches BorrowBook: book row first, then the loan row.
func (s *Service) ReturnBook(ctx context.Context, patronID, bookID int) error {
	err := s.repo.WithinTx(ctx, func(ctx context.Context, ec sqlx.ExtContext) error {
		if _, err := s.repo.AvailableCopiesForUpdate(ctx, ec, bookID); err != nil {
			return err
		}
		loan, err := s.repo.FindOpenLoanForUpdate(ctx, ec, patronID, bookID)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				return errs.ErrNoActiveLoan
			}
			return err
		}
		if err := s.repo.CloseLoan(ctx, ec, loan.ID); err != nil {
			return err
		}
		return s.repo.IncrementAvailableCopies(ctx, ec, bookID)
	})
	if err != nil {
		return err
	}
	s.log.Info("book returned",
		zap.Int("patronID", patronID),
		zap.Int("bookID", bookID))
	return nil
}
