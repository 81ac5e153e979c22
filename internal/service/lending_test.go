package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sandeeptech8/library-api/internal/errs"
	"github.com/sandeeptech8/library-api/internal/model"
	"github.com/sandeeptech8/library-api/internal/repository"
	"github.com/sandeeptech8/library-api/internal/service"
)

// fakeRepo emulates the storage semantics the coordinator relies on:
// WithinTx serializes units of work and rolls state back on error, the
// decrement is guarded, and at most one open loan may exist per
// (patron, book) pair.
type fakeRepo struct {
	repository.Repository

	mu     sync.Mutex
	copies map[int]int
	loans  []model.Loan
	nextID int

	failCreateLoan bool
}

func newFakeRepo(copies map[int]int) *fakeRepo {
	return &fakeRepo{copies: copies}
}

func (f *fakeRepo) WithinTx(ctx context.Context, fn repository.TxFunc) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	snapCopies := make(map[int]int, len(f.copies))
	for k, v := range f.copies {
		snapCopies[k] = v
	}
	snapLoans := make([]model.Loan, len(f.loans))
	copy(snapLoans, f.loans)
	snapNextID := f.nextID

	if err := fn(ctx, nil); err != nil {
		f.copies = snapCopies
		f.loans = snapLoans
		f.nextID = snapNextID
		return err
	}
	return nil
}

func (f *fakeRepo) AvailableCopiesForUpdate(_ context.Context, _ sqlx.ExtContext, bookID int) (int, error) {
	copies, ok := f.copies[bookID]
	if !ok {
		return 0, errs.ErrNotFound
	}
	if copies < 0 {
		return 0, errors.WithMessage(errs.ErrDatabase, "negative available_copies")
	}
	return copies, nil
}

func (f *fakeRepo) DecrementAvailableCopies(_ context.Context, _ sqlx.ExtContext, bookID int) error {
	if f.copies[bookID] <= 0 {
		return errs.ErrNoCopies
	}
	f.copies[bookID]--
	return nil
}

func (f *fakeRepo) IncrementAvailableCopies(_ context.Context, _ sqlx.ExtContext, bookID int) error {
	if _, ok := f.copies[bookID]; !ok {
		return errs.ErrNotFound
	}
	f.copies[bookID]++
	return nil
}

func (f *fakeRepo) FindOpenLoanForUpdate(_ context.Context, _ sqlx.ExtContext, patronID, bookID int) (model.Loan, error) {
	for _, loan := range f.loans {
		if loan.PatronID == patronID && loan.BookID == bookID && loan.ReturnDate == nil {
			return loan, nil
		}
	}
	return model.Loan{}, errs.ErrNotFound
}

func (f *fakeRepo) CreateLoan(_ context.Context, _ sqlx.ExtContext, patronID, bookID int) (model.Loan, error) {
	if f.failCreateLoan {
		return model.Loan{}, errors.WithMessage(errs.ErrDatabase, "insert failed")
	}
	now := time.Now().UTC()
	f.nextID++
	loan := model.Loan{
		ID:       f.nextID,
		LoanUid:  uuid.NewString(),
		PatronID: patronID,
		BookID:   bookID,
		LoanDate: model.NewDate(now),
		DueDate:  model.NewDate(now.AddDate(0, 0, model.LoanPeriodDays)),
	}
	f.loans = append(f.loans, loan)
	return loan, nil
}

func (f *fakeRepo) CloseLoan(_ context.Context, _ sqlx.ExtContext, loanID int) error {
	for i, loan := range f.loans {
		if loan.ID == loanID && loan.ReturnDate == nil {
			d := model.NewDate(time.Now().UTC())
			f.loans[i].ReturnDate = &d
			return nil
		}
	}
	return errs.ErrAlreadyReturned
}

func (f *fakeRepo) openLoans(bookID int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, loan := range f.loans {
		if loan.BookID == bookID && loan.ReturnDate == nil {
			n++
		}
	}
	return n
}

func (f *fakeRepo) available(bookID int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.copies[bookID]
}

// available + open loans must equal the provisioned copy count after
// every committed call.
func requireInventoryInvariant(t *testing.T, repo *fakeRepo, bookID, total int) {
	t.Helper()
	require.Equal(t, total, repo.available(bookID)+repo.openLoans(bookID))
}

func newLendingService(repo *fakeRepo) *service.Service {
	return service.NewService(repo, zap.NewExample().Named("test"))
}

func TestService_BorrowBook(t *testing.T) {
	ctx := context.Background()

	t.Run("borrow last copy then unavailable", func(t *testing.T) {
		repo := newFakeRepo(map[int]int{7: 1})
		svc := newLendingService(repo)

		loan, err := svc.BorrowBook(ctx, 1, 7)
		require.NoError(t, err)
		require.Equal(t, 1, loan.PatronID)
		require.Equal(t, 7, loan.BookID)
		require.NotEmpty(t, loan.LoanUid)
		require.Nil(t, loan.ReturnDate)
		require.Equal(t, loan.LoanDate.AddDate(0, 0, model.LoanPeriodDays), loan.DueDate.Time)
		require.Equal(t, 0, repo.available(7))

		_, err = svc.BorrowBook(ctx, 2, 7)
		require.ErrorIs(t, err, errs.ErrNoCopies)
		require.Equal(t, 0, repo.available(7))
		requireInventoryInvariant(t, repo, 7, 1)
	})

	t.Run("duplicate borrow rejected before inventory", func(t *testing.T) {
		repo := newFakeRepo(map[int]int{7: 2})
		svc := newLendingService(repo)

		_, err := svc.BorrowBook(ctx, 1, 7)
		require.NoError(t, err)

		_, err = svc.BorrowBook(ctx, 1, 7)
		require.ErrorIs(t, err, errs.ErrAlreadyBorrowed)
		require.Equal(t, 1, repo.available(7), "rejected borrow must not decrement")
		require.Equal(t, 1, repo.openLoans(7))
		requireInventoryInvariant(t, repo, 7, 2)
	})

	t.Run("unknown book", func(t *testing.T) {
		repo := newFakeRepo(map[int]int{})
		svc := newLendingService(repo)

		_, err := svc.BorrowBook(ctx, 1, 99)
		require.ErrorIs(t, err, errs.ErrNotFound)
	})

	t.Run("loan insert failure rolls back decrement", func(t *testing.T) {
		repo := newFakeRepo(map[int]int{7: 1})
		repo.failCreateLoan = true
		svc := newLendingService(repo)

		_, err := svc.BorrowBook(ctx, 1, 7)
		require.ErrorIs(t, err, errs.ErrDatabase)
		require.Equal(t, 1, repo.available(7), "no partial effect may survive the rollback")
		require.Equal(t, 0, repo.openLoans(7))
	})
}

func TestService_ReturnBook(t *testing.T) {
	ctx := context.Background()

	t.Run("return reopens inventory and keeps history", func(t *testing.T) {
		repo := newFakeRepo(map[int]int{7: 1})
		svc := newLendingService(repo)

		first, err := svc.BorrowBook(ctx, 1, 7)
		require.NoError(t, err)

		require.NoError(t, svc.ReturnBook(ctx, 1, 7))
		require.Equal(t, 1, repo.available(7))
		require.NotNil(t, repo.loans[0].ReturnDate, "closed loan keeps its return date")

		// a fresh cycle creates a second loan row, the old one stays
		second, err := svc.BorrowBook(ctx, 1, 7)
		require.NoError(t, err)
		require.NotEqual(t, first.ID, second.ID)
		require.Len(t, repo.loans, 2)
		requireInventoryInvariant(t, repo, 7, 1)
	})

	t.Run("return without active loan", func(t *testing.T) {
		repo := newFakeRepo(map[int]int{7: 1})
		svc := newLendingService(repo)

		err := svc.ReturnBook(ctx, 9, 7)
		require.ErrorIs(t, err, errs.ErrNotFound)
		require.Equal(t, 1, repo.available(7), "failed return leaves the counter untouched")
	})

	t.Run("second return is not duplicated", func(t *testing.T) {
		repo := newFakeRepo(map[int]int{7: 1})
		svc := newLendingService(repo)

		_, err := svc.BorrowBook(ctx, 1, 7)
		require.NoError(t, err)
		require.NoError(t, svc.ReturnBook(ctx, 1, 7))

		err = svc.ReturnBook(ctx, 1, 7)
		require.ErrorIs(t, err, errs.ErrNotFound)
		require.Equal(t, 1, repo.available(7), "increment must not be applied twice")
		requireInventoryInvariant(t, repo, 7, 1)
	})
}

func TestService_BorrowBook_Concurrent(t *testing.T) {
	const workers = 16
	ctx := context.Background()
	repo := newFakeRepo(map[int]int{7: 1})
	svc := newLendingService(repo)

	var (
		mu        sync.Mutex
		succeeded int
	)
	gg, ctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		patronID := i + 1
		gg.Go(func() error {
			_, err := svc.BorrowBook(ctx, patronID, 7)
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return nil
			}
			if errors.Is(err, errs.ErrNoCopies) {
				return nil
			}
			return err
		})
	}
	require.NoError(t, gg.Wait())

	require.Equal(t, 1, succeeded, "exactly one of %d concurrent borrows may win the last copy", workers)
	require.Equal(t, 0, repo.available(7))
	require.Equal(t, 1, repo.openLoans(7))
	requireInventoryInvariant(t, repo, 7, 1)
}
