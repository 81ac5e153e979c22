package errs

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

var (
	ErrNotFound = errors.New("not found")

	// lending rejections, terminal for the caller
	ErrNoCopies        = errors.New("no copies left")
	ErrAlreadyBorrowed = errors.New("already borrowed, not yet returned")
	ErrNoActiveLoan    = fmt.Errorf("no active loan: %w", ErrNotFound)
	ErrAlreadyReturned = errors.New("loan already closed")

	ErrDuplicate       = errors.New("record already exists")
	ErrRelatedNotFound = errors.New("related record not found")
	ErrLoanPending     = errors.New("operation blocked by pending loans")

	// ErrDatabase marks transient storage failures; the whole call is
	// safe to retry from scratch.
	ErrDatabase = errors.New("database operation failed")
)

// Classify maps a raw storage error onto the package taxonomy so driver
// error types never cross the repository boundary.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNoCopies) ||
		errors.Is(err, ErrAlreadyBorrowed) || errors.Is(err, ErrAlreadyReturned) ||
		errors.Is(err, ErrDuplicate) || errors.Is(err, ErrRelatedNotFound) ||
		errors.Is(err, ErrLoanPending) || errors.Is(err, ErrDatabase) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errors.WithMessage(ErrDatabase, err.Error())
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return ErrDuplicate
		case pgerrcode.ForeignKeyViolation:
			return ErrRelatedNotFound
		case pgerrcode.LockNotAvailable, pgerrcode.DeadlockDetected,
			pgerrcode.SerializationFailure:
			return errors.WithMessage(ErrDatabase, pgErr.Message)
		case pgerrcode.CheckViolation:
			return errors.WithMessage(ErrDatabase, "integrity check violated: "+pgErr.ConstraintName)
		}
	}
	return errors.WithMessage(ErrDatabase, err.Error())
}

type ValidationErrorResponse struct {
	Message string `json:"message"`
	Errors  struct {
		AdditionalProperties string `json:"additionalProperties"`
	} `json:"errors"`
}
