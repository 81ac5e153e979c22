package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/sandeeptech8/library-api/internal/errs"
	"github.com/sandeeptech8/library-api/internal/model"
)

type Repository interface {
	ListAuthors(ctx context.Context, offset, limit int) (model.ListAuthors, error)
	GetAuthor(ctx context.Context, authorID int) (model.Author, error)
	CreateAuthor(ctx context.Context, req model.CreateAuthorRequest) (model.Author, error)
	UpdateAuthor(ctx context.Context, authorID int, req model.UpdateAuthorRequest) (model.Author, error)
	DeleteAuthor(ctx context.Context, authorID int) error

	ListPatrons(ctx context.Context, offset, limit int) (model.ListPatrons, error)
	GetPatron(ctx context.Context, patronID int) (model.Patron, error)
	CreatePatron(ctx context.Context, req model.CreatePatronRequest) (model.Patron, error)
	UpdatePatron(ctx context.Context, patronID int, req model.UpdatePatronRequest) (model.Patron, error)
	DeletePatron(ctx context.Context, patronID int) error

	ListBooks(ctx context.Context, offset, limit int) (model.ListBooks, error)
	GetBook(ctx context.Context, bookID int) (model.Book, error)
	CreateBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error)
	UpdateBook(ctx context.Context, bookID int, req model.UpdateBookRequest) (model.Book, error)
	DeleteBook(ctx context.Context, bookID int) error

	ListLoans(ctx context.Context, patronID, offset, limit int) (model.ListLoans, error)

	// unit of work and tx-scoped lending primitives, see lending.go
	WithinTx(ctx context.Context, fn TxFunc) error
	AvailableCopiesForUpdate(ctx context.Context, ec sqlx.ExtContext, bookID int) (int, error)
	DecrementAvailableCopies(ctx context.Context, ec sqlx.ExtContext, bookID int) error
	IncrementAvailableCopies(ctx context.Context, ec sqlx.ExtContext, bookID int) error
	FindOpenLoanForUpdate(ctx context.Context, ec sqlx.ExtContext, patronID, bookID int) (model.Loan, error)
	CreateLoan(ctx context.Context, ec sqlx.ExtContext, patronID, bookID int) (model.Loan, error)
	CloseLoan(ctx context.Context, ec sqlx.ExtContext, loanID int) error
}

type repository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewRepository(db *sqlx.DB, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

const (
	authorsTableName     = `authors`
	patronsTableName     = `patrons`
	booksTableName       = `books`
	bookAuthorsTableName = `book_authors`
	loansTableName       = `loans`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func (r *repository) ListAuthors(ctx context.Context, offset, limit int) (model.ListAuthors, error) {
	query, args, err := qb.Select("id", "first_name", "last_name", "date_of_birth").
		From(authorsTableName).
		OrderBy("id").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return model.ListAuthors{}, err
	}

	var items []model.Author
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return model.ListAuthors{}, errs.Classify(err)
	}
	return model.ListAuthors{
		Paging: model.Paging{
			Offset:        offset,
			Limit:         limit,
			TotalElements: len(items),
		},
		Items: items,
	}, nil
}

func (r *repository) GetAuthor(ctx context.Context, authorID int) (model.Author, error) {
	query, args, err := qb.Select("id", "first_name", "last_name", "date_of_birth").
		From(authorsTableName).
		Where(sq.Eq{"id": authorID}).
		ToSql()
	if err != nil {
		return model.Author{}, err
	}

	var author model.Author
	if err := r.db.GetContext(ctx, &author, query, args...); err != nil {
		return model.Author{}, errs.Classify(err)
	}
	return author, nil
}

func (r *repository) CreateAuthor(ctx context.Context, req model.CreateAuthorRequest) (model.Author, error) {
	query, args, err := qb.Insert(authorsTableName).
		Columns("first_name", "last_name", "date_of_birth").
		Values(req.FirstName, req.LastName, req.DateOfBirth).
		Suffix("returning id, first_name, last_name, date_of_birth").
		ToSql()
	if err != nil {
		return model.Author{}, err
	}

	var author model.Author
	if err := r.db.GetContext(ctx, &author, query, args...); err != nil {
		r.log.Error("CreateAuthor", zap.String("q", query), zap.Error(err))
		return model.Author{}, errs.Classify(err)
	}
	return author, nil
}

func (r *repository) UpdateAuthor(ctx context.Context, authorID int, req model.UpdateAuthorRequest) (model.Author, error) {
	set := map[string]interface{}{}
	if req.FirstName != nil {
		set["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		set["last_name"] = *req.LastName
	}
	if req.DateOfBirth != nil {
		set["date_of_birth"] = *req.DateOfBirth
	}
	if len(set) == 0 {
		return r.GetAuthor(ctx, authorID)
	}

	query, args, err := qb.Update(authorsTableName).
		SetMap(set).
		Where(sq.Eq{"id": authorID}).
		Suffix("returning id, first_name, last_name, date_of_birth").
		ToSql()
	if err != nil {
		return model.Author{}, err
	}

	var author model.Author
	if err := r.db.GetContext(ctx, &author, query, args...); err != nil {
		return model.Author{}, errs.Classify(err)
	}
	return author, nil
}

func (r *repository) DeleteAuthor(ctx context.Context, authorID int) error {
	query, args, err := qb.Delete(authorsTableName).
		Where(sq.Eq{"id": authorID}).
		ToSql()
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errs.Classify(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *repository) ListPatrons(ctx context.Context, offset, limit int) (model.ListPatrons, error) {
	query, args, err := qb.Select("id", "first_name", "last_name", "email", "registration_date").
		From(patronsTableName).
		OrderBy("id").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return model.ListPatrons{}, err
	}

	var items []model.Patron
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return model.ListPatrons{}, errs.Classify(err)
	}
	return model.ListPatrons{
		Paging: model.Paging{
			Offset:        offset,
			Limit:         limit,
			TotalElements: len(items),
		},
		Items: items,
	}, nil
}

func (r *repository) GetPatron(ctx context.Context, patronID int) (model.Patron, error) {
	query, args, err := qb.Select("id", "first_name", "last_name", "email", "registration_date").
		From(patronsTableName).
		Where(sq.Eq{"id": patronID}).
		ToSql()
	if err != nil {
		return model.Patron{}, err
	}

	var patron model.Patron
	if err := r.db.GetContext(ctx, &patron, query, args...); err != nil {
		return model.Patron{}, errs.Classify(err)
	}
	return patron, nil
}

func (r *repository) CreatePatron(ctx context.Context, req model.CreatePatronRequest) (model.Patron, error) {
	query, args, err := qb.Insert(patronsTableName).
		Columns("first_name", "last_name", "email").
		Values(req.FirstName, req.LastName, req.Email).
		Suffix("returning id, first_name, last_name, email, registration_date").
		ToSql()
	if err != nil {
		return model.Patron{}, err
	}

	var patron model.Patron
	if err := r.db.GetContext(ctx, &patron, query, args...); err != nil {
		r.log.Error("CreatePatron", zap.String("q", query), zap.Error(err))
		return model.Patron{}, errs.Classify(err)
	}
	return patron, nil
}

func (r *repository) UpdatePatron(ctx context.Context, patronID int, req model.UpdatePatronRequest) (model.Patron, error) {
	set := map[string]interface{}{}
	if req.FirstName != nil {
		set["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		set["last_name"] = *req.LastName
	}
	if req.Email != nil {
		set["email"] = *req.Email
	}
	if len(set) == 0 {
		return r.GetPatron(ctx, patronID)
	}

	query, args, err := qb.Update(patronsTableName).
		SetMap(set).
		Where(sq.Eq{"id": patronID}).
		Suffix("returning id, first_name, last_name, email, registration_date").
		ToSql()
	if err != nil {
		return model.Patron{}, err
	}

	var patron model.Patron
	if err := r.db.GetContext(ctx, &patron, query, args...); err != nil {
		return model.Patron{}, errs.Classify(err)
	}
	return patron, nil
}

func (r *repository) DeletePatron(ctx context.Context, patronID int) error {
	query, args, err := qb.Delete(patronsTableName).
		Where(sq.Eq{"id": patronID}).
		ToSql()
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if errors.Is(errs.Classify(err), errs.ErrRelatedNotFound) {
			// loans still reference this patron
			return errs.ErrLoanPending
		}
		return errs.Classify(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

const bookColumns = `
	b.id,
	b.title,
	b.isbn,
	b.genre,
	b.publication_date,
	b.available_copies,
	coalesce(
		json_agg(
			distinct jsonb_build_object(
				'id', a.id,
				'firstName', a.first_name,
				'lastName', a.last_name
			)
		) filter (where a.id is not null),
		'[]'::json
	) as authors`

func (r *repository) ListBooks(ctx context.Context, offset, limit int) (model.ListBooks, error) {
	q := `
	select * from (
		select ` + bookColumns + `
		from books b
		left join book_authors ba on b.id = ba.book_id
		left join authors a on ba.author_id = a.id
		group by b.id
		order by b.title
	) as sub
	limit $1 offset $2`

	var items []model.Book
	if err := r.db.SelectContext(ctx, &items, q, limit, offset); err != nil {
		return model.ListBooks{}, errs.Classify(err)
	}
	return model.ListBooks{
		Paging: model.Paging{
			Offset:        offset,
			Limit:         limit,
			TotalElements: len(items),
		},
		Items: items,
	}, nil
}

func (r *repository) GetBook(ctx context.Context, bookID int) (model.Book, error) {
	q := `
	select ` + bookColumns + `
	from books b
	left join book_authors ba on b.id = ba.book_id
	left join authors a on ba.author_id = a.id
	where b.id = $1
	group by b.id`

	var book model.Book
	if err := r.db.GetContext(ctx, &book, q, bookID); err != nil {
		return model.Book{}, errs.Classify(err)
	}
	return book, nil
}

func (r *repository) CreateBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error) {
	var bookID int
	err := r.WithinTx(ctx, func(ctx context.Context, ec sqlx.ExtContext) error {
		query, args, err := qb.Insert(booksTableName).
			Columns("title", "isbn", "genre", "publication_date", "available_copies").
			Values(req.Title, req.ISBN, req.Genre, req.PublicationDate, req.AvailableCopies).
			Suffix("returning id").
			ToSql()
		if err != nil {
			return err
		}
		if err := sqlx.GetContext(ctx, ec, &bookID, query, args...); err != nil {
			return errs.Classify(err)
		}
		return r.linkAuthors(ctx, ec, bookID, req.AuthorIDs)
	})
	if err != nil {
		return model.Book{}, err
	}
	return r.GetBook(ctx, bookID)
}

func (r *repository) UpdateBook(ctx context.Context, bookID int, req model.UpdateBookRequest) (model.Book, error) {
	err := r.WithinTx(ctx, func(ctx context.Context, ec sqlx.ExtContext) error {
		set := map[string]interface{}{}
		if req.Title != nil {
			set["title"] = *req.Title
		}
		if req.ISBN != nil {
			set["isbn"] = *req.ISBN
		}
		if req.Genre != nil {
			set["genre"] = *req.Genre
		}
		if req.PublicationDate != nil {
			set["publication_date"] = *req.PublicationDate
		}
		if len(set) > 0 {
			query, args, err := qb.Update(booksTableName).
				SetMap(set).
				Where(sq.Eq{"id": bookID}).
				ToSql()
			if err != nil {
				return err
			}
			res, err := ec.ExecContext(ctx, query, args...)
			if err != nil {
				return errs.Classify(err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return errs.ErrNotFound
			}
		}
		if req.AuthorIDs != nil {
			if _, err := ec.ExecContext(ctx,
				`delete from book_authors where book_id = $1`, bookID); err != nil {
				return errs.Classify(err)
			}
			return r.linkAuthors(ctx, ec, bookID, *req.AuthorIDs)
		}
		return nil
	})
	if err != nil {
		return model.Book{}, err
	}
	return r.GetBook(ctx, bookID)
}

func (r *repository) linkAuthors(ctx context.Context, ec sqlx.ExtContext, bookID int, authorIDs []int) error {
	if len(authorIDs) == 0 {
		return nil
	}
	ins := qb.Insert(bookAuthorsTableName).Columns("book_id", "author_id")
	for _, authorID := range authorIDs {
		ins = ins.Values(bookID, authorID)
	}
	query, args, err := ins.ToSql()
	if err != nil {
		return err
	}
	if _, err := ec.ExecContext(ctx, query, args...); err != nil {
		return errs.Classify(err)
	}
	return nil
}

func (r *repository) DeleteBook(ctx context.Context, bookID int) error {
	return r.WithinTx(ctx, func(ctx context.Context, ec sqlx.ExtContext) error {
		if _, err := ec.ExecContext(ctx,
			`delete from book_authors where book_id = $1`, bookID); err != nil {
			return errs.Classify(err)
		}
		res, err := ec.ExecContext(ctx, `delete from books where id = $1`, bookID)
		if err != nil {
			if errors.Is(errs.Classify(err), errs.ErrRelatedNotFound) {
				// loans still reference this book
				return errs.ErrLoanPending
			}
			return errs.Classify(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errs.ErrNotFound
		}
		return nil
	})
}

func (r *repository) ListLoans(ctx context.Context, patronID, offset, limit int) (model.ListLoans, error) {
	query, args, err := qb.Select("id", "loan_uid", "patron_id", "book_id", "loan_date", "due_date", "return_date").
		From(loansTableName).
		Where(sq.Eq{"patron_id": patronID}).
		OrderBy("loan_date desc", "id desc").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return model.ListLoans{}, err
	}

	var items []model.Loan
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return model.ListLoans{}, errs.Classify(err)
	}
	return model.ListLoans{
		Paging: model.Paging{
			Offset:        offset,
			Limit:         limit,
			TotalElements: len(items),
		},
		Items: items,
	}, nil
}
