package handler

import (
	"context"

	"github.com/sandeeptech8/library-api/internal/model"
	"github.com/sandeeptech8/library-api/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type LibraryService interface {
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
	BorrowBook(ctx context.Context, patronID, bookID int) (model.Loan, error)
	ReturnBook(ctx context.Context, patronID, bookID int) error
}

var _ LibraryService = (*service.Service)(nil)
