package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/sandeeptech8/library-api/internal/model"
	"github.com/sandeeptech8/library-api/internal/repository"
)

type Service struct {
	log  *zap.Logger
	repo repository.Repository
}

func NewService(repo repository.Repository, log *zap.Logger) *Service {
	return &Service{
		log:  log,
		repo: repo,
	}
}

func (s *Service) ListAuthors(ctx context.Context, offset, limit int) (model.ListAuthors, error) {
	return s.repo.ListAuthors(ctx, offset, limit)
}

func (s *Service) GetAuthor(ctx context.Context, authorID int) (model.Author, error) {
	return s.repo.GetAuthor(ctx, authorID)
}

func (s *Service) CreateAuthor(ctx context.Context, req model.CreateAuthorRequest) (model.Author, error) {
	return s.repo.CreateAuthor(ctx, req)
}

func (s *Service) UpdateAuthor(ctx context.Context, authorID int, req model.UpdateAuthorRequest) (model.Author, error) {
	return s.repo.UpdateAuthor(ctx, authorID, req)
}

func (s *Service) DeleteAuthor(ctx context.Context, authorID int) error {
	return s.repo.DeleteAuthor(ctx, authorID)
}

func (s *Service) ListPatrons(ctx context.Context, offset, limit int) (model.ListPatrons, error) {
	return s.repo.ListPatrons(ctx, offset, limit)
}

func (s *Service) GetPatron(ctx context.Context, patronID int) (model.Patron, error) {
	return s.repo.GetPatron(ctx, patronID)
}

func (s *Service) CreatePatron(ctx context.Context, req model.CreatePatronRequest) (model.Patron, error) {
	return s.repo.CreatePatron(ctx, req)
}

func (s *Service) UpdatePatron(ctx context.Context, patronID int, req model.UpdatePatronRequest) (model.Patron, error) {
	return s.repo.UpdatePatron(ctx, patronID, req)
}

func (s *Service) DeletePatron(ctx context.Context, patronID int) error {
	return s.repo.DeletePatron(ctx, patronID)
}

func (s *Service) ListBooks(ctx context.Context, offset, limit int) (model.ListBooks, error) {
	return s.repo.ListBooks(ctx, offset, limit)
}

func (s *Service) GetBook(ctx context.Context, bookID int) (model.Book, error) {
	return s.repo.GetBook(ctx, bookID)
}

func (s *Service) CreateBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error) {
	return s.repo.CreateBook(ctx, req)
}

func (s *Service) UpdateBook(ctx context.Context, bookID int, req model.UpdateBookRequest) (model.Book, error) {
	return s.repo.UpdateBook(ctx, bookID, req)
}

func (s *Service) DeleteBook(ctx context.Context, bookID int) error {
	return s.repo.DeleteBook(ctx, bookID)
}

func (s *Service) ListLoans(ctx context.Context, patronID, offset, limit int) (model.ListLoans, error) {
	if _, err := s.repo.GetPatron(ctx, patronID); err != nil {
		return model.ListLoans{}, err
	}
	return s.repo.ListLoans(ctx, patronID, offset, limit)
}
