package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sandeeptech8/library-api/internal/errs"
	"github.com/sandeeptech8/library-api/internal/handler"
	"github.com/sandeeptech8/library-api/internal/model"
	"github.com/sandeeptech8/library-api/pkg/validate"

	service_mocks "github.com/sandeeptech8/library-api/internal/handler/mocks"
)

func date(y int, m time.Month, d int) model.Date {
	return model.NewDate(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func TestHandler_BorrowBook(t *testing.T) {
	t.Parallel()
	type input struct {
		patronID, bookID int
	}
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockLibraryService, req input)

	var tests = []struct {
		name         string
		mockBehavior mockBehavior
		input        input
		response     response
		wantErr      bool
	}{
		{
			name: "ok",
			mockBehavior: func(r *service_mocks.MockLibraryService, req input) {
				r.EXPECT().
					BorrowBook(context.Background(), req.patronID, req.bookID).
					Return(model.Loan{
						ID:       42,
						LoanUid:  "2b4a7c9e-9f1d-4f6a-8f33-0f6f2f1c5a77",
						PatronID: req.patronID,
						BookID:   req.bookID,
						LoanDate: date(2026, 8, 1),
						DueDate:  date(2026, 8, 15),
					}, nil)
			},
			input: input{patronID: 1, bookID: 7},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"id":42,"loanUid":"2b4a7c9e-9f1d-4f6a-8f33-0f6f2f1c5a77","patronId":1,"bookId":7,"loanDate":"2026-08-01","dueDate":"2026-08-15","returnDate":null}`,
			},
		},
		{
			name: "err. no copies left",
			mockBehavior: func(r *service_mocks.MockLibraryService, req input) {
				r.EXPECT().
					BorrowBook(context.Background(), req.patronID, req.bookID).
					Return(model.Loan{}, errs.ErrNoCopies)
			},
			input: input{patronID: 2, bookID: 7},
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"message":"no copies left"}`,
			},
			wantErr: true,
		},
		{
			name: "err. already borrowed",
			mockBehavior: func(r *service_mocks.MockLibraryService, req input) {
				r.EXPECT().
					BorrowBook(context.Background(), req.patronID, req.bookID).
					Return(model.Loan{}, errs.ErrAlreadyBorrowed)
			},
			input: input{patronID: 1, bookID: 7},
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"message":"already borrowed, not yet returned"}`,
			},
			wantErr: true,
		},
		{
			name: "err. unknown book",
			mockBehavior: func(r *service_mocks.MockLibraryService, req input) {
				r.EXPECT().
					BorrowBook(context.Background(), req.patronID, req.bookID).
					Return(model.Loan{}, errs.ErrNotFound)
			},
			input: input{patronID: 1, bookID: 99},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"message":"not found"}`,
			},
			wantErr: true,
		},
		{
			name: "err. internal",
			mockBehavior: func(r *service_mocks.MockLibraryService, req input) {
				r.EXPECT().
					BorrowBook(context.Background(), req.patronID, req.bookID).
					Return(model.Loan{}, errors.New("db internal"))
			},
			input: input{patronID: 1, bookID: 7},
			response: response{
				expectedCode: http.StatusInternalServerError,
				expectedBody: `{"message":"db internal"}`,
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockLibraryService(c)
			log := zap.NewExample().Named("test")
			h := handler.New(svc, handler.NewNopEnqueuer(), "test-key", log)

			e := echo.New()
			e.Validator = validate.NewCustomValidator()
			e.POST("/patrons/:patronId/books/:bookId/borrow", h.BorrowBook)

			r := httptest.NewRequest(
				http.MethodPost, fmt.Sprintf("/patrons/%d/books/%d/borrow", tt.input.patronID, tt.input.bookID), http.NoBody)
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()

			tt.mockBehavior(svc, tt.input)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_ReturnBook(t *testing.T) {
	t.Parallel()
	type input struct {
		patronID, bookID int
	}
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockLibraryService, req input)

	var tests = []struct {
		name         string
		mockBehavior mockBehavior
		input        input
		response     response
		wantErr      bool
	}{
		{
			name: "ok",
			mockBehavior: func(r *service_mocks.MockLibraryService, req input) {
				r.EXPECT().
					ReturnBook(context.Background(), req.patronID, req.bookID).
					Return(nil)
			},
			input: input{patronID: 1, bookID: 7},
			response: response{
				expectedCode: http.StatusNoContent,
				expectedBody: ``,
			},
		},
		{
			name: "err. no active loan",
			mockBehavior: func(r *service_mocks.MockLibraryService, req input) {
				r.EXPECT().
					ReturnBook(context.Background(), req.patronID, req.bookID).
					Return(errs.ErrNoActiveLoan)
			},
			input: input{patronID: 9, bookID: 7},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"message":"no active loan: not found"}`,
			},
			wantErr: true,
		},
		{
			name: "err. internal",
			mockBehavior: func(r *service_mocks.MockLibraryService, req input) {
				r.EXPECT().
					ReturnBook(context.Background(), req.patronID, req.bookID).
					Return(errors.New("db internal"))
			},
			input: input{patronID: 1, bookID: 7},
			response: response{
				expectedCode: http.StatusInternalServerError,
				expectedBody: `{"message":"db internal"}`,
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockLibraryService(c)
			log := zap.NewExample().Named("test")
			h := handler.New(svc, handler.NewNopEnqueuer(), "test-key", log)

			e := echo.New()
			e.Validator = validate.NewCustomValidator()
			e.POST("/patrons/:patronId/books/:bookId/return", h.ReturnBook)

			r := httptest.NewRequest(
				http.MethodPost, fmt.Sprintf("/patrons/%d/books/%d/return", tt.input.patronID, tt.input.bookID), http.NoBody)
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()

			tt.mockBehavior(svc, tt.input)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_GetBook(t *testing.T) {
	t.Parallel()

	c := gomock.NewController(t)
	defer c.Finish()
	svc := service_mocks.NewMockLibraryService(c)
	log := zap.NewExample().Named("test")
	h := handler.New(svc, handler.NewNopEnqueuer(), "test-key", log)

	e := echo.New()
	e.Validator = validate.NewCustomValidator()
	e.GET("/books/:bookId", h.GetBook)

	pub := date(2008, 8, 1)
	svc.EXPECT().
		GetBook(context.Background(), 7).
		Return(model.Book{
			ID:              7,
			Title:           "Clean Code",
			ISBN:            "978-0132350884",
			Genre:           "Software",
			PublicationDate: &pub,
			AvailableCopies: 3,
			Authors: model.BookAuthors{
				{ID: 1, FirstName: "Robert", LastName: "Martin"},
			},
		}, nil)

	r := httptest.NewRequest(http.MethodGet, "/books/7", http.NoBody)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t,
		`{"id":7,"title":"Clean Code","isbn":"978-0132350884","genre":"Software","publicationDate":"2008-08-01","availableCopies":3,"authors":[{"id":1,"firstName":"Robert","lastName":"Martin"}]}`,
		strings.Trim(w.Body.String(), "\n"))
}

func TestHandler_BorrowBook_BadPath(t *testing.T) {
	t.Parallel()

	c := gomock.NewController(t)
	defer c.Finish()
	svc := service_mocks.NewMockLibraryService(c)
	h := handler.New(svc, handler.NewNopEnqueuer(), "test-key", zap.NewExample())

	e := echo.New()
	e.Validator = validate.NewCustomValidator()
	e.POST("/patrons/:patronId/books/:bookId/borrow", h.BorrowBook)

	r := httptest.NewRequest(http.MethodPost, "/patrons/abc/books/7/borrow", http.NoBody)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, r)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, `{"message":"invalid patronId"}`, strings.Trim(w.Body.String(), "\n"))
}
