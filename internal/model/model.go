package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// LoanPeriodDays is added to the loan date to produce the due date.
const LoanPeriodDays = 14

type Date struct {
	time.Time `json:",inline"`
}

func NewDate(t time.Time) Date {
	return Date{Time: t}
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(time.DateOnly))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		d.Time = time.Time{}
	case time.Time:
		d.Time = v
	case string:
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return err
		}
		d.Time = t
	default:
		return fmt.Errorf("unsupported Scan type %T for Date", src)
	}
	return nil
}

func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.Time, nil
}

type Paging struct {
	Offset        int `json:"offset"`
	Limit         int `json:"limit"`
	TotalElements int `json:"totalElements"`
}

type Author struct {
	ID          int    `json:"id" db:"id"`
	FirstName   string `json:"firstName" db:"first_name"`
	LastName    string `json:"lastName" db:"last_name"`
	DateOfBirth *Date  `json:"dateOfBirth" db:"date_of_birth"`
}

type ListAuthors struct {
	Paging `json:",inline"`
	Items  []Author `json:"items"`
}

type CreateAuthorRequest struct {
	FirstName   string `json:"firstName" validate:"required"`
	LastName    string `json:"lastName" validate:"required"`
	DateOfBirth *Date  `json:"dateOfBirth"`
}

type UpdateAuthorRequest struct {
	FirstName   *string `json:"firstName"`
	LastName    *string `json:"lastName"`
	DateOfBirth *Date   `json:"dateOfBirth"`
}

type Patron struct {
	ID               int    `json:"id" db:"id"`
	FirstName        string `json:"firstName" db:"first_name"`
	LastName         string `json:"lastName" db:"last_name"`
	Email            string `json:"email" db:"email"`
	RegistrationDate Date   `json:"registrationDate" db:"registration_date"`
}

type ListPatrons struct {
	Paging `json:",inline"`
	Items  []Patron `json:"items"`
}

type CreatePatronRequest struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
}

type UpdatePatronRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Email     *string `json:"email" validate:"omitempty,email"`
}

// BookAuthor is the author shape embedded in book responses.
type BookAuthor struct {
	ID        int    `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// BookAuthors scans the json_agg output of the books queries.
type BookAuthors []BookAuthor

func (a *BookAuthors) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = nil
		return nil
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return fmt.Errorf("unsupported Scan type %T for BookAuthors", src)
	}
}

type Book struct {
	ID              int         `json:"id" db:"id"`
	Title           string      `json:"title" db:"title"`
	ISBN            string      `json:"isbn" db:"isbn"`
	Genre           string      `json:"genre" db:"genre"`
	PublicationDate *Date       `json:"publicationDate" db:"publication_date"`
	AvailableCopies int         `json:"availableCopies" db:"available_copies"`
	Authors         BookAuthors `json:"authors" db:"authors"`
}

type ListBooks struct {
	Paging `json:",inline"`
	Items  []Book `json:"items"`
}

type CreateBookRequest struct {
	Title           string `json:"title" validate:"required"`
	ISBN            string `json:"isbn" validate:"required,isbn"`
	Genre           string `json:"genre"`
	PublicationDate *Date  `json:"publicationDate"`
	AvailableCopies int    `json:"availableCopies" validate:"gte=0"`
	AuthorIDs       []int  `json:"authorIds" validate:"dive,gt=0"`
}

type UpdateBookRequest struct {
	Title           *string `json:"title"`
	ISBN            *string `json:"isbn" validate:"omitempty,isbn"`
	Genre           *string `json:"genre"`
	PublicationDate *Date   `json:"publicationDate"`
	AuthorIDs       *[]int  `json:"authorIds" validate:"omitempty,dive,gt=0"`
}

type Loan struct {
	ID         int    `json:"id" db:"id"`
	LoanUid    string `json:"loanUid" db:"loan_uid"`
	PatronID   int    `json:"patronId" db:"patron_id"`
	BookID     int    `json:"bookId" db:"book_id"`
	LoanDate   Date   `json:"loanDate" db:"loan_date"`
	DueDate    Date   `json:"dueDate" db:"due_date"`
	ReturnDate *Date  `json:"returnDate" db:"return_date"`
}

type ListLoans struct {
	Paging `json:",inline"`
	Items  []Loan `json:"items"`
}

type LendingEventType string

const (
	EventBookBorrowed LendingEventType = "BOOK_BORROWED"
	EventBookReturned LendingEventType = "BOOK_RETURNED"
)

// LendingEvent is published to the lending topic after a committed
// borrow or return.
type LendingEvent struct {
	Type     LendingEventType `json:"type"`
	LoanUid  string           `json:"loanUid"`
	PatronID int              `json:"patronId"`
	BookID   int              `json:"bookId"`
	At       time.Time        `json:"at"`
}
