package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sandeeptech8/library-api/internal/model"
	"github.com/sandeeptech8/library-api/pkg/kafka"
)

func (h *Handler) ListLoans(c echo.Context) error {
	patronID, err := pathID(c, "patronId")
	if err != nil {
		return err
	}
	offset, limit, err := paging(c)
	if err != nil {
		return err
	}
	loans, err := h.librarySvc.ListLoans(c.Request().Context(), patronID, offset, limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, loans)
}

func (h *Handler) BorrowBook(c echo.Context) error {
	patronID, err := pathID(c, "patronId")
	if err != nil {
		return err
	}
	bookID, err := pathID(c, "bookId")
	if err != nil {
		return err
	}

	loan, err := h.librarySvc.BorrowBook(c.Request().Context(), patronID, bookID)
	if err != nil {
		return httpError(err)
	}

	h.publish(model.EventBookBorrowed, loan.LoanUid, patronID, bookID)
	return c.JSON(http.StatusOK, loan)
}

func (h *Handler) ReturnBook(c echo.Context) error {
	patronID, err := pathID(c, "patronId")
	if err != nil {
		return err
	}
	bookID, err := pathID(c, "bookId")
	if err != nil {
		return err
	}

	if err := h.librarySvc.ReturnBook(c.Request().Context(), patronID, bookID); err != nil {
		return httpError(err)
	}

	h.publish(model.EventBookReturned, "", patronID, bookID)
	return c.NoContent(http.StatusNoContent)
}

// publish is best effort; a broker outage must not fail the request.
func (h *Handler) publish(typ model.LendingEventType, loanUid string, patronID, bookID int) {
	event := model.LendingEvent{
		Type:     typ,
		LoanUid:  loanUid,
		PatronID: patronID,
		BookID:   bookID,
		At:       time.Now().UTC(),
	}
	if err := h.enq.Enqueue(kafka.LendingTopic, event); err != nil {
		h.log.Warn("enqueue lending event",
			zap.String("type", string(typ)), zap.Error(err))
	}
}
