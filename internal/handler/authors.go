package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sandeeptech8/library-api/internal/model"
)

func (h *Handler) ListAuthors(c echo.Context) error {
	offset, limit, err := paging(c)
	if err != nil {
		return err
	}
	authors, err := h.librarySvc.ListAuthors(c.Request().Context(), offset, limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, authors)
}

func (h *Handler) GetAuthor(c echo.Context) error {
	authorID, err := pathID(c, "authorId")
	if err != nil {
		return err
	}
	author, err := h.librarySvc.GetAuthor(c.Request().Context(), authorID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, author)
}

func (h *Handler) CreateAuthor(c echo.Context) error {
	var req model.CreateAuthorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	author, err := h.librarySvc.CreateAuthor(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, author)
}

func (h *Handler) UpdateAuthor(c echo.Context) error {
	authorID, err := pathID(c, "authorId")
	if err != nil {
		return err
	}
	var req model.UpdateAuthorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	author, err := h.librarySvc.UpdateAuthor(c.Request().Context(), authorID, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, author)
}

func (h *Handler) DeleteAuthor(c echo.Context) error {
	authorID, err := pathID(c, "authorId")
	if err != nil {
		return err
	}
	if err := h.librarySvc.DeleteAuthor(c.Request().Context(), authorID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
