package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sandeeptech8/library-api/internal/model"
)

func (h *Handler) ListPatrons(c echo.Context) error {
	offset, limit, err := paging(c)
	if err != nil {
		return err
	}
	patrons, err := h.librarySvc.ListPatrons(c.Request().Context(), offset, limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, patrons)
}

func (h *Handler) GetPatron(c echo.Context) error {
	patronID, err := pathID(c, "patronId")
	if err != nil {
		return err
	}
	patron, err := h.librarySvc.GetPatron(c.Request().Context(), patronID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, patron)
}

func (h *Handler) CreatePatron(c echo.Context) error {
	var req model.CreatePatronRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	patron, err := h.librarySvc.CreatePatron(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, patron)
}

func (h *Handler) UpdatePatron(c echo.Context) error {
	patronID, err := pathID(c, "patronId")
	if err != nil {
		return err
	}
	var req model.UpdatePatronRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	patron, err := h.librarySvc.UpdatePatron(c.Request().Context(), patronID, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, patron)
}

func (h *Handler) DeletePatron(c echo.Context) error {
	patronID, err := pathID(c, "patronId")
	if err != nil {
		return err
	}
	if err := h.librarySvc.DeletePatron(c.Request().Context(), patronID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
