package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/sandeeptech8/library-api/internal/errs"
	md "github.com/sandeeptech8/library-api/pkg/middleware"
	"github.com/sandeeptech8/library-api/pkg/validate"
)

type Handler struct {
	librarySvc LibraryService
	enq        Enqueuer
	apiKey     string
	log        *zap.Logger
}

func New(librarySrv LibraryService, enq Enqueuer, apiKey string, log *zap.Logger) *Handler {
	return &Handler{
		librarySvc: librarySrv,
		enq:        enq,
		apiKey:     apiKey,
		log:        log,
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig(h.log)),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
		md.APIKeyAuth(h.apiKey),
	)

	api.GET("/authors", h.ListAuthors)
	api.POST("/authors", h.CreateAuthor)
	api.GET("/authors/:authorId", h.GetAuthor)
	api.PATCH("/authors/:authorId", h.UpdateAuthor)
	api.DELETE("/authors/:authorId", h.DeleteAuthor)

	api.GET("/books", h.ListBooks)
	api.POST("/books", h.CreateBook)
	api.GET("/books/:bookId", h.GetBook)
	api.PATCH("/books/:bookId", h.UpdateBook)
	api.DELETE("/books/:bookId", h.DeleteBook)

	api.GET("/patrons", h.ListPatrons)
	api.POST("/patrons", h.CreatePatron)
	api.GET("/patrons/:patronId", h.GetPatron)
	api.PATCH("/patrons/:patronId", h.UpdatePatron)
	api.DELETE("/patrons/:patronId", h.DeletePatron)

	api.GET("/patrons/:patronId/loans", h.ListLoans)
	api.POST("/patrons/:patronId/books/:bookId/borrow", h.BorrowBook)
	api.POST("/patrons/:patronId/books/:bookId/return", h.ReturnBook)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// httpError maps the service error taxonomy onto response codes.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrNoCopies),
		errors.Is(err, errs.ErrAlreadyBorrowed),
		errors.Is(err, errs.ErrAlreadyReturned),
		errors.Is(err, errs.ErrDuplicate):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, errs.ErrRelatedNotFound),
		errors.Is(err, errs.ErrLoanPending):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func pathID(c echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

const (
	defaultLimit = 10
	maxLimit     = 100
)

func paging(c echo.Context) (offset, limit int, err error) {
	offset, limit = 0, defaultLimit
	if raw := c.QueryParam("offset"); raw != "" {
		if offset, err = strconv.Atoi(raw); err != nil || offset < 0 {
			return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "invalid offset")
		}
	}
	if raw := c.QueryParam("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit < 1 || limit > maxLimit {
			return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
	}
	return offset, limit, nil
}
