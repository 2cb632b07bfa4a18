package apperr

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// Postgres error codes translated into stable categories.
const (
	pgUniqueViolation = "23505"
	pgFKViolation     = "23503"
	pgInvalidSyntax   = "22P02"
)

type errorBody struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
	Stack   string `json:"stack,omitempty"`
}

// HTTPErrorHandler is the single translator every handler error funnels
// through. It inspects the declared error kind first, then wrapped
// database errors, and defaults to 500. Stack traces only leave the
// process outside production.
func HTTPErrorHandler(log *slog.Logger, exposeDetails bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		body := errorBody{Error: "Internal Server Error"}

		var appErr *Error
		var httpErr *echo.HTTPError
		var pgErr *pgconn.PgError

		switch {
		case errors.As(err, &appErr):
			status = appErr.Status()
			body.Error = appErr.Message
			body.Details = appErr.Details

		case errors.As(err, &httpErr):
			status = httpErr.Code
			if msg, ok := httpErr.Message.(string); ok {
				body.Error = msg
			} else {
				body.Error = http.StatusText(httpErr.Code)
			}

		case errors.As(err, &pgErr):
			status, body.Error = translatePG(pgErr)

		case errors.Is(err, gorm.ErrRecordNotFound):
			status = http.StatusNotFound
			body.Error = "Resource not found"

		default:
			if exposeDetails {
				body.Details = err.Error()
				body.Stack = string(debug.Stack())
			}
		}

		if status >= http.StatusInternalServerError {
			log.Error("request failed", "status", status, "error", err)
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}

func translatePG(pgErr *pgconn.PgError) (int, string) {
	switch pgErr.Code {
	case pgUniqueViolation:
		return http.StatusBadRequest, "Resource already exists"
	case pgFKViolation:
		return http.StatusBadRequest, "Invalid reference to related resource"
	case pgInvalidSyntax:
		return http.StatusBadRequest, "Invalid ID format"
	default:
		return http.StatusBadRequest, "Database error occurred"
	}
}
