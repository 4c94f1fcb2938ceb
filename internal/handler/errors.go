package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-accounts/internal/apperror"
	"github.com/iliyamo/user-accounts/internal/response"
)

const msgInternal = "Internal server error"

// ErrorHandler returns an echo.HTTPErrorHandler that renders every error as
// a failure envelope. Causes are logged, never sent to the client.
func ErrorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, msg := http.StatusInternalServerError, msgInternal
		var ae *apperror.Error
		var he *echo.HTTPError
		switch {
		case errors.As(err, &ae):
			status, msg = ae.StatusCode(), ae.Message
		case errors.As(err, &he):
			status = he.Code
			if m, ok := he.Message.(string); ok && status < http.StatusInternalServerError {
				msg = m
			} else if status < http.StatusInternalServerError {
				msg = http.StatusText(status)
			}
		}

		if status >= http.StatusInternalServerError {
			log.ErrorContext(c.Request().Context(), "request failed",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"err", err,
			)
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		if werr := response.Fail(c, status, msg); werr != nil {
			log.ErrorContext(c.Request().Context(), "write error response failed", "err", werr)
		}
	}
}
