// Package response defines the JSON envelopes every endpoint answers with.
package response

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Success is the envelope for 2xx/3xx answers. Success is derived from the
// status code.
type Success struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// Failure is the envelope for error answers.
type Failure struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
}

// NewSuccess builds a success envelope; nil data is rendered as {}.
func NewSuccess(status int, data any, message string) Success {
	if data == nil {
		data = struct{}{}
	}
	return Success{StatusCode: status, Data: data, Message: message, Success: status < http.StatusBadRequest}
}

// NewFailure builds a failure envelope. Errs is never null in JSON.
func NewFailure(status int, message string, errs ...string) Failure {
	if errs == nil {
		errs = []string{}
	}
	return Failure{StatusCode: status, Message: message, Success: false, Errors: errs}
}

// OK writes a success envelope with the same status in header and body.
func OK(c echo.Context, status int, data any, message string) error {
	return c.JSON(status, NewSuccess(status, data, message))
}

// Fail writes a failure envelope.
func Fail(c echo.Context, status int, message string, errs ...string) error {
	return c.JSON(status, NewFailure(status, message, errs...))
}
