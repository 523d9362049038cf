package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// UnexpectedErrorMessage is what users see when a request fails without a
// message from the server.
const UnexpectedErrorMessage = "An unexpected error occurred. Please try again."

var ErrNoSession = errors.New("not logged in")

// ApiError is a 4xx/5xx response from the backend. Message carries the
// body's "message" field so it can be shown as is.
type ApiError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Err        error  `json:"-"`
}

func (e *ApiError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
	}

	return e.Message
}

func (e *ApiError) Unwrap() error {
	return e.Err
}

func newApiError(statusCode int, message string) *ApiError {
	if message == "" {
		message = strings.ToLower(http.StatusText(statusCode))
	}
	return &ApiError{
		StatusCode: statusCode,
		Message:    message,
	}
}

// UserMessage returns the text to show for err: the server's message for
// an ApiError, a generic notice for everything else.
func UserMessage(err error) string {
	var apiErr *ApiError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return UnexpectedErrorMessage
}
