package showcase

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Errors returned by the content API. The HTTP error handler maps each to a
// status code; anything else is reported as a 500.
var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrValidation      = errors.New("validation failed")
	ErrInvalidFileType = errors.New("invalid file type")
	ErrFileTooLarge    = errors.New("file too large")
	ErrNotFound        = errors.New("not found")
)

// requestError carries a client-facing message for one of the sentinels.
type requestError struct {
	kind error
	msg  string
}

func (e *requestError) Error() string { return e.msg }
func (e *requestError) Unwrap() error { return e.kind }

func validationError(msg string) error {
	return &requestError{kind: ErrValidation, msg: msg}
}

// uploadError classifies a failure to read a request body. Hitting the body
// limit while streaming is reported as ErrFileTooLarge.
func uploadError(err error, msg string) error {
	if errors.Is(err, echo.ErrStatusRequestEntityTooLarge) {
		return ErrFileTooLarge
	}
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code == http.StatusRequestEntityTooLarge {
		return ErrFileTooLarge
	}
	return validationError(msg)
}

// errorStatus returns the status code and client-safe message for err.
func errorStatus(err error) (int, string) {
	var re *requestError
	switch {
	case errors.As(err, &re):
		code := http.StatusBadRequest
		switch {
		case errors.Is(re.kind, ErrUnauthorized):
			code = http.StatusUnauthorized
		case errors.Is(re.kind, ErrNotFound):
			code = http.StatusNotFound
		}
		return code, re.msg
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, ErrInvalidFileType):
		return http.StatusBadRequest, "Invalid file type"
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusBadRequest, "File too large"
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, "Invalid request"
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "Not found"
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		// The body limit rejects an oversize upload before any handler runs.
		if he.Code == http.StatusRequestEntityTooLarge {
			return http.StatusBadRequest, "File too large"
		}
		if msg, ok := he.Message.(string); ok && he.Code < 500 {
			return he.Code, msg
		}
		return he.Code, http.StatusText(he.Code)
	}
	return http.StatusInternalServerError, "Internal server error"
}
