package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound        = fmt.Errorf("not found")
	ErrForbidden       = fmt.Errorf("forbidden")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrConflict        = fmt.Errorf("conflict")
	ErrUnavailable     = fmt.Errorf("unavailable")

	ErrWorkerPanic = fmt.Errorf("worker panic")
)

// HTTPStatus maps a domain error to the status code exposed by the REST surface.
// Unknown errors are treated as internal.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
