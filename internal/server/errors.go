package server

import (
	"errors"
	"net/http"

	"github.com/jonathan/talent-reconciler/internal/locking"
	"github.com/jonathan/talent-reconciler/internal/schemas"
	"github.com/jonathan/talent-reconciler/internal/types"
)

// HTTPStatus returns the appropriate HTTP status code for an error. A partial
// apply is checked first because it wraps the per-entry failures.
func HTTPStatus(err error) int {
	var (
		partial      *types.PartialApplyError
		validation   *types.ValidationError
		schemaErr    *schemas.ValidationError
		unauthorized *types.AuthorizationError
		notFound     *types.NotFoundError
		conflict     *types.ConflictError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &partial):
		return http.StatusMultiStatus
	case errors.As(err, &validation), errors.As(err, &schemaErr):
		return http.StatusBadRequest
	case errors.As(err, &unauthorized):
		return http.StatusForbidden
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.Is(err, locking.ErrNotAcquired):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorCode is the machine-readable error kind returned next to the message
func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "validation_error"
	case http.StatusForbidden:
		return "not_authorized"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusRequestEntityTooLarge:
		return "payload_too_large"
	case http.StatusServiceUnavailable:
		return "busy"
	default:
		return "internal_error"
	}
}
