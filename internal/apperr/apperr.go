// Package apperr defines the stable error kinds the service surfaces to
// callers. Handlers match kinds with errors.Is and map them to HTTP statuses,
// so a client can tell "case does not exist" apart from "case exists but you
// may not act on it".
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound marks a referenced entity as missing.
	ErrNotFound = errors.New("not found")
	// ErrForbidden marks a failed authorization rule.
	ErrForbidden = errors.New("forbidden")
	// ErrValidation marks malformed input that reached the core.
	ErrValidation = errors.New("validation failed")
	// ErrUpstream marks an enrichment-gateway failure. Always recovered
	// inside the gateway, never surfaced as a hard failure.
	ErrUpstream = errors.New("upstream unavailable")
	// ErrRender marks a single sub-block that could not be rendered.
	// Recovered locally and logged inline in the output.
	ErrRender = errors.New("render failure")
	// ErrPersistence marks a failed store write. Fatal to the current
	// operation.
	ErrPersistence = errors.New("persistence failure")
)

// NotFound returns an ErrNotFound error naming the missing entity.
func NotFound(entity, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, entity, id)
}

// Forbidden returns an ErrForbidden error with a reason.
func Forbidden(reason string) error {
	return fmt.Errorf("%w: %s", ErrForbidden, reason)
}

// Validation returns an ErrValidation error with a reason.
func Validation(reason string) error {
	return fmt.Errorf("%w: %s", ErrValidation, reason)
}

// Persistence wraps a store error as ErrPersistence.
func Persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrPersistence, op, err)
}

// HTTPStatus maps an error to the status code returned at the Echo boundary.
// Unclassified errors map to 500.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
