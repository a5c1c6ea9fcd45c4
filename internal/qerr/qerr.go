// Package qerr defines the error taxonomy shared by every query component.
//
// Callers must always be able to tell "zero results" apart from "this entity
// has no coordinates" or "the query timed out", so spatial operations return
// one of these sentinels instead of an empty success.
package qerr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound means an identifier does not resolve to an existing
	// address, school, or catchment polygon.
	ErrNotFound = errors.New("not found")

	// ErrUngeocoded means the entity exists but has no coordinates. Distinct
	// from ErrNotFound: the entity is valid, just spatially unusable.
	ErrUngeocoded = errors.New("entity has no coordinates")

	// ErrInvalidQuery means a malformed filter combination (radius <= 0,
	// limit <= 0, prefix below the minimum length). Rejected before storage.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrTimeout means the caller-supplied deadline expired. Retryable with
	// a narrower query.
	ErrTimeout = errors.New("query deadline exceeded")

	// ErrStorageUnavailable means the underlying persistence is unreachable.
	// Fatal for the current request; not retried by the core.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Invalid wraps ErrInvalidQuery with a caller-facing reason.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidQuery, fmt.Sprintf(format, args...))
}

// FromContext converts a context cancellation into the taxonomy.
func FromContext(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}

// Status maps a taxonomy error to an HTTP status code.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUngeocoded):
		// The resource exists but cannot satisfy a spatial request.
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrInvalidQuery):
		return http.StatusBadRequest
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
