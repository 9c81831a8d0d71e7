// Package apperr defines the error kinds shared by the auth and ledger services
// and their translation to HTTP status codes.
package apperr

import (
	"errors"
	"net/http"
)

var (
	// ErrAuthentication covers bad credentials and invalid, expired or superseded tokens.
	ErrAuthentication = errors.New("authentication failed")
	// ErrAuthorization is returned when the caller does not own the resource.
	ErrAuthorization = errors.New("not authorized")
	// ErrValidation is returned for malformed input.
	ErrValidation = errors.New("invalid input")
	// ErrConflict is returned when a unique resource already exists.
	ErrConflict = errors.New("already exists")
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrStorage is returned when attachment I/O fails on a write path.
	ErrStorage = errors.New("storage failure")
)

// Status maps an error to the HTTP status code the API reports for it.
// Ownership failures are reported like missing records so that non-owners
// cannot probe for existence.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAuthorization), errors.Is(err, ErrNotFound):
		return http.StatusBadRequest
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConflict):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Hidden reports whether the error must be shown as a generic "not found".
func Hidden(err error) bool {
	return errors.Is(err, ErrAuthorization) || errors.Is(err, ErrNotFound)
}
