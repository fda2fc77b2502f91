package adapter

import "errors"

// Transport sentinels. HTTP statuses are mapped onto them by mapHTTPError so
// callers can match with errors.Is regardless of the wire protocol.
var (
	ErrBadRequest          = errors.New("bad request")
	ErrUnauthorized        = errors.New("client unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
	ErrTooManyRequests     = errors.New("too many requests")
	ErrInternalServerError = errors.New("internal server error")
	ErrBadGateway          = errors.New("bad gateway")
	ErrServiceUnavailable  = errors.New("service unavailable")

	// ErrConflict is returned when the server's cursor for a feature moved
	// past the one the client pushed against (409 or 412).
	ErrConflict = errors.New("sync conflict")

	// ErrInvalidResponse is returned when a 2xx answer cannot be decoded or
	// misses required fields.
	ErrInvalidResponse = errors.New("invalid server response")
)
