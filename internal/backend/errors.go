package backend

import "errors"

var (
	// ErrNotFound is returned when the envelope carries no data.
	ErrNotFound = errors.New("backend: record not found")

	// ErrRequestFailed wraps transport-level and HTTP status failures.
	ErrRequestFailed = errors.New("backend: request failed")

	// ErrAPI is returned when the envelope code is not a success code.
	ErrAPI = errors.New("backend: api error")

	// ErrDecode is returned when the response body is not a valid envelope.
	ErrDecode = errors.New("backend: invalid response")
)
